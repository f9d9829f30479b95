package api

import (
	"math/big"

	"casperdash/internal/config"
	"casperdash/internal/models"
)

// MotesToCSPR formats a motes amount stored as text, returning "" for
// empty or malformed input
func MotesToCSPR(motes string) string {
	if motes == "" {
		return ""
	}
	v, ok := new(big.Int).SetString(motes, 10)
	if !ok {
		return ""
	}
	return config.MotesToCSPR(v)
}

// BuildDeployView adds CSPR amounts to a deploy record
func BuildDeployView(rec *models.DeployRecord) models.DeployView {
	return models.DeployView{
		DeployRecord: rec,
		PaymentCSPR:  MotesToCSPR(rec.PaymentMotes),
		CostCSPR:     MotesToCSPR(rec.Cost),
	}
}

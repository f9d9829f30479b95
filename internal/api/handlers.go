package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"casperdash/internal/casper/types"
	"casperdash/internal/models"
	"casperdash/internal/nft"
	"casperdash/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxDeployBody = 4 << 20

// handleIndex returns basic service information
// GET / - Returns service info and available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"service":     "casperdash",
		"version":     "1.0.0",
		"description": "Casper contract clients and NFT query service",
		"endpoints": map[string]string{
			"GET /":                                      "This page - Service information",
			"GET /health":                                "Health check endpoint",
			"GET /metrics":                               "Prometheus metrics for monitoring",
			"GET /chain/state":                           "Latest state root hash, block hash and era",
			"GET /collections":                           "Configured NFT collections",
			"GET /collections/{hash}/info":               "Collection name, symbol and total supply",
			"GET /collections/{hash}/tokens/{id}":        "Token details with resolved metadata",
			"GET /collections/{hash}/owners/{pk}/tokens": "Tokens of one owner in one collection",
			"GET /accounts/{pk}/nfts":                    "Tokens of one owner across all collections",
			"GET /deploys":                               "Recorded deploys (supports ?status=, ?sender=, ?limit=, ?offset=)",
			"GET /deploys/{hash}":                        "Recorded deploy",
			"GET /deploys/{hash}/status":                 "Live deploy status from the node",
			"POST /deploys":                              "Submit a signed deploy (JSON)",
			"POST /deploys/status":                       "Live status of several deploys",
		},
	}

	s.sendJSON(w, http.StatusOK, info)
}

// handleHealth returns health status
// GET /health - Health check for monitoring systems
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Repository != nil {
		if err := s.deps.Repository.Ping(r.Context()); err != nil {
			slog.Error("Database ping failed", "error", err)
			s.sendError(w, "Database unhealthy", http.StatusServiceUnavailable)
			return
		}
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "casperdash",
	}
	s.sendJSON(w, http.StatusOK, health)
}

// handleMetrics returns Prometheus metrics
// GET /metrics - Prometheus scraping endpoint
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// GET /chain/state
func (s *Server) handleChainState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	root, err := s.deps.Chain.StateRootHash(ctx)
	if err != nil {
		s.sendUpstreamError(w, "Failed to read state root hash", err)
		return
	}
	block, err := s.deps.Chain.LatestBlockHash(ctx)
	if err != nil {
		s.sendUpstreamError(w, "Failed to read latest block", err)
		return
	}
	era, err := s.deps.Chain.CurrentEraID(ctx)
	if err != nil {
		s.sendUpstreamError(w, "Failed to read era", err)
		return
	}

	s.sendJSON(w, http.StatusOK, models.ChainStateResponse{
		StateRootHash: root,
		BlockHash:     block,
		EraID:         era,
		FetchedAt:     time.Now().UTC(),
	})
}

// =============================================================================
// NFT ENDPOINTS
// =============================================================================

// GET /collections
func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	if s.deps.Collections == nil {
		s.sendError(w, "No collections configured", http.StatusServiceUnavailable)
		return
	}
	collections := s.deps.Collections.Collections()
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"collections": collections,
		"total":       len(collections),
	})
}

// GET /collections/{hash}/info
func (s *Server) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.collection(w, r)
	if !ok {
		return
	}
	s.sendJSON(w, http.StatusOK, svc.ContractInfo(r.Context()))
}

// GET /collections/{hash}/tokens/{tokenID}
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.collection(w, r)
	if !ok {
		return
	}
	tokenID := chi.URLParam(r, "tokenID")

	token, err := svc.Details(r.Context(), tokenID)
	if err != nil {
		slog.Error("Failed to get token details", "token_id", tokenID, "error", err)
		s.sendUpstreamError(w, "Failed to read token", err)
		return
	}
	s.sendJSON(w, http.StatusOK, token)
}

// GET /collections/{hash}/owners/{publicKey}/tokens
func (s *Server) handleCollectionOwnerTokens(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.collection(w, r)
	if !ok {
		return
	}
	owner, ok := s.publicKey(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	tokens := svc.ByPublicKey(ctx, owner, svc.ContractInfo(ctx))
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"total":  len(tokens),
	})
}

// GET /accounts/{publicKey}/nfts
func (s *Server) handleAccountNFTs(w http.ResponseWriter, r *http.Request) {
	if s.deps.Collections == nil {
		s.sendError(w, "No collections configured", http.StatusServiceUnavailable)
		return
	}
	owner, ok := s.publicKey(w, r)
	if !ok {
		return
	}

	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"owner":       owner.String(),
		"collections": s.deps.Collections.OwnerTokens(r.Context(), owner),
	})
}

// =============================================================================
// DEPLOY ENDPOINTS
// =============================================================================

// GET /deploys?status=success&sender=01ab...&limit=50&offset=0
func (s *Server) handleListDeploys(w http.ResponseWriter, r *http.Request) {
	if s.deps.Repository == nil {
		s.sendError(w, "No database configured", http.StatusServiceUnavailable)
		return
	}
	query := r.URL.Query()

	filter := storage.DeployFilter{
		Status: models.DeployStatus(query.Get("status")),
		Sender: query.Get("sender"),
		Limit:  50,
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			filter.Limit = parsed
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			filter.Offset = parsed
		}
	}

	records, err := s.deps.Repository.ListDeploys(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to list deploys", "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.DeployRecord{}
	}

	s.sendJSON(w, http.StatusOK, models.DeployListResponse{
		Deploys: records,
		Count:   len(records),
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

// GET /deploys/{hash}
func (s *Server) handleGetDeploy(w http.ResponseWriter, r *http.Request) {
	if s.deps.Repository == nil {
		s.sendError(w, "No database configured", http.StatusServiceUnavailable)
		return
	}
	hash := chi.URLParam(r, "hash")

	rec, err := s.deps.Repository.GetDeploy(r.Context(), hash)
	if errors.Is(err, storage.ErrNotFound) {
		s.sendError(w, "Deploy not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to get deploy", "deploy_hash", hash, "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, http.StatusOK, BuildDeployView(rec))
}

// GET /deploys/{hash}/status
func (s *Server) handleDeployStatus(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	s.sendJSON(w, http.StatusOK, s.deps.Chain.DeploysStatus(r.Context(), []string{hash})[0])
}

// POST /deploys/status {"hashes": [...]}
func (s *Server) handleDeploysStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hashes []string `json:"hashes"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxDeployBody)).Decode(&req); err != nil {
		s.sendError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Hashes) == 0 || len(req.Hashes) > 100 {
		s.sendError(w, "Between 1 and 100 hashes required", http.StatusBadRequest)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"deploys": s.deps.Chain.DeploysStatus(r.Context(), req.Hashes),
	})
}

// POST /deploys - body is a deploy signed by a wallet, in node JSON form
func (s *Server) handlePutDeploy(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDeployBody))
	if err != nil || !json.Valid(body) {
		s.sendError(w, "Invalid deploy JSON", http.StatusBadRequest)
		return
	}

	hash, err := s.deps.Chain.PutDeploy(r.Context(), body)
	if err != nil {
		s.sendUpstreamError(w, "Node rejected the deploy", err)
		return
	}
	s.sendJSON(w, http.StatusAccepted, models.PutDeployResponse{DeployHash: hash})
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (*nft.Service, bool) {
	if s.deps.Collections == nil {
		s.sendError(w, "No collections configured", http.StatusServiceUnavailable)
		return nil, false
	}
	svc, ok := s.deps.Collections.Get(chi.URLParam(r, "hash"))
	if !ok {
		s.sendError(w, "Collection not found", http.StatusNotFound)
		return nil, false
	}
	return svc, true
}

func (s *Server) publicKey(w http.ResponseWriter, r *http.Request) (types.PublicKey, bool) {
	pk, err := types.ParsePublicKey(chi.URLParam(r, "publicKey"))
	if err != nil {
		s.sendError(w, "Invalid public key", http.StatusBadRequest)
		return types.PublicKey{}, false
	}
	return pk, true
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func (s *Server) sendUpstreamError(w http.ResponseWriter, message string, err error) {
	slog.Error(message, "error", err)
	s.sendError(w, message+": "+err.Error(), http.StatusBadGateway)
}

// sendError sends a JSON error response
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	s.sendJSON(w, code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

package deployer

import (
	"casperdash/internal/casper/rpc"
)

// Status is the result of a single deploy status query
type Status int

const (
	// StatusPending means the node knows no execution result yet
	StatusPending Status = iota
	// StatusIndeterminate means the status query itself failed
	StatusIndeterminate
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusIndeterminate:
		return "indeterminate"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	}
	return "unknown"
}

// Terminal reports whether polling can stop
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Poll is one observation of a deploy
type Poll struct {
	DeployHash string
	Status     Status
	Message    string            // failure message when Status is StatusFailure
	Result     *rpc.DeployResult // set unless Status is StatusIndeterminate
	Err        error             // query error when Status is StatusIndeterminate
}

func classify(hash string, res *rpc.DeployResult) Poll {
	p := Poll{DeployHash: hash, Status: StatusPending, Result: res}
	if len(res.ExecutionResults) == 0 {
		return p
	}
	exec := res.ExecutionResults[0].Result
	switch {
	case exec.Success != nil:
		p.Status = StatusSuccess
	case exec.Failure != nil:
		p.Status = StatusFailure
		p.Message = exec.Failure.ErrorMessage
	}
	return p
}

package deployer

import "errors"

var (
	ErrTimeout     = errors.New("timed out waiting for deploy execution")
	ErrNoSimulator = errors.New("no speculative execution node configured")
)

// SimulationError is returned when speculative execution reports a failure.
// The deploy was never broadcast.
type SimulationError struct {
	Message string
}

func (e *SimulationError) Error() string {
	return e.Message
}

// ExecutionError is returned when a broadcast deploy finalized with a failure.
// The deploy stays on chain as failed.
type ExecutionError struct {
	DeployHash string
	Message    string
}

func (e *ExecutionError) Error() string {
	return "Contract execution: " + e.Message
}

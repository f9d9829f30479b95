// Package deployer sends deploys to a Casper node: speculative execution,
// broadcast and polling until an execution result is known.
package deployer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"casperdash/internal/casper/rpc"
	"casperdash/internal/casper/types"
	"casperdash/internal/metrics"
	"casperdash/internal/models"
	"casperdash/internal/retry"
)

// Node is the primary node used to broadcast and query deploys
type Node interface {
	PutDeploy(ctx context.Context, deploy any) (string, error)
	GetDeploy(ctx context.Context, deployHash string) (*rpc.DeployResult, error)
}

// Simulator dry-runs deploys without committing them
type Simulator interface {
	SpeculativeExec(ctx context.Context, deploy any) (*rpc.SpeculativeExecResult, error)
}

// Recorder persists deploy lifecycle transitions
type Recorder interface {
	SaveDeploy(ctx context.Context, record *models.DeployRecord) error
	UpdateDeployStatus(ctx context.Context, outcome models.DeployOutcome) error
}

// Receipt is the outcome of sending a deploy
type Receipt struct {
	DeployHash string
	Result     *rpc.DeployResult // nil when not waited for
}

// Deployer runs the deploy lifecycle. It holds no per-deploy state and is
// safe for concurrent use.
type Deployer struct {
	node      Node
	simulator Simulator
	recorder  Recorder

	pollInterval time.Duration
	pollAttempts int
	strategy     retry.Strategy
}

type Option func(*Deployer)

func WithPollInterval(d time.Duration) Option {
	return func(dp *Deployer) { dp.pollInterval = d }
}

func WithPollAttempts(n int) Option {
	return func(dp *Deployer) { dp.pollAttempts = n }
}

// WithStrategy replaces the fixed-interval poll strategy
func WithStrategy(s retry.Strategy) Option {
	return func(dp *Deployer) { dp.strategy = s }
}

// WithRecorder stores every lifecycle transition
func WithRecorder(r Recorder) Option {
	return func(dp *Deployer) { dp.recorder = r }
}

// New creates a Deployer. simulator may be nil, in which case SafeSend fails
// with ErrNoSimulator.
func New(node Node, simulator Simulator, opts ...Option) *Deployer {
	d := &Deployer{
		node:         node,
		simulator:    simulator,
		pollInterval: retry.DefaultInterval,
		pollAttempts: retry.DefaultAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.strategy == nil {
		d.strategy = retry.NewFixedIntervalStrategy(d.pollAttempts, d.pollInterval)
	}
	return d
}

// Simulate runs the deploy on the speculative execution node. A Failure
// result becomes a *SimulationError carrying the node's message.
func (d *Deployer) Simulate(ctx context.Context, deploy *types.Deploy) (*types.ExecutionSuccess, error) {
	if d.simulator == nil {
		return nil, ErrNoSimulator
	}
	res, err := d.simulator.SpeculativeExec(ctx, deploy)
	if err != nil {
		metrics.SimulationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to simulate deploy %s: %w", deploy.Hash, err)
	}

	exec := res.ExecutionResult
	if exec.Success != nil {
		metrics.SimulationsTotal.WithLabelValues("success").Inc()
		return exec.Success, nil
	}

	metrics.SimulationsTotal.WithLabelValues("failure").Inc()
	msg := "speculative execution returned no result"
	if exec.Failure != nil {
		msg = exec.Failure.ErrorMessage
	}
	slog.Warn("Speculative execution failed", "deploy_hash", deploy.Hash.Hex(), "error", msg)
	return nil, &SimulationError{Message: msg}
}

// Broadcast sends the deploy to the node and returns its hash
func (d *Deployer) Broadcast(ctx context.Context, deploy *types.Deploy) (string, error) {
	hash, err := d.node.PutDeploy(ctx, deploy)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("deployer").Inc()
		return "", fmt.Errorf("failed to broadcast deploy %s: %w", deploy.Hash, err)
	}
	metrics.DeploysBroadcast.Inc()
	slog.Info("Deploy broadcast", "deploy_hash", hash, "entry_point", callName(deploy))
	return hash, nil
}

// Status queries the deploy once. A query error is reported as
// StatusIndeterminate, distinct from StatusPending.
func (d *Deployer) Status(ctx context.Context, deployHash string) Poll {
	res, err := d.node.GetDeploy(ctx, deployHash)
	if err != nil {
		return Poll{DeployHash: deployHash, Status: StatusIndeterminate, Err: err}
	}
	return classify(deployHash, res)
}

// Wait polls until the deploy has an execution result. Pending and
// indeterminate polls are retried within the attempt budget.
func (d *Deployer) Wait(ctx context.Context, deployHash string) (*rpc.DeployResult, error) {
	start := time.Now()
	var (
		last     Poll
		attempts int
	)

	err := d.strategy.Execute(ctx, func(attempt int) (bool, error) {
		attempts = attempt
		p := d.Status(ctx, deployHash)
		last = p
		switch p.Status {
		case StatusSuccess:
			return true, nil
		case StatusFailure:
			return true, &ExecutionError{DeployHash: deployHash, Message: p.Message}
		case StatusIndeterminate:
			slog.Debug("Deploy status query failed", "deploy_hash", deployHash, "attempt", attempt, "error", p.Err)
			return false, p.Err
		}
		return false, nil
	})
	metrics.PollAttempts.Observe(float64(attempts))

	var execErr *ExecutionError
	switch {
	case err == nil:
		metrics.DeploysFinalized.WithLabelValues(string(models.DeploySucceeded)).Inc()
		metrics.DeployFinalityDuration.Observe(time.Since(start).Seconds())
		d.record(ctx, last, models.DeploySucceeded, "")
		slog.Info("Deploy succeeded", "deploy_hash", deployHash, "attempts", attempts)
		return last.Result, nil
	case errors.As(err, &execErr):
		metrics.DeploysFinalized.WithLabelValues(string(models.DeployFailed)).Inc()
		metrics.DeployFinalityDuration.Observe(time.Since(start).Seconds())
		d.record(ctx, last, models.DeployFailed, execErr.Message)
		slog.Error("Deploy failed", "deploy_hash", deployHash, "error", execErr.Message)
		return nil, err
	case errors.Is(err, retry.ErrExhausted):
		metrics.DeploysFinalized.WithLabelValues(string(models.DeployTimedOut)).Inc()
		d.record(ctx, Poll{DeployHash: deployHash}, models.DeployTimedOut, err.Error())
		return nil, fmt.Errorf("deploy %s: %w: %w", deployHash, ErrTimeout, err)
	default:
		return nil, fmt.Errorf("deploy %s: %w", deployHash, err)
	}
}

// SafeSend simulates the deploy and only broadcasts it when the simulation
// succeeds, then waits for its execution result.
func (d *Deployer) SafeSend(ctx context.Context, deploy *types.Deploy) (*Receipt, error) {
	if _, err := d.Simulate(ctx, deploy); err != nil {
		var simErr *SimulationError
		if errors.As(err, &simErr) {
			d.save(ctx, deploy, models.DeployRejected, simErr.Message)
		}
		return nil, err
	}
	return d.Send(ctx, deploy, true)
}

// Send broadcasts the deploy without simulation and optionally waits for it
func (d *Deployer) Send(ctx context.Context, deploy *types.Deploy, wait bool) (*Receipt, error) {
	hash, err := d.Broadcast(ctx, deploy)
	if err != nil {
		return nil, err
	}
	d.save(ctx, deploy, models.DeployPending, "")

	receipt := &Receipt{DeployHash: hash}
	if !wait {
		return receipt, nil
	}
	slog.Info("Waiting for the deploy", "deploy_hash", hash)
	res, err := d.Wait(ctx, hash)
	if err != nil {
		return nil, err
	}
	receipt.Result = res
	return receipt, nil
}

func (d *Deployer) save(ctx context.Context, deploy *types.Deploy, status models.DeployStatus, message string) {
	if d.recorder == nil {
		return
	}
	now := time.Now().UTC()
	rec := &models.DeployRecord{
		DeployHash:   deploy.Hash.Hex(),
		ChainName:    deploy.Header.ChainName,
		EntryPoint:   callName(deploy),
		Sender:       deploy.Header.Account.Hex(),
		Status:       status,
		ErrorMessage: message,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if sc := deploy.Session.StoredContractByHash; sc != nil {
		rec.ContractHash = sc.Hash.Hex()
	}
	if amount := deploy.PaymentAmount(); amount != nil {
		rec.PaymentMotes = amount.String()
	}
	if err := d.recorder.SaveDeploy(ctx, rec); err != nil {
		slog.Warn("Failed to record deploy", "deploy_hash", rec.DeployHash, "error", err)
	}
}

func (d *Deployer) record(ctx context.Context, p Poll, status models.DeployStatus, message string) {
	if d.recorder == nil {
		return
	}
	outcome := models.DeployOutcome{DeployHash: p.DeployHash, Status: status, ErrorMessage: message}
	if p.Result != nil && len(p.Result.ExecutionResults) > 0 {
		exec := p.Result.ExecutionResults[0]
		outcome.BlockHash = exec.BlockHash
		switch {
		case exec.Result.Success != nil:
			outcome.Cost = exec.Result.Success.Cost
		case exec.Result.Failure != nil:
			outcome.Cost = exec.Result.Failure.Cost
		}
	}
	if err := d.recorder.UpdateDeployStatus(ctx, outcome); err != nil {
		slog.Warn("Failed to update deploy status", "deploy_hash", p.DeployHash, "status", status, "error", err)
	}
}

func callName(deploy *types.Deploy) string {
	if ep := deploy.EntryPoint(); ep != "" {
		return ep
	}
	return "session"
}

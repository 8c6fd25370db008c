// Package dispatch reads the kernel message stream and routes each message
// to the policy engine through one worker pool with two admission paths
// (spec §4.6): a priority path for authorization decisions, which a
// waiting process blocks on and which never drops a task, and a regular
// path for the exec/mutation logging paths, which nothing upstream is
// waiting on and which sheds load under pressure instead.
package dispatch

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/lomehong/santad/internal/config"
	"github.com/lomehong/santad/internal/kernel"
	"github.com/lomehong/santad/internal/policy"
	"github.com/lomehong/santad/pkg/apperrors"
	"github.com/lomehong/santad/pkg/logger"
)

const (
	// defaultWorkers sizes the single pool shared by both admission paths:
	// decisions preempt via the priority queue, so the same worker set
	// serves both tiers instead of splitting capacity across two pools.
	defaultWorkers   = 6
	defaultQueueSize = 512

	// defaultMutationRate caps how many file-mutation log tasks per second
	// are admitted to the pool's regular queue. A storm of writes/renames
	// (e.g. an installer unpacking thousands of files) must never compete
	// with decisions for worker time; excess mutations are dropped, not
	// queued, since mutation logging is already best-effort (spec §6).
	defaultMutationRate  = 200
	defaultMutationBurst = 400
)

// Dispatcher owns the single receive loop over the kernel transport.
type Dispatcher struct {
	Transport kernel.Transport
	Engine    *policy.Engine
	Config    *config.Provider
	Log       logger.Logger

	Workers   int
	QueueSize int

	// MutationLimiter overrides the regular queue's file-mutation
	// admission rate. Nil uses the default.
	MutationLimiter *rate.Limiter

	pool *pool
	ctx  context.Context
}

// Run drains Transport.Messages() until the channel closes, a
// REQUEST_SHUTDOWN arrives, or an action outside the known routing table
// is received, desyncing the protocol. It blocks; callers typically run it
// in its own goroutine and cancel ctx to stop.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.ctx = ctx
	d.pool = newPool("dispatch", orDefault(d.Workers, defaultWorkers), orDefault(d.QueueSize, defaultQueueSize), d.Log)
	d.pool.start(ctx)
	defer d.pool.stop()

	if d.MutationLimiter == nil {
		d.MutationLimiter = rate.NewLimiter(rate.Limit(defaultMutationRate), defaultMutationBurst)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-d.Transport.Messages():
			if !ok {
				return nil
			}
			if stop, err := d.route(msg); stop {
				return err
			}
		}
	}
}

// route submits msg to the appropriate pool. The bool return reports
// whether the receive loop should stop (clean shutdown or protocol error).
func (d *Dispatcher) route(msg kernel.Message) (bool, error) {
	switch {
	case msg.Action == kernel.ActionRequestShutdown:
		d.Log.Info("received shutdown request from kernel")
		return true, nil

	case msg.Action.IsDecisionRequest():
		d.pool.submitPriority(d.ctx, func() { d.Engine.Decide(msg) })
		return false, nil

	case msg.Action == kernel.ActionNotifyExec:
		d.pool.submit(func() { d.Engine.HandleExec(msg) })
		return false, nil

	case msg.Action.IsFileMutation():
		if !d.Config.Snapshot().MatchesFileChanges(msg.Path) {
			return false, nil
		}
		if !d.MutationLimiter.Allow() {
			d.Log.Warn("mutation log rate limit exceeded, dropping", "path", msg.Path)
			return false, nil
		}
		d.pool.submit(func() { d.Engine.HandleMutation(msg) })
		return false, nil

	default:
		err := apperrors.New(apperrors.KindFatal, apperrors.ErrProtocolDesync.Code, "unknown action: "+msg.Action.String())
		d.Log.Error("unknown action on decisions channel, desyncing", "action", msg.Action.String())
		return true, err
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

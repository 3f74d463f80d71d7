package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"gitlab.com/ddpbfs.net/internal/config"
	"gitlab.com/ddpbfs.net/internal/core/ports/primary"
	"gitlab.com/ddpbfs.net/internal/core/ports/secondary"
	"gitlab.com/ddpbfs.net/internal/core/services/dispatch"
	"gitlab.com/ddpbfs.net/internal/core/services/generator"
	"gitlab.com/ddpbfs.net/internal/core/services/reaper"
	"gitlab.com/ddpbfs.net/internal/core/services/registry"
	"gitlab.com/ddpbfs.net/internal/core/services/workqueue"
	"gitlab.com/ddpbfs.net/internal/domain"
	"gitlab.com/ddpbfs.net/internal/schedulerengine"
	"gitlab.com/ddpbfs.net/internal/tcp"
	"gitlab.com/ddpbfs.net/internal/tcp/handlers"
)

// Outcome is how a coordinator run ended
type Outcome int

const (
	// OutcomeFound means a client reported the password
	OutcomeFound Outcome = iota + 1
	// OutcomeExhausted means the whole space was handed out and every client is gone
	OutcomeExhausted
	// OutcomeInterrupted means the run was cancelled by the operator
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Result summarises a finished run
type Result struct {
	Outcome   Outcome
	Password  string
	Processed int64
	Elapsed   time.Duration
}

// Coordinator owns the shared state of one brute-force session and runs the
// dispatch accept loop
type Coordinator struct {
	cfg    *config.CoordinatorCfg
	logger primary.Logger

	registry  *registry.ClientRegistry
	queue     *workqueue.WorkQueue
	found     *domain.FoundFlag
	generator *generator.Generator

	dispatchSvc  *dispatch.DispatchService
	dispatchHdl  *handlers.DispatchHandler
	dispatchSrv  *tcp.TCPServer
	heartbeatSrv *tcp.TCPServer
	reaperEngine *schedulerengine.ReaperEngine

	mu      sync.RWMutex
	started time.Time
}

// Option configures a Coordinator
type Option func(*options)

type options struct {
	mirror secondary.ClientRepository
}

// WithClientMirror mirrors registry changes to repo
func WithClientMirror(repo secondary.ClientRepository) Option {
	return func(o *options) {
		o.mirror = repo
	}
}

// New wires every component around blob. Nothing is started until Run.
func New(cfg *config.CoordinatorCfg, blob domain.VerificationBlob, logger primary.Logger, opts ...Option) *Coordinator {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var regOpts []registry.RegistryOption
	if o.mirror != nil {
		regOpts = append(regOpts, registry.WithMirror(o.mirror))
	}

	reg := registry.NewClientRegistry(cfg.InactivityThreshold, logger, regOpts...)
	queue := workqueue.New(cfg.QueueCapacity(), cfg.DrainLinger)
	found := &domain.FoundFlag{}
	dispatchSvc := dispatch.NewDispatchService(reg, queue, found, blob, cfg.PayloadSize, cfg.DrainTimeout, logger)
	reaperSvc := reaper.NewReaperService(reg, queue, logger)

	return &Coordinator{
		cfg:         cfg,
		logger:      logger,
		registry:    reg,
		queue:       queue,
		found:       found,
		generator:   generator.NewGenerator(cfg.Alphabet, cfg.MinLength, cfg.MaxLength, logger),
		dispatchSvc: dispatchSvc,
		dispatchHdl: handlers.NewDispatchHandler(dispatchSvc, logger),
		dispatchSrv: tcp.NewTCPServer("dispatch", logger, tcp.WithAddress(cfg.DispatchAddress())),
		heartbeatSrv: tcp.NewTCPServer("heartbeat", logger,
			tcp.WithAddress(cfg.HeartbeatAddress()),
			tcp.WithHandler(handlers.NewHeartbeatHandler(reg, found, logger))),
		reaperEngine: schedulerengine.NewReaperEngine(reg.Threshold(), reaperSvc, logger),
	}
}

// DispatchAddr is the bound dispatch address, available once Run has bound it
func (c *Coordinator) DispatchAddr() net.Addr {
	return c.dispatchSrv.Addr()
}

// HeartbeatAddr is the bound heartbeat address, available once Run has bound it
func (c *Coordinator) HeartbeatAddr() net.Addr {
	return c.heartbeatSrv.Addr()
}

// Bind acquires both listening ports. Run calls it when it has not been called.
func (c *Coordinator) Bind() error {
	if c.dispatchSrv.Addr() == nil {
		if err := c.dispatchSrv.Listen(); err != nil {
			return err
		}
	}
	if c.heartbeatSrv.Addr() == nil {
		if err := c.heartbeatSrv.Listen(); err != nil {
			c.dispatchSrv.Stop()
			return err
		}
	}
	return nil
}

// Run starts the generator, heartbeat listener and reaper, then serves dispatch
// until the password is found, the space is exhausted or ctx is cancelled.
// A bind failure is returned before anything is started.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	if err := c.Bind(); err != nil {
		return Result{}, fmt.Errorf("failed to bind listeners: %w", err)
	}

	c.mu.Lock()
	c.started = time.Now()
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.generator.Run(runCtx, c.queue)
	}()
	c.heartbeatSrv.Serve(runCtx)
	c.reaperEngine.Start(runCtx)

	// Unblock a pending accept as soon as the run is cancelled
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-runCtx.Done()
		c.dispatchSrv.Stop()
	}()

	outcome := c.serve(runCtx)

	cancel()
	c.dispatchSrv.Stop()
	c.heartbeatSrv.Stop()
	c.reaperEngine.Wait()
	wg.Wait()

	result := Result{
		Outcome:   outcome,
		Password:  c.found.Password(),
		Processed: c.dispatchSvc.Processed(),
		Elapsed:   time.Since(c.startedAt()),
	}
	c.logger.Info("Coordinator stopped", "outcome", outcome.String(), "processed", result.Processed, "elapsed", result.Elapsed.String())
	return result, nil
}

// serve is the dispatch accept loop
func (c *Coordinator) serve(ctx context.Context) Outcome {
	var pending *domain.WorkUnit
	for {
		if c.found.IsSet() {
			return OutcomeFound
		}
		if ctx.Err() != nil {
			return OutcomeInterrupted
		}

		if pending == nil {
			pending = c.dispatchSvc.Prepare(ctx)
		}
		// There is nothing left to send, but every client must finish or be reaped first.
		// Len is read before Exhausted: a reclaim requeues before the client disappears.
		if pending == nil && c.registry.Len() == 0 && c.dispatchSvc.Exhausted() {
			c.logger.Info("Password is not in brute-forced space")
			return OutcomeExhausted
		}

		conn, err := c.dispatchSrv.AcceptOne(c.cfg.AcceptPollInterval)
		if err != nil {
			switch {
			case errors.Is(err, tcp.ErrAcceptTimeout):
			case errors.Is(err, tcp.ErrServerStopped):
				return OutcomeInterrupted
			default:
				c.logger.Error("Failed to accept client", "error", err)
			}
			continue
		}

		// The queue may have been refilled by the reaper while waiting for the client
		if pending == nil {
			pending = c.dispatchSvc.Prepare(ctx)
		}

		c.logger.Info("A client connected", "address", conn.RemoteAddr().String())
		outcome, err := c.dispatchHdl.Exchange(ctx, conn, pending)
		c.dispatchSrv.Done(conn)
		if outcome == dispatch.OutcomeSend {
			pending = nil
		}
		if err != nil {
			c.logger.Warn("Client exchange failed", "address", conn.RemoteAddr().String(), "error", err)
			continue
		}
		c.logProgress()
	}
}

func (c *Coordinator) startedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.started
}

func (c *Coordinator) logProgress() {
	status := c.Status()
	c.logger.Info("Progress",
		"clients", status.Clients,
		"processed", status.Processed,
		"speed", fmt.Sprintf("%.2f H/sec", status.Speed),
		"queued", status.Queued)
}

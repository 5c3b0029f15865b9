package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quanmltya/repeat/internal/activation"
)

// Logger is the logging surface the pool needs. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const sinkTimeout = 5 * time.Second

// Pool runs fired actions on a fixed set of workers.
//
// Every queued run carries the pool's current generation context. HaltAll
// cancels that context and starts a new generation, so runs in flight see
// ctx.Done() and queued runs from before the halt are skipped.
type Pool struct {
	config       Config
	logger       Logger
	metrics      *Metrics
	sink         StatsSink
	interpreters map[string]Interpreter

	jobs chan job
	wg   sync.WaitGroup

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	running atomic.Int64
}

type job struct {
	ctx   context.Context
	match activation.Match
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool logger.
func WithLogger(l Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStatsSink sets where finished runs are reported.
func WithStatsSink(s StatsSink) Option {
	return func(p *Pool) {
		p.sink = s
	}
}

// WithInterpreter registers a script interpreter, replacing any previous
// one for the same language.
func WithInterpreter(i Interpreter) Option {
	return func(p *Pool) {
		p.interpreters[normalizeLanguage(i.Language())] = i
	}
}

// NewPool starts a pool. The shell interpreter is always registered.
func NewPool(config Config, opts ...Option) *Pool {
	config.Workers = max(config.Workers, 1)
	config.QueueSize = max(config.QueueSize, 0)

	p := &Pool{
		config:       config,
		logger:       slog.New(slog.DiscardHandler),
		metrics:      NewMetrics(),
		interpreters: make(map[string]Interpreter),
		jobs:         make(chan job, config.QueueSize),
	}
	sh := NewShellInterpreter()
	p.interpreters[sh.Language()] = sh
	for _, opt := range opts {
		opt(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(config.Workers)
	for range config.Workers {
		go p.worker()
	}
	return p
}

// Execute queues a fired action. It never blocks.
func (p *Pool) Execute(m activation.Match) error {
	if m.Action == nil {
		return ErrNotRunnable
	}
	if err := p.runnable(m.Action); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job{ctx: p.ctx, match: m}:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, m.Action.Name())
	}
}

func (p *Pool) runnable(a activation.Action) error {
	switch a := a.(type) {
	case Runner:
		return nil
	case Scripted:
		if _, ok := p.interpreters[normalizeLanguage(a.Language())]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLanguage, a.Language())
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrNotRunnable, a.Name())
	}
}

// HaltAll cancels every running action and skips those still queued.
func (p *Pool) HaltAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.cancel()
	p.ctx, p.cancel = context.WithCancel(context.Background())
}

// Running returns the number of actions currently running.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Metrics returns the pool's collector.
func (p *Pool) Metrics() *Metrics {
	return p.metrics
}

// Close cancels running actions, drops queued ones and waits for the
// workers to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		if j.ctx.Err() != nil {
			p.metrics.Record(j.match.Action.ID(), j.match.Action.Name(), 0, OutcomeSkipped)
			continue
		}
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	ctx := j.ctx
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	a := j.match.Action
	p.running.Add(1)
	start := time.Now()
	err := p.invoke(ctx, j.match)
	elapsed := time.Since(start)
	p.running.Add(-1)

	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrPanic):
		outcome = OutcomePanicked
		p.logger.Error("action panicked", "action", a.Name(), "error", err)
	case errors.Is(err, context.Canceled):
		outcome = OutcomeCancelled
		p.logger.Debug("action cancelled", "action", a.Name())
	default:
		outcome = OutcomeFailed
		p.logger.Error("action failed", "action", a.Name(), "error", err)
	}
	p.metrics.Record(a.ID(), a.Name(), elapsed, outcome)

	if p.sink == nil {
		return
	}
	inv := Invocation{
		ActionID: a.ID(),
		Name:     a.Name(),
		Trigger:  j.match.Trigger.String(),
		Started:  start,
		Duration: elapsed,
		Outcome:  outcome,
		Err:      err,
	}
	if ts, ok := a.(TimeSaver); ok && outcome == OutcomeSuccess {
		inv.TimeSaved = ts.TimeSaved()
	}
	sinkCtx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := p.sink.RecordInvocation(sinkCtx, inv); err != nil {
		p.logger.Warn("failed to record invocation", "action", a.Name(), "error", err)
	}
}

func (p *Pool) invoke(ctx context.Context, m activation.Match) (err error) {
	if p.config.RecoverFromPanic {
		defer func() {
			if r := recover(); r != nil {
				stack := make([]byte, 4096)
				n := runtime.Stack(stack, false)
				err = fmt.Errorf("%w: %s: %v\n%s", ErrPanic, m.Action.Name(), r, stack[:n])
			}
		}()
	}

	switch a := m.Action.(type) {
	case Runner:
		return a.Run(ctx, m)
	case Scripted:
		interp, ok := p.interpreters[normalizeLanguage(a.Language())]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLanguage, a.Language())
		}
		return interp.Run(ctx, a.Script(), m)
	default:
		return ErrNotRunnable
	}
}

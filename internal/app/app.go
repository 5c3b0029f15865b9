package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/config"
	"github.com/quanmltya/repeat/internal/dispatcher"
	"github.com/quanmltya/repeat/internal/executor"
	"github.com/quanmltya/repeat/internal/hook"
	"github.com/quanmltya/repeat/internal/recorder"
	"github.com/quanmltya/repeat/internal/store"
	"github.com/quanmltya/repeat/internal/taskgroup"
)

// shutdownTimeout bounds how long Close waits for a replay to wind down.
const shutdownTimeout = 2 * time.Second

// Application owns the single dispatcher instance and everything hung off
// it: the worker pool that runs fired actions, the recorder, the task
// group manager and the optional store.
type Application struct {
	mu  sync.RWMutex
	cfg *config.Config

	logger     *Logger
	dispatcher *dispatcher.Dispatcher
	pool       *executor.Pool
	recorder   *recorder.Recorder
	tasks      *taskgroup.Manager
	store      *store.Store

	builtins *builtins

	ctx       context.Context
	cancel    context.CancelFunc
	unobserve func()

	running   atomic.Bool
	closeOnce sync.Once
}

// Options configures the application.
type Options struct {
	// Logger receives every component's log output. Defaults to NullLogger.
	Logger *Logger

	// Store persists statistics and recorded sessions. The application
	// takes ownership and closes it in Close. May be nil.
	Store *store.Store

	// Emitters receive replayed events in addition to the dispatcher.
	Emitters []hook.Emitter

	// Interpreters are registered with the worker pool next to the
	// built-in shell and Lua interpreters.
	Interpreters []executor.Interpreter
}

// New builds an application from a validated configuration.
func New(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewComponentError("config", "validate", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = NullLogger
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		cfg:    cfg.Clone(),
		logger: logger,
		store:  opts.Store,
		ctx:    ctx,
		cancel: cancel,
	}

	app.pool = executor.NewPool(executorConfig(cfg), app.poolOptions(opts)...)

	halter := &halter{pool: app.pool}
	app.dispatcher = dispatcher.New(dispatcherConfig(cfg), halter)
	app.dispatcher.SetLogger(logger.WithComponent("dispatcher"))

	var emitter recorder.Emitter = hook.SinkEmitter{Sink: app.dispatcher}
	if len(opts.Emitters) > 0 {
		multi := hook.MultiEmitter{emitter}
		multi = append(multi, opts.Emitters...)
		emitter = multi
	}
	app.recorder = recorder.New(emitter, recorder.WithLogger(logger.WithComponent("recorder")))
	if err := app.recorder.SetSpeedup(cfg.Replay.Speedup); err != nil {
		app.abort()
		return nil, NewComponentError("recorder", "set speedup", err)
	}
	halter.recorder = app.recorder

	app.tasks = taskgroup.NewManager(app.dispatcher, logger.WithComponent("tasks"))

	app.builtins = newBuiltins(app)
	if err := app.builtins.bind(cfg); err != nil {
		app.abort()
		return nil, NewComponentError("dispatcher", "bind built-in hotkeys", err)
	}
	app.unobserve = app.dispatcher.Observe(dispatcher.ObserverFunc(app.observe))

	logger.Info("application ready",
		"record", cfg.Hotkeys.Record,
		"replay", cfg.Hotkeys.Replay,
		"halt", cfg.HaltCode().String(),
		"execute_on_release", cfg.Trigger.ExecuteOnRelease,
	)
	return app, nil
}

func (app *Application) poolOptions(opts Options) []executor.Option {
	out := []executor.Option{
		executor.WithLogger(app.logger.WithComponent("executor")),
		executor.WithInterpreter(executor.NewLuaInterpreter(app.logger.WithComponent("lua"))),
	}
	for _, i := range opts.Interpreters {
		out = append(out, executor.WithInterpreter(i))
	}
	if app.store != nil {
		out = append(out, executor.WithStatsSink(app.store))
	}
	return out
}

// abort releases what New built before failing.
func (app *Application) abort() {
	app.cancel()
	if app.dispatcher != nil {
		app.dispatcher.Close()
	}
	app.pool.Close()
}

func dispatcherConfig(cfg *config.Config) dispatcher.Config {
	return dispatcher.DefaultConfig().
		WithExecuteOnRelease(cfg.Trigger.ExecuteOnRelease).
		WithHaltKey(cfg.HaltCode())
}

func executorConfig(cfg *config.Config) executor.Config {
	return executor.DefaultConfig().
		WithWorkers(cfg.Executor.Workers).
		WithQueueSize(cfg.Executor.QueueSize).
		WithTimeout(cfg.Executor.Timeout.Duration)
}

// Config returns a copy of the configuration in effect.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.cfg.Clone()
}

// Dispatcher returns the application's dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher { return app.dispatcher }

// Recorder returns the application's recorder.
func (app *Application) Recorder() *recorder.Recorder { return app.recorder }

// Tasks returns the task group manager.
func (app *Application) Tasks() *taskgroup.Manager { return app.tasks }

// Pool returns the worker pool running fired actions.
func (app *Application) Pool() *executor.Pool { return app.pool }

// Store returns the store, or nil.
func (app *Application) Store() *store.Store { return app.store }

// Logger returns the application logger.
func (app *Application) Logger() *Logger { return app.logger }

// Register binds a single action.
func (app *Application) Register(a activation.Action) error {
	return app.dispatcher.Register(a)
}

// LoadTasks reads a task group file and registers every enabled task.
// Collisions do not stop the load; each group's failures come back as a
// *dispatcher.BatchError, joined once every group has been tried.
func (app *Application) LoadTasks(path string) error {
	groups, err := taskgroup.LoadFile(path)
	if err != nil {
		return NewOperationError("load tasks", path, err)
	}
	err = app.tasks.AddAll(groups)
	app.logger.Info("tasks loaded", "path", path, "groups", len(groups))
	return err
}

// Run feeds events from src into the dispatcher until ctx is done or the
// source ends. Only one source may run at a time.
func (app *Application) Run(ctx context.Context, src hook.Source) error {
	if app.ctx.Err() != nil {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	app.logger.Info("source started", "source", src.Name())
	err := src.Run(ctx, app.dispatcher)
	app.logger.Info("source stopped", "source", src.Name())
	if err != nil && !errors.Is(err, context.Canceled) {
		return NewComponentError("source", src.Name(), err)
	}
	return nil
}

// Watch applies every configuration the watcher publishes until ctx is
// done.
func (app *Application) Watch(ctx context.Context, w *config.Watcher) error {
	unsubscribe := w.Subscribe(func(c *config.Config) {
		if err := app.ApplyConfig(c); err != nil {
			app.logger.Warn("config not applied", "error", err)
			return
		}
		app.logger.Info("config reloaded")
	})
	defer unsubscribe()
	return w.Run(ctx)
}

// ApplyConfig switches the live settings to cfg: evaluation phase, halt
// key, replay speed and defaults, the built-in hotkeys and the log level.
// Pool sizing and the store location only take effect on restart.
func (app *Application) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := app.builtins.rebind(cfg); err != nil {
		return fmt.Errorf("rebind built-in hotkeys: %w", err)
	}
	if err := app.recorder.SetSpeedup(cfg.Replay.Speedup); err != nil {
		return err
	}
	app.dispatcher.SetExecuteOnRelease(cfg.Trigger.ExecuteOnRelease)
	app.dispatcher.SetHaltKey(cfg.HaltCode())
	app.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))

	app.mu.Lock()
	app.cfg = cfg.Clone()
	app.mu.Unlock()
	return nil
}

// Close stops any replay, saves an unfinished recording, and releases the
// pool and the store. It is safe to call more than once.
func (app *Application) Close() error {
	var err error
	app.closeOnce.Do(func() {
		app.recorder.StopReplay()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if werr := app.recorder.Wait(ctx); werr != nil {
			app.logger.Warn("replay did not stop in time", "error", werr)
		}
		if s := app.recorder.StopRecord(); s != nil {
			app.saveSession(ctx, s)
		}

		app.cancel()
		if app.unobserve != nil {
			app.unobserve()
		}
		app.dispatcher.Close()
		app.pool.Close()

		if app.store != nil {
			if cerr := app.store.Close(); cerr != nil {
				err = NewComponentError("store", "close", cerr)
			}
		}
		app.logger.Info("application closed")
	})
	return err
}

// halter is the dispatcher's executor. Halting stops running actions and
// any replay in progress.
type halter struct {
	pool     *executor.Pool
	recorder *recorder.Recorder
}

func (h *halter) Execute(m activation.Match) error {
	return h.pool.Execute(m)
}

func (h *halter) HaltAll() {
	h.pool.HaltAll()
	if h.recorder != nil {
		h.recorder.StopReplay()
	}
}

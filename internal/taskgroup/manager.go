package taskgroup

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/quanmltya/repeat/internal/activation"
	"github.com/quanmltya/repeat/internal/dispatcher"
)

// Logger is the logging surface the manager needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Registrar is the subset of *dispatcher.Dispatcher the manager drives.
type Registrar interface {
	Register(a activation.Action) error
	UnregisterID(id string) bool
	Collisions(act activation.Activation, exclude ...string) []activation.Action
	Rebind(a activation.Rebindable, act activation.Activation) error
}

// Manager owns the task groups and keeps the registrar in step with them:
// a task is registered exactly when it and its group are enabled.
type Manager struct {
	mu     sync.Mutex
	reg    Registrar
	groups []*Group
	byTask map[string]*Group
	bound  map[string]bool
	logger Logger
}

// NewManager creates an empty manager.
func NewManager(reg Registrar, logger Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		reg:    reg,
		byTask: make(map[string]*Group),
		bound:  make(map[string]bool),
		logger: logger,
	}
}

// AddPopulated adds a group and registers its enabled tasks. Registration
// continues past failures; they are returned together as a
// *dispatcher.BatchError. The group is kept either way, and tasks that
// failed to register stay unbound until re-enabled.
func (m *Manager) AddPopulated(g *Group) error {
	if g == nil {
		return fmt.Errorf("%w: nil group", ErrInvalidFile)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, other := range m.groups {
		if other.Name == g.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateGroup, g.Name)
		}
	}
	for _, t := range g.Tasks {
		if _, ok := m.byTask[t.id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, t.id)
		}
	}

	m.groups = append(m.groups, g)
	for _, t := range g.Tasks {
		m.byTask[t.id] = g
	}
	if !g.Enabled {
		m.logger.Info("added disabled task group", "group", g.Name, "tasks", len(g.Tasks))
		return nil
	}
	err := m.bindLocked(g)
	m.logger.Info("added task group", "group", g.Name, "tasks", len(g.Tasks))
	return err
}

// AddAll adds several groups, joining their errors.
func (m *Manager) AddAll(groups []*Group) error {
	var errs []error
	for _, g := range groups {
		if err := m.AddPopulated(g); err != nil {
			errs = append(errs, fmt.Errorf("group %q: %w", g.Name, err))
		}
	}
	return errors.Join(errs...)
}

// bindLocked registers the group's enabled tasks. Failures do not stop
// the batch.
func (m *Manager) bindLocked(g *Group) error {
	var (
		total    int
		failures []error
	)
	for _, t := range g.Tasks {
		if !t.Enabled() || m.bound[t.id] {
			continue
		}
		total++
		if err := m.reg.Register(t); err != nil {
			m.logger.Warn("task not bound", "group", g.Name, "task", t.name, "error", err)
			failures = append(failures, err)
			continue
		}
		m.bound[t.id] = true
	}
	if len(failures) == 0 {
		return nil
	}
	return &dispatcher.BatchError{Total: total, Failures: failures}
}

func (m *Manager) unbindLocked(g *Group) {
	for _, t := range g.Tasks {
		if m.bound[t.id] {
			m.reg.UnregisterID(t.id)
			delete(m.bound, t.id)
		}
	}
}

// Remove unregisters a group's tasks and forgets the group.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, g := range m.groups {
		if g.Name != name {
			continue
		}
		m.unbindLocked(g)
		for _, t := range g.Tasks {
			delete(m.byTask, t.id)
		}
		m.groups = append(m.groups[:i], m.groups[i+1:]...)
		m.logger.Info("removed task group", "group", name)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
}

// SetGroupEnabled enables or disables a whole group. Enabling has batch
// semantics like AddPopulated.
func (m *Manager) SetGroupEnabled(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.groupLocked(name)
	if g == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	if g.Enabled == enabled {
		return nil
	}
	g.Enabled = enabled
	if !enabled {
		m.unbindLocked(g)
		return nil
	}
	return m.bindLocked(g)
}

// SetTaskEnabled enables or disables one task. Enabling checks the task's
// activation against every registered action first and refuses with a
// *dispatcher.CollisionError on conflict, leaving the task disabled.
// Disabling unregisters the task.
func (m *Manager) SetTaskEnabled(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, g, err := m.taskLocked(id)
	if err != nil {
		return err
	}
	if !enabled {
		t.setEnabled(false)
		if m.bound[id] {
			m.reg.UnregisterID(id)
			delete(m.bound, id)
		}
		return nil
	}

	if cols := m.reg.Collisions(t.Activation(), id); len(cols) > 0 {
		return &dispatcher.CollisionError{Action: t, Collisions: cols}
	}
	t.setEnabled(true)
	if !g.Enabled || m.bound[id] {
		return nil
	}
	if err := m.reg.Register(t); err != nil {
		t.setEnabled(false)
		return err
	}
	m.bound[id] = true
	return nil
}

// Rebind replaces a task's activation. A bound task is rebound through the
// registrar, which refuses colliding activations; an unbound task takes
// the new activation directly and is checked when it is next enabled.
func (m *Manager) Rebind(id string, act activation.Activation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, _, err := m.taskLocked(id)
	if err != nil {
		return err
	}
	return m.rebindLocked(t, act)
}

func (m *Manager) rebindLocked(t *Task, act activation.Activation) error {
	if m.bound[t.id] {
		return m.reg.Rebind(t, act)
	}
	t.SetActivation(act)
	return nil
}

// ClearHotkeys removes every chord from a task, keeping its phrases.
func (m *Manager) ClearHotkeys(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, _, err := m.taskLocked(id)
	if err != nil {
		return err
	}
	return m.rebindLocked(t, t.Activation().WithoutChains())
}

// AddTask appends t to the named group. An enabled task in an enabled
// group is registered first; if the registrar refuses it the group is
// left unchanged.
func (m *Manager) AddTask(group string, t *Task) error {
	if t == nil {
		return fmt.Errorf("%w: nil task", ErrInvalidFile)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.groupLocked(group)
	if g == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, group)
	}
	if _, ok := m.byTask[t.id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, t.id)
	}
	if g.Enabled && t.Enabled() {
		if err := m.reg.Register(t); err != nil {
			return err
		}
		m.bound[t.id] = true
	}
	g.Tasks = append(g.Tasks, t)
	m.byTask[t.id] = g
	m.logger.Info("added task", "group", g.Name, "task", t.name, "bound", m.bound[t.id])
	return nil
}

// RemoveTask unregisters a task and drops it from its group.
func (m *Manager) RemoveTask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, g, err := m.taskLocked(id)
	if err != nil {
		return err
	}
	if m.bound[id] {
		m.reg.UnregisterID(id)
		delete(m.bound, id)
	}
	g.Tasks = slices.DeleteFunc(g.Tasks, func(t *Task) bool { return t.id == id })
	delete(m.byTask, id)
	m.logger.Info("removed task", "group", g.Name, "task", id)
	return nil
}

// MoveTask shifts a task delta places within its group, stopping at either
// end, and returns its new index.
func (m *Manager) MoveTask(id string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, g, err := m.taskLocked(id)
	if err != nil {
		return 0, err
	}
	from := slices.Index(g.Tasks, t)
	to := min(max(from+delta, 0), len(g.Tasks)-1)
	g.Tasks = slices.Insert(slices.Delete(g.Tasks, from, from+1), to, t)
	return to, nil
}

// MoveTaskToGroup appends a task to another group. Both groups must share
// the same enabled state, so the task's binding is unchanged. Moving a
// task to its own group does nothing.
func (m *Manager) MoveTaskToGroup(id, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, from, err := m.taskLocked(id)
	if err != nil {
		return err
	}
	to := m.groupLocked(group)
	if to == nil {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, group)
	}
	if to == from {
		return nil
	}
	if to.Enabled != from.Enabled {
		return fmt.Errorf("%w: %s to %s", ErrGroupMismatch, from.Name, to.Name)
	}
	from.Tasks = slices.DeleteFunc(from.Tasks, func(x *Task) bool { return x == t })
	to.Tasks = append(to.Tasks, t)
	m.byTask[id] = to
	m.logger.Debug("moved task", "task", t.name, "from", from.Name, "to", to.Name)
	return nil
}

// OverrideTask replaces a task's name, language, script and time saved
// with those of body, keeping its ID, activation, enabled state and place
// in the group. The replacement task is returned.
func (m *Manager) OverrideTask(id string, body *Task) (*Task, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: nil task", ErrInvalidFile)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, g, err := m.taskLocked(id)
	if err != nil {
		return nil, err
	}
	t := newTask(old.id, body.name, body.language, body.script, old.Activation(), old.Enabled())
	t.timeSaved = body.timeSaved

	if m.bound[id] {
		m.reg.UnregisterID(id)
		if err := m.reg.Register(t); err != nil {
			if rerr := m.reg.Register(old); rerr != nil {
				delete(m.bound, id)
				m.logger.Error("task lost its binding", "task", old.name, "error", rerr)
			}
			return nil, err
		}
	}
	g.Tasks[slices.Index(g.Tasks, old)] = t
	m.logger.Info("overrode task", "group", g.Name, "task", t.name)
	return t, nil
}

// Groups returns the groups in insertion order.
func (m *Manager) Groups() []*Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Group, len(m.groups))
	copy(out, m.groups)
	return out
}

// Group returns the group with the given name.
func (m *Manager) Group(name string) (*Group, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.groupLocked(name)
	return g, g != nil
}

// Task returns the task with the given ID and its group.
func (m *Manager) Task(id string) (*Task, *Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.taskLocked(id)
}

// IsBound reports whether the task is currently registered.
func (m *Manager) IsBound(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bound[id]
}

func (m *Manager) groupLocked(name string) *Group {
	for _, g := range m.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (m *Manager) taskLocked(id string) (*Task, *Group, error) {
	g, ok := m.byTask[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t, _ := g.Task(id)
	return t, g, nil
}

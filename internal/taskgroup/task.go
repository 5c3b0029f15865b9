package taskgroup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/quanmltya/repeat/internal/activation"
)

// Task is a user-defined action: a script body in a named language bound
// to an activation.
type Task struct {
	id        string
	name      string
	language  string
	script    string
	timeSaved time.Duration

	mu         sync.RWMutex
	activation activation.Activation
	enabled    atomic.Bool
}

// NewTask creates an enabled task with a fresh ID.
func NewTask(name, language, script string, a activation.Activation) *Task {
	return newTask(uuid.NewString(), name, language, script, a, true)
}

func newTask(id, name, language, script string, a activation.Activation, enabled bool) *Task {
	t := &Task{
		id:         id,
		name:       name,
		language:   language,
		script:     script,
		activation: a.Clone(),
	}
	t.enabled.Store(enabled)
	return t
}

// ID implements activation.Action.
func (t *Task) ID() string { return t.id }

// Name implements activation.Action.
func (t *Task) Name() string { return t.name }

// Activation implements activation.Action.
func (t *Task) Activation() activation.Activation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activation
}

// SetActivation implements activation.Rebindable.
func (t *Task) SetActivation(a activation.Activation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activation = a.Clone()
}

// Enabled implements activation.Action.
func (t *Task) Enabled() bool { return t.enabled.Load() }

func (t *Task) setEnabled(v bool) { t.enabled.Store(v) }

// Language is the script language, for example "shell" or "lua".
func (t *Task) Language() string { return t.language }

// Script is the task body.
func (t *Task) Script() string { return t.script }

// TimeSaved is the manual effort one run replaces.
func (t *Task) TimeSaved() time.Duration { return t.timeSaved }

// WithTimeSaved sets the time-saved estimate and returns t.
func (t *Task) WithTimeSaved(d time.Duration) *Task {
	t.timeSaved = d
	return t
}

// String returns "name [activation]".
func (t *Task) String() string {
	return t.name + " " + t.Activation().String()
}

// Group is a named set of tasks that are enabled and disabled together.
type Group struct {
	Name    string
	Enabled bool
	Tasks   []*Task
}

// NewGroup creates an enabled group.
func NewGroup(name string, tasks ...*Task) *Group {
	return &Group{Name: name, Enabled: true, Tasks: tasks}
}

// Task returns the task with the given ID.
func (g *Group) Task(id string) (*Task, bool) {
	for _, t := range g.Tasks {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

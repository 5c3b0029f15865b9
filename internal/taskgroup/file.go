package taskgroup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/quanmltya/repeat/internal/activation"
)

// fileFormat is the on-disk layout of a task group file.
type fileFormat struct {
	Groups []groupDef `yaml:"groups"`
}

type groupDef struct {
	Name    string    `yaml:"name"`
	Enabled *bool     `yaml:"enabled,omitempty"`
	Tasks   []taskDef `yaml:"tasks"`
}

type taskDef struct {
	ID        string   `yaml:"id,omitempty"`
	Name      string   `yaml:"name"`
	Enabled   *bool    `yaml:"enabled,omitempty"`
	Hotkeys   []string `yaml:"hotkeys,omitempty"`
	Phrases   []string `yaml:"phrases,omitempty"`
	Language  string   `yaml:"language,omitempty"`
	Script    string   `yaml:"script"`
	TimeSaved string   `yaml:"time_saved,omitempty"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Parse decodes task groups from YAML. Tasks without an ID get a fresh
// one; groups and tasks default to enabled. Every malformed task is
// reported.
func Parse(data []byte) ([]*Group, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	var errs []error
	groups := make([]*Group, 0, len(f.Groups))
	seenGroups := make(map[string]bool)
	seenTasks := make(map[string]bool)

	for gi, gd := range f.Groups {
		name := strings.TrimSpace(gd.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("group %d: missing name", gi))
			continue
		}
		if seenGroups[name] {
			errs = append(errs, fmt.Errorf("group %q: %w", name, ErrDuplicateGroup))
			continue
		}
		seenGroups[name] = true

		g := &Group{Name: name, Enabled: boolOr(gd.Enabled, true)}
		for ti, td := range gd.Tasks {
			t, err := td.build()
			if err != nil {
				errs = append(errs, fmt.Errorf("group %q task %d: %w", name, ti, err))
				continue
			}
			if seenTasks[t.id] {
				errs = append(errs, fmt.Errorf("group %q task %d: %w: %s", name, ti, ErrDuplicateTask, t.id))
				continue
			}
			seenTasks[t.id] = true
			g.Tasks = append(g.Tasks, t)
		}
		groups = append(groups, g)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, errors.Join(errs...))
	}
	return groups, nil
}

func (td taskDef) build() (*Task, error) {
	if strings.TrimSpace(td.Name) == "" {
		return nil, errors.New("missing name")
	}
	if strings.TrimSpace(td.Script) == "" {
		return nil, errors.New("missing script")
	}
	act, err := activation.Parse(td.Hotkeys, td.Phrases)
	if err != nil {
		return nil, err
	}
	var saved time.Duration
	if td.TimeSaved != "" {
		saved, err = time.ParseDuration(td.TimeSaved)
		if err != nil || saved < 0 {
			return nil, fmt.Errorf("invalid time_saved %q", td.TimeSaved)
		}
	}
	id := td.ID
	if id == "" {
		id = uuid.NewString()
	}
	lang := td.Language
	if lang == "" {
		lang = "shell"
	}
	t := newTask(id, td.Name, lang, td.Script, act, boolOr(td.Enabled, true))
	t.timeSaved = saved
	return t, nil
}

// Marshal encodes groups in the format Parse reads.
func Marshal(groups []*Group) ([]byte, error) {
	f := fileFormat{Groups: make([]groupDef, 0, len(groups))}
	for _, g := range groups {
		enabled := g.Enabled
		gd := groupDef{Name: g.Name, Enabled: &enabled}
		for _, t := range g.Tasks {
			hotkeys, phrases := t.Activation().Spec()
			te := t.Enabled()
			td := taskDef{
				ID:       t.id,
				Name:     t.name,
				Enabled:  &te,
				Hotkeys:  hotkeys,
				Phrases:  phrases,
				Language: t.language,
				Script:   t.script,
			}
			if t.timeSaved > 0 {
				td.TimeSaved = t.timeSaved.String()
			}
			gd.Tasks = append(gd.Tasks, td)
		}
		f.Groups = append(f.Groups, gd)
	}
	return yaml.Marshal(&f)
}

// LoadFile reads task groups from a YAML file.
func LoadFile(path string) ([]*Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	return Parse(data)
}

// SaveFile writes task groups to path atomically.
func SaveFile(path string, groups []*Group) error {
	data, err := Marshal(groups)
	if err != nil {
		return fmt.Errorf("failed to marshal task groups: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

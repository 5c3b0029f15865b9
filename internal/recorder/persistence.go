package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/quanmltya/repeat/internal/input"
	"github.com/quanmltya/repeat/internal/input/key"
	"github.com/quanmltya/repeat/internal/input/mouse"
)

const currentVersion = 1

// persistedEntry is the JSON form of one Entry. Kind selects which of the
// remaining fields apply.
type persistedEntry struct {
	Offset    int64  `json:"offset_us"`
	Kind      string `json:"kind"`
	Phase     uint8  `json:"phase,omitempty"`
	Key       uint16 `json:"key,omitempty"`
	Rune      rune   `json:"rune,omitempty"`
	Modifiers uint8  `json:"modifiers,omitempty"`
	Button    uint8  `json:"button,omitempty"`
	Action    uint8  `json:"action,omitempty"`
	X         int    `json:"x,omitempty"`
	Y         int    `json:"y,omitempty"`
}

type persistedSession struct {
	Version int              `json:"version"`
	ID      uuid.UUID        `json:"id"`
	Name    string           `json:"name,omitempty"`
	Created time.Time        `json:"created"`
	SavedAt time.Time        `json:"saved_at"`
	Entries []persistedEntry `json:"entries"`
}

func toPersistedEntry(e Entry) (persistedEntry, error) {
	p := persistedEntry{Offset: e.Offset.Microseconds()}
	switch ev := e.Event.(type) {
	case key.Event:
		p.Kind = "key"
		p.Phase = uint8(ev.Phase)
		p.Key = uint16(ev.Key)
		p.Rune = ev.Rune
		p.Modifiers = uint8(ev.Modifiers)
	case mouse.Event:
		p.Kind = "mouse"
		p.Button = uint8(ev.Button)
		p.Action = uint8(ev.Action)
		p.Modifiers = uint8(ev.Modifiers)
		p.X = ev.Position.X
		p.Y = ev.Position.Y
	default:
		return p, fmt.Errorf("recorder: cannot persist %T", e.Event)
	}
	return p, nil
}

// toEntry converts back. Timestamps are rebuilt from the session creation
// time and the offset; replay restamps them anyway.
func toEntry(p persistedEntry, created time.Time) (Entry, error) {
	offset := time.Duration(p.Offset) * time.Microsecond
	ts := created.Add(offset)
	var ev input.Event
	switch p.Kind {
	case "key":
		ev = key.Event{
			Phase:     key.Phase(p.Phase),
			Key:       key.Key(p.Key),
			Rune:      p.Rune,
			Modifiers: key.Modifier(p.Modifiers),
			Timestamp: ts,
		}
	case "mouse":
		ev = mouse.Event{
			Position:  mouse.Position{X: p.X, Y: p.Y},
			Button:    mouse.Button(p.Button),
			Modifiers: key.Modifier(p.Modifiers),
			Action:    mouse.Action(p.Action),
			Timestamp: ts,
		}
	default:
		return Entry{}, fmt.Errorf("recorder: unknown entry kind %q", p.Kind)
	}
	if err := ev.Validate(); err != nil {
		return Entry{}, err
	}
	return Entry{Offset: offset, Event: ev}, nil
}

// Export encodes a session as portable JSON.
func Export(s *Session) ([]byte, error) {
	data := persistedSession{
		Version: currentVersion,
		ID:      s.ID,
		Name:    s.Name,
		Created: s.Created,
		SavedAt: time.Now(),
		Entries: make([]persistedEntry, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		p, err := toPersistedEntry(e)
		if err != nil {
			return nil, err
		}
		data.Entries = append(data.Entries, p)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return out, nil
}

// Import decodes a session produced by Export. Malformed entries fail the
// whole import.
func Import(data []byte) (*Session, error) {
	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if p.Version > currentVersion {
		return nil, fmt.Errorf("%w: %d (max supported: %d)", ErrUnsupportedVersion, p.Version, currentVersion)
	}

	s := &Session{ID: p.ID, Name: p.Name, Created: p.Created}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Entries = make([]Entry, 0, len(p.Entries))
	for i, pe := range p.Entries {
		e, err := toEntry(pe, p.Created)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		s.Append(e.Offset, e.Event)
	}
	return s, nil
}

// SaveFile writes a session to path atomically using a temporary file and
// rename.
func SaveFile(s *Session, path string) error {
	data, err := Export(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// LoadFile reads a session written by SaveFile.
func LoadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return Import(data)
}

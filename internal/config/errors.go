package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidationFailed is wrapped by every Validate failure.
	ErrValidationFailed = errors.New("invalid configuration")

	// ErrFileNotFound is returned when an explicitly requested file is missing.
	ErrFileNotFound = errors.New("config file not found")

	// ErrUnknownSetting marks a key in the file or environment that maps to
	// no setting.
	ErrUnknownSetting = errors.New("unknown setting")
)

// ParseError reports a TOML document that could not be decoded. Line and
// Column are 1-based and zero when the decoder gave no position.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ":%d", e.Column)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

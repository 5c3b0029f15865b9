//go:build !gohook

package hook

import (
	"context"
	"fmt"
)

// Global is unavailable without the "gohook" build tag.
type Global struct{}

// NewGlobal reports ErrUnsupported. Build with -tags gohook for the
// OS-wide hook.
func NewGlobal(Logger) (*Global, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags gohook", ErrUnsupported)
}

// Name implements Source.
func (g *Global) Name() string { return "global" }

// Run implements Source.
func (g *Global) Run(context.Context, Sink) error { return ErrUnsupported }

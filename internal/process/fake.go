package process

import (
	"context"
	"sync"
)

// FakeRunner records every command and answers from a callback. It is used by
// the tests of the packages that drive external tools.
type FakeRunner struct {
	mu       sync.Mutex
	Commands []Command

	// Handler decides the outcome of each command. Nil means success.
	Handler func(cmd Command) ([]byte, error)
}

// Run records cmd and delegates to Handler.
func (f *FakeRunner) Run(_ context.Context, cmd Command) ([]byte, error) {
	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return nil, nil
	}
	return handler(cmd)
}

// Lines returns the recorded command lines in order.
func (f *FakeRunner) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		lines[i] = c.String()
	}
	return lines
}

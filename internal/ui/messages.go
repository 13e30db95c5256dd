package ui

// Message types for the TUI

// StoreChangedMsg signals that a mounted store folded in new state
// and the visible snapshot should be rebuilt.
type StoreChangedMsg struct{}

// ErrMsg carries a failed request into the status line.
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

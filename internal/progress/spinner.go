package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner animates a status line on a terminal. On anything else it stays
// silent until Stop prints the final line.
type Spinner struct {
	out     io.Writer
	symbols ProgressSymbols
	spin    *spinner.Spinner

	mu      sync.Mutex
	message string
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, caps TerminalCapabilities) *Spinner {
	s := &Spinner{out: out, symbols: SelectSymbols(caps)}
	if caps.IsTTY {
		s.spin = spinner.New(spinner.CharSets[s.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(out))
	}
	return s
}

// Start shows message next to the spinner.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.spin == nil {
		return
	}
	s.spin.Suffix = " " + message
	s.spin.Start()
}

// Update replaces the message of a running spinner.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.spin != nil {
		s.spin.Lock()
		s.spin.Suffix = " " + message
		s.spin.Unlock()
	}
}

// Stop ends the animation and prints the message with a success or failure
// marker.
func (s *Spinner) Stop(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spin != nil {
		s.spin.Stop()
	}
	if s.message == "" {
		return
	}
	symbol := s.symbols.Checkmark
	if !success {
		symbol = s.symbols.Failure
	}
	fmt.Fprintf(s.out, "%s %s\n", symbol, s.message)
	s.message = ""
}

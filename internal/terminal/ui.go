package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Colors for raw-mode output where lipgloss rendering is not used.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"
	Cyan  = "\033[36m"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	spinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
)

// Out is where status output goes. Stdout is left to the toolchain.
var Out io.Writer = os.Stderr

// Spinner provides a terminal spinner for long-running operations.
type Spinner struct {
	mu      sync.Mutex
	message string
	running bool
	done    chan struct{}
	stopped chan struct{}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			msg := s.message
			s.mu.Unlock()
			fmt.Fprintf(Out, "\r%s %s", spinStyle.Render(spinnerFrames[i%len(spinnerFrames)]), msg)

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Update changes the spinner message.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.done)
	<-s.stopped
	fmt.Fprintf(Out, "\r%s\r", strings.Repeat(" ", 80))
}

// Success prints a green success message.
func Success(msg string) {
	fmt.Fprintf(Out, "%s %s\n", successStyle.Render("✓"), msg)
}

// Error prints a red error message.
func Error(msg string) {
	fmt.Fprintf(Out, "%s %s\n", errorStyle.Render("✗"), msg)
}

// Info prints a blue info message.
func Info(msg string) {
	fmt.Fprintf(Out, "%s %s\n", infoStyle.Render("i"), msg)
}

// Warning prints a yellow warning message.
func Warning(msg string) {
	fmt.Fprintf(Out, "%s %s\n", warnStyle.Render("!"), msg)
}

// Header prints a bold header.
func Header(msg string) {
	fmt.Fprintf(Out, "\n%s\n", headerStyle.Render(msg))
}

// Detail prints an indented detail line.
func Detail(label, value string) {
	fmt.Fprintf(Out, "  %s %s\n", labelStyle.Render(label+":"), value)
}

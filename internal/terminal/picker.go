package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

// PickerOption represents an option in the interactive picker.
type PickerOption struct {
	Label string
	Desc  string
}

// Pick shows an interactive picker with arrow key navigation and returns
// the selected index, or -1 if cancelled. Esc, q and Ctrl+C cancel.
// The picker limits visible options and scrolls when the list is long.
// Without a terminal it falls back to a numbered list read from stdin.
func Pick(title string, options []PickerOption, current int) int {
	if len(options) == 0 {
		return -1
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return pickNumbered(Out, stdinReader(), title, options)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return pickNumbered(Out, stdinReader(), title, options)
	}
	defer term.Restore(fd, oldState)

	rawWrite("\033[?25l")

	selected := 0
	if current > 0 && current < len(options) {
		selected = current
	}

	_, termHeight, _ := term.GetSize(fd)
	maxVisible := visibleRows(len(options), termHeight)
	scrollOffset := scrollFor(selected, 0, maxVisible)

	titleLines := 1
	if title != "" {
		rawWrite(fmt.Sprintf("\r\n  %s%s%s\r\n", Bold, title, Reset))
		titleLines = 2
	} else {
		rawWrite("\r\n")
	}

	drawOptions := func() {
		end := min(scrollOffset+maxVisible, len(options))
		for i := scrollOffset; i < end; i++ {
			rawWrite("\r\033[K")
			rawWrite(formatRow(options[i], i == selected))
			rawWrite("\r\n")
		}
		rawWrite("\r\033[K")
		hint := "↑↓ navigate  Enter select  q cancel"
		if len(options) > maxVisible {
			hint = fmt.Sprintf("↑↓ scroll (%d/%d)  Enter select  q cancel", selected+1, len(options))
		}
		rawWrite(fmt.Sprintf("  %s%s%s\r\n", Dim, hint, Reset))
	}

	drawnLines := maxVisible + 1

	moveUp := func(n int) {
		if n > 0 {
			rawWrite(fmt.Sprintf("\033[%dA", n))
		}
	}

	cleanup := func() {
		moveUp(titleLines)
		total := titleLines + drawnLines
		for range total {
			rawWrite("\r\033[K\r\n")
		}
		moveUp(total)
		rawWrite("\033[?25h")
	}

	move := func(delta int) {
		selected = (selected + delta + len(options)) % len(options)
		scrollOffset = scrollFor(selected, scrollOffset, maxVisible)
		drawOptions()
		moveUp(drawnLines)
	}

	drawOptions()
	moveUp(drawnLines)

	buf := make([]byte, 1)
	for {
		n, readErr := os.Stdin.Read(buf)
		if readErr != nil || n == 0 {
			break
		}

		if buf[0] == 0x1b {
			// Arrow keys arrive as ESC [ A; a lone ESC cancels.
			extra := make([]byte, 7)
			en := readWithTimeout(extra, 50*time.Millisecond)
			if en == 0 {
				cleanup()
				return -1
			}
			if en >= 2 && extra[0] == '[' {
				switch extra[1] {
				case 'A':
					move(-1)
				case 'B':
					move(1)
				}
			}
			continue
		}

		switch buf[0] {
		case 'k':
			move(-1)
		case 'j':
			move(1)
		case 13, 10:
			cleanup()
			return selected
		case 3, 'q':
			cleanup()
			return -1
		}
	}

	cleanup()
	return -1
}

func formatRow(opt PickerOption, selected bool) string {
	if selected {
		return fmt.Sprintf("  %s%s▸%s %s%s%s  %s%s%s", Bold, Cyan, Reset, Bold, opt.Label, Reset, Dim, opt.Desc, Reset)
	}
	return fmt.Sprintf("    %s  %s%s%s", opt.Label, Dim, opt.Desc, Reset)
}

// visibleRows caps the list to the terminal height, keeping at least three
// rows.
func visibleRows(count, termHeight int) int {
	rows := count
	if termHeight > 0 && rows > termHeight-4 {
		rows = termHeight - 4
	}
	return min(max(rows, 3), count)
}

// scrollFor returns the first visible index that keeps selected in view.
func scrollFor(selected, offset, visible int) int {
	switch {
	case selected < offset:
		return selected
	case selected >= offset+visible:
		return selected - visible + 1
	}
	return offset
}

// pickNumbered prints a numbered list and reads a 1-based choice. Anything
// other than a valid number cancels.
func pickNumbered(w io.Writer, r *bufio.Reader, title string, options []PickerOption) int {
	if title != "" {
		fmt.Fprintf(w, "%s\n", title)
	}
	for i, opt := range options {
		if opt.Desc != "" {
			fmt.Fprintf(w, "  %d) %s  %s\n", i+1, opt.Label, opt.Desc)
		} else {
			fmt.Fprintf(w, "  %d) %s\n", i+1, opt.Label)
		}
	}
	fmt.Fprint(w, "> ")

	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 1 || n > len(options) {
		return -1
	}
	return n - 1
}

// rawWrite writes directly to stdout in raw mode.
func rawWrite(s string) {
	os.Stdout.WriteString(s)
}

// readWithTimeout tries to read from stdin within the given duration.
// Returns the byte count, or 0 when the timeout expires.
func readWithTimeout(buf []byte, timeout time.Duration) int {
	fd := int(os.Stdin.Fd())

	syscall.SetNonblock(fd, true)
	defer syscall.SetNonblock(fd, false)

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			return n
		}
		if err != nil {
			return 0
		}
		time.Sleep(5 * time.Millisecond)
	}
	return 0
}

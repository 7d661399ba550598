package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/reeflective/readline"
	"golang.org/x/term"
)

var (
	stdinOnce sync.Once
	stdinBuf  *bufio.Reader
)

// stdinReader is shared so buffered lines are not lost between prompts.
func stdinReader() *bufio.Reader {
	stdinOnce.Do(func() { stdinBuf = bufio.NewReader(os.Stdin) })
	return stdinBuf
}

// ReadLine asks for one line of text. An empty answer yields initial. ok is
// false on Ctrl+C or end of input.
func ReadLine(caption, initial string) (string, bool) {
	prompt := caption
	if initial != "" {
		prompt += " [" + initial + "]"
	}
	prompt += ": "

	var line string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		shell := readline.NewShell()
		shell.Prompt.Primary(func() string { return Bold + prompt + Reset })
		v, err := shell.Readline()
		if err != nil {
			return "", false
		}
		line = v
	} else {
		v, err := readLineFrom(Out, stdinReader(), prompt)
		if err != nil {
			return "", false
		}
		line = v
	}

	line = strings.TrimSpace(line)
	if line == "" {
		line = initial
	}
	return line, true
}

// ReadSecret asks for a value without echoing it.
func ReadSecret(caption string) (string, bool) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		v, err := readLineFrom(Out, stdinReader(), caption+": ")
		if err != nil {
			return "", false
		}
		return strings.TrimRight(v, "\r\n"), true
	}

	fmt.Fprintf(Out, "%s%s: %s", Bold, caption, Reset)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(Out)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// readLineFrom prints prompt and reads up to the next newline. A final line
// without a newline is still returned.
func readLineFrom(w io.Writer, r *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

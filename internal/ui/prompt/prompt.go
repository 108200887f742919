// File: internal/ui/prompt/prompt.go
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Returned when input ends before the user answered, e.g. a closed or empty stdin in scripts
var ErrNoAnswer = errors.New("no confirmation received (use --force in non-interactive runs)")

type Prompter interface {
	// Asks the user to type expectedValue to go ahead with a destructive operation
	Confirm(message string, expectedValue string) (bool, error)
}

// LinePrompter reads one answer per line. A single instance can serve several confirmations
// because the scanner keeps unread input buffered between calls.
type LinePrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

func (p *LinePrompter) Confirm(message string, expectedValue string) (bool, error) {
	if strings.TrimSpace(expectedValue) == "" {
		return false, errors.New("expected confirmation value cannot be empty")
	}

	fmt.Fprintf(p.out, "%s\nType '%s' to continue: ", message, expectedValue)

	if !p.scanner.Scan() {
		fmt.Fprintln(p.out)
		if err := p.scanner.Err(); err != nil {
			return false, fmt.Errorf("error reading confirmation: %w", err)
		}
		return false, ErrNoAnswer
	}

	answer := strings.TrimSpace(p.scanner.Text())
	if answer != expectedValue {
		fmt.Fprintf(p.out, "'%s' does not match.\n", answer)
		return false, nil
	}
	return true, nil
}

package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Prompter asks the operator yes/no questions about corrupt inputs.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// TerminalPrompter reads answers from a terminal. When the input is not a
// terminal it never blocks and answers with AssumeYes.
type TerminalPrompter struct {
	AssumeYes bool

	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func NewTerminalPrompter(assumeYes bool) *TerminalPrompter {
	fd := os.Stdin.Fd()
	return &TerminalPrompter{
		AssumeYes:   assumeYes,
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stderr,
		interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// NewScriptedPrompter reads answers from in regardless of whether it is a terminal.
func NewScriptedPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: true,
	}
}

func (p *TerminalPrompter) Confirm(question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.AssumeYes {
		LogWarn("%s (continuing, --yes given)", question)
		return true, nil
	}
	if !p.interactive {
		LogWarn("%s (aborting, input is not a terminal; pass --yes to continue)", question)
		return false, nil
	}

	for {
		fmt.Fprintf(p.out, "%s [c]ontinue/[a]bort: ", question)
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "c", "continue", "y", "yes":
			return true, nil
		case "a", "abort", "n", "no":
			return false, nil
		}
	}
}

// StaticPrompter always gives the same answer.
type StaticPrompter bool

func (s StaticPrompter) Confirm(string) (bool, error) {
	return bool(s), nil
}

package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers from in and writes prompts to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool

	// echoed holds the visible length of every answered prompt, oldest first.
	echoed []int
}

// NewPrompter returns a Prompter bound to the process stdin/stdout.
func NewPrompter() *Prompter {
	fd := int(os.Stdin.Fd())
	return &Prompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		fd:  fd,
		tty: term.IsTerminal(fd),
	}
}

// NewPrompterFrom returns a Prompter over arbitrary streams. Passwords are
// read as plain lines since there is no terminal to switch off echo.
func NewPrompterFrom(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
}

// Line prints prompt and returns the trimmed answer.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	p.echoed = append(p.echoed, len(prompt)+len(strings.TrimRight(s, "\r\n")))
	return strings.TrimSpace(s), nil
}

// Password prints prompt and reads an answer without echo. Surrounding
// whitespace is kept because it may be part of the password.
func (p *Prompter) Password(prompt string) (string, error) {
	if !p.tty {
		fmt.Fprint(p.out, prompt)
		s, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && s != "") {
			return "", err
		}
		p.echoed = append(p.echoed, len(prompt))
		return strings.TrimRight(s, "\r\n"), nil
	}
	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	p.echoed = append(p.echoed, len(prompt))
	return string(b), nil
}

// Tidy erases every answered prompt from the terminal, newest first.
// It does nothing when the prompts did not go to a terminal.
func (p *Prompter) Tidy() {
	if !p.tty {
		return
	}
	for i := len(p.echoed) - 1; i >= 0; i-- {
		ClearPreviousLines(p.out, p.echoed[i])
	}
	p.echoed = nil
}

// Interactive reports whether stdin is a terminal.
func (p *Prompter) Interactive() bool {
	return p.tty
}

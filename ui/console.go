package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsolePrompter asks for values on a terminal. Lines are read by a single
// background reader so a cancelled Ask does not lose the next answer.
type ConsolePrompter struct {
	out io.Writer

	mu    sync.Mutex
	in    io.Reader
	lines chan string
}

// NewConsolePrompter reads answers from in and writes prompts and alerts to out.
func NewConsolePrompter(in io.Reader, out io.Writer) *ConsolePrompter {
	return &ConsolePrompter{in: in, out: out}
}

func (c *ConsolePrompter) reader() <-chan string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lines == nil {
		c.lines = make(chan string)
		go func(in io.Reader, lines chan<- string) {
			defer close(lines)
			sc := bufio.NewScanner(in)
			for sc.Scan() {
				lines <- sc.Text()
			}
		}(c.in, c.lines)
	}
	return c.lines
}

// Ask prints the prompt with the current value and waits for one line. End of
// input and an empty line both count as cancel.
func (c *ConsolePrompter) Ask(ctx context.Context, title, prompt, current string) (string, error) {
	fmt.Fprintf(c.out, "\n== %s ==\n%s [%s] ", title, prompt, current)

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return "", ctx.Err()
	case line, ok := <-c.reader():
		if !ok {
			fmt.Fprintln(c.out)
			return "", nil
		}
		return strings.TrimSpace(line), nil
	}
}

// Alert writes a notice line.
func (c *ConsolePrompter) Alert(title, message string) {
	fmt.Fprintf(c.out, "! %s: %s\n", title, message)
}

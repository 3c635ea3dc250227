package internal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// stdinPrompter asks the operator a yes/no question on the command streams.
// An empty answer counts as yes.
type stdinPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *stdinPrompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.out, "%s [Y/n]: ", message)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes", nil
}

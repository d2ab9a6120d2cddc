package fan

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes controller hook commands
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ShellRunner runs commands through a privilege prefix such as "su -c".
// An empty prefix runs them with "sh -c".
type ShellRunner struct {
	Prefix []string
}

// Run executes command and returns its trimmed standard output
func (r ShellRunner) Run(ctx context.Context, command string) (string, error) {
	prefix := r.Prefix
	if len(prefix) == 0 {
		prefix = []string{"sh", "-c"}
	}
	args := append(append([]string(nil), prefix[1:]...), command)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, prefix[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: %s: %s", ErrChannelUnavailable, command, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Package gitx runs git commands with bounded deadlines.
package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation so a stuck remote
// cannot hang a worker indefinitely.
const DefaultTimeout = 2 * time.Minute

// Runner executes git commands. The interface exists so publish and
// repository plumbing can be tested with a fake.
type Runner interface {
	// Run executes git with args in dir (empty dir means inherit) and
	// returns combined trimmed output.
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs git via os/exec.
type ExecRunner struct {
	timeout time.Duration
}

// NewRunner creates an ExecRunner with the default timeout.
func NewRunner() *ExecRunner {
	return &ExecRunner{timeout: DefaultTimeout}
}

// Run executes a git command. The context is bounded by the runner
// timeout when the caller has not set a tighter deadline.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return strings.TrimSpace(out.String()), nil
}

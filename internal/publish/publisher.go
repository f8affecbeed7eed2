// Package publish turns generated text into a committed, pushed branch
// change.
package publish

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/raopodili/mcpgen/internal/gitx"
	"github.com/raopodili/mcpgen/internal/models"
)

// Error reports a failed publish attempt with the step that failed.
type Error struct {
	Step  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish failed at %s: %v", e.Step, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Publisher writes generated content into an ephemeral clone and pushes
// it as a branch. Working copies are never shared or reused; each
// attempt gets a fresh clone and tears it down unconditionally, so a
// failed push leaves nothing behind locally and nothing upstream.
type Publisher struct {
	runner gitx.Runner
}

// New creates a Publisher.
func New(runner gitx.Runner) *Publisher {
	return &Publisher{runner: runner}
}

// Publish clones repoURL into a temporary directory, writes content at
// relativePath on branch, commits with commitMessage, and pushes.
func (p *Publisher) Publish(ctx context.Context, repoURL, branch, relativePath, content, commitMessage string) error {
	workDir, err := os.MkdirTemp("", "mcpgen-publish-")
	if err != nil {
		return &Error{Step: "workdir", Cause: err}
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.Printf("Failed to remove publish working copy %s: %v", workDir, err)
		}
	}()

	rec := models.PublishRecord{
		WorkDir:       workDir,
		Branch:        branch,
		CommitMessage: commitMessage,
		FilePath:      relativePath,
	}

	if _, err := p.runner.Run(ctx, "", "clone", repoURL, rec.WorkDir); err != nil {
		return &Error{Step: "clone", Cause: err}
	}

	// -B creates the branch or resets it if it already exists locally.
	if _, err := p.runner.Run(ctx, rec.WorkDir, "checkout", "-B", rec.Branch); err != nil {
		return &Error{Step: "branch", Cause: err}
	}

	target := filepath.Join(rec.WorkDir, rec.FilePath)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return &Error{Step: "write", Cause: err}
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		return &Error{Step: "write", Cause: err}
	}

	if _, err := p.runner.Run(ctx, rec.WorkDir, "add", rec.FilePath); err != nil {
		return &Error{Step: "stage", Cause: err}
	}
	if _, err := p.runner.Run(ctx, rec.WorkDir, "commit", "-m", rec.CommitMessage); err != nil {
		return &Error{Step: "commit", Cause: err}
	}
	if _, err := p.runner.Run(ctx, rec.WorkDir, "push", "origin", rec.Branch); err != nil {
		return &Error{Step: "push", Cause: err}
	}

	return nil
}

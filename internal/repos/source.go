// Package repos discovers remote repositories and keeps local clones
// on the configured branch.
package repos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raopodili/mcpgen/internal/gitx"
	"github.com/raopodili/mcpgen/internal/models"
)

// Sentinel errors for repository operations.
var (
	ErrRepositoryUnavailable = errors.New("repository unavailable")
	ErrBranchNotFound        = errors.New("branch not found")
)

// Source materializes repository descriptors as local clones.
type Source struct {
	runner   gitx.Runner
	cloneDir string
}

// NewSource creates a Source that clones under cloneDir.
func NewSource(runner gitx.Runner, cloneDir string) *Source {
	return &Source{runner: runner, cloneDir: cloneDir}
}

// EnsureLocal makes sure desc has a local clone on its configured
// branch and returns the local path. Idempotent: an existing clone is
// reused and only the checkout is repeated.
func (s *Source) EnsureLocal(ctx context.Context, desc *models.RepositoryDescriptor) (string, error) {
	dest := desc.LocalPath
	if dest == "" {
		dest = filepath.Join(s.cloneDir, desc.Name)
	}

	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := os.MkdirAll(s.cloneDir, 0755); err != nil {
			return "", fmt.Errorf("create clone dir: %w", err)
		}
		if _, err := s.runner.Run(ctx, "", "clone", desc.CloneURL, dest); err != nil {
			return "", fmt.Errorf("%w: clone %s: %v", ErrRepositoryUnavailable, desc.CloneURL, err)
		}
	}

	if desc.Branch != "" {
		if _, err := s.runner.Run(ctx, dest, "checkout", desc.Branch); err != nil {
			return "", fmt.Errorf("%w: %s in %s: %v", ErrBranchNotFound, desc.Branch, desc.Name, err)
		}
	}

	desc.LocalPath = dest
	return dest, nil
}

// EnsureAll resolves every descriptor and returns the local paths.
func (s *Source) EnsureAll(ctx context.Context, descs []models.RepositoryDescriptor) ([]string, error) {
	paths := make([]string, 0, len(descs))
	for i := range descs {
		path, err := s.EnsureLocal(ctx, &descs[i])
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

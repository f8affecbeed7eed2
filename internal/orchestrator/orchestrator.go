// Package orchestrator composes repository context, generation, and
// publishing into the task pipeline behind the public API.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/raopodili/mcpgen/internal/backend"
	"github.com/raopodili/mcpgen/internal/config"
	"github.com/raopodili/mcpgen/internal/history"
	"github.com/raopodili/mcpgen/internal/models"
	"github.com/raopodili/mcpgen/internal/prompt"
	"github.com/raopodili/mcpgen/internal/repoctx"
	"github.com/raopodili/mcpgen/internal/repos"
	"github.com/raopodili/mcpgen/internal/tasks"
)

// ErrEmptyGeneration indicates the backend returned no text.
var ErrEmptyGeneration = errors.New("generator returned empty response")

// Publisher pushes generated content as a branch change.
type Publisher interface {
	Publish(ctx context.Context, repoURL, branch, relativePath, content, commitMessage string) error
}

// Discoverer lists repositories from a hosting workspace.
type Discoverer interface {
	DiscoverAll(ctx context.Context, workspace, branch string, projectFilter []string) ([]models.RepositoryDescriptor, error)
}

// Service drives generation tasks end to end. Each accepted request
// runs in its own goroutine; the task manager is the only channel back
// to the caller.
type Service struct {
	cfg        *config.Config
	tasks      *tasks.Manager
	aggregator *repoctx.Aggregator
	source     *repos.Source
	discoverer Discoverer
	publisher  Publisher
	generator  backend.Generator
	history    *history.Store

	// sem bounds concurrently running pipelines.
	sem chan struct{}
}

// New wires a Service. discoverer may be nil for single-repository
// deployments; historyStore may be nil to disable the audit log.
func New(cfg *config.Config, tm *tasks.Manager, agg *repoctx.Aggregator, src *repos.Source,
	disc Discoverer, pub Publisher, gen backend.Generator, historyStore *history.Store) *Service {
	return &Service{
		cfg:        cfg,
		tasks:      tm,
		aggregator: agg,
		source:     src,
		discoverer: disc,
		publisher:  pub,
		generator:  gen,
		history:    historyStore,
		sem:        make(chan struct{}, cfg.MaxWorkers),
	}
}

// Submit accepts a request and starts a background generation task.
// The returned ID can be polled via Status immediately.
func (s *Service) Submit(req models.GenerationRequest) string {
	id := s.tasks.Create()
	go func() {
		s.sem <- struct{}{}
		defer func() { <-s.sem }()
		s.run(id, req)
	}()
	return id
}

// SubmitSync runs the pipeline on the caller's goroutine and returns
// the terminal task.
func (s *Service) SubmitSync(req models.GenerationRequest) models.Task {
	id := s.tasks.Create()
	s.run(id, req)
	return s.tasks.Get(id)
}

// Status returns the task for id; unknown identities yield the unknown
// state.
func (s *Service) Status(id string) models.Task {
	return s.tasks.Get(id)
}

// List returns a snapshot of all tasks.
func (s *Service) List() []models.Task {
	return s.tasks.List()
}

// History returns recent generation records, or nil when the audit log
// is disabled.
func (s *Service) History(limit int) ([]models.GenerationRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(limit)
}

// Health describes backend availability.
type Health struct {
	Backend   string `json:"backend"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// CheckHealth validates the backend with a short deadline.
func (s *Service) CheckHealth(ctx context.Context) Health {
	h := Health{Backend: s.generator.Name(), Model: s.generator.Model()}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.generator.Validate(ctx); err != nil {
		h.Error = err.Error()
		return h
	}
	h.Available = true
	return h
}

// run executes the pipeline for one task and records exactly one
// terminal transition. Every failure is converted to a Failed state
// here; nothing escapes to crash the process.
func (s *Service) run(id string, req models.GenerationRequest) {
	start := time.Now()
	promptHash := ""

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Task %s panicked: %v", id, r)
			s.tasks.Fail(id, fmt.Sprintf("internal error: %v", r))
			s.record(id, req, promptHash, start)
		}
	}()

	result, hash, err := s.pipeline(context.Background(), req)
	promptHash = hash
	if err != nil {
		log.Printf("Task %s failed: %v", id, err)
		s.tasks.Fail(id, err.Error())
	} else {
		s.tasks.Complete(id, result)
	}
	s.record(id, req, promptHash, start)
}

// pipeline performs context aggregation, generation, and optional
// publishing, returning the generated text and the prompt hash.
func (s *Service) pipeline(ctx context.Context, req models.GenerationRequest) (string, string, error) {
	if strings.ContainsAny(req.ServiceName, "/\\") || req.ServiceName == ".." {
		return "", "", fmt.Errorf("invalid service name %q", req.ServiceName)
	}

	paths, err := s.resolveRepos(ctx)
	if err != nil {
		return "", "", err
	}

	contextText, err := s.aggregator.Aggregate(paths)
	if err != nil {
		return "", "", err
	}
	contextText += repoctx.LoadFiles(req.ContextFiles)

	rendered, err := prompt.Render(contextText, req.Prompt)
	if err != nil {
		return "", "", err
	}
	hash := history.HashPrompt(rendered)

	generated, err := s.generator.Generate(ctx, rendered)
	if err != nil {
		return "", hash, fmt.Errorf("generation failed: %w", err)
	}
	if strings.TrimSpace(generated) == "" {
		return "", hash, ErrEmptyGeneration
	}

	if s.publishEnabled() {
		relPath := path.Join("services", req.ServiceName+".java")
		msg := fmt.Sprintf("Add %s service via MCP", req.ServiceName)
		if err := s.publisher.Publish(ctx, s.cfg.RepoURL, s.cfg.PublishBranch, relPath, generated, msg); err != nil {
			return "", hash, err
		}
	}

	return generated, hash, nil
}

func (s *Service) publishEnabled() bool {
	return s.publisher != nil && s.cfg.PublishBranch != "" && s.cfg.RepoURL != ""
}

// resolveRepos returns the local paths of every repository in scope.
func (s *Service) resolveRepos(ctx context.Context) ([]string, error) {
	var descs []models.RepositoryDescriptor

	if s.cfg.DiscoveryEnabled() && s.discoverer != nil {
		found, err := s.discoverer.DiscoverAll(ctx, s.cfg.Workspace, s.cfg.Branch, s.cfg.ProjectFilter)
		if err != nil {
			return nil, err
		}
		descs = found
	} else {
		descs = []models.RepositoryDescriptor{{
			Name:     repoName(s.cfg.RepoURL),
			CloneURL: s.cfg.RepoURL,
			Branch:   s.cfg.Branch,
		}}
	}

	return s.source.EnsureAll(ctx, descs)
}

// record writes the audit row for a finished task. Best effort: a
// history failure never affects the task outcome.
func (s *Service) record(id string, req models.GenerationRequest, promptHash string, start time.Time) {
	if s.history == nil {
		return
	}
	task := s.tasks.Get(id)
	if _, err := s.history.Record(id, req.ServiceName, promptHash, string(task.State), task.Reason, time.Since(start)); err != nil {
		log.Printf("Failed to record history for task %s: %v", id, err)
	}
}

// repoName derives a directory name from a clone URL.
func repoName(cloneURL string) string {
	name := path.Base(strings.TrimSuffix(cloneURL, ".git"))
	if name == "." || name == "/" || name == "" {
		return "repo"
	}
	return name
}

// Package repoctx assembles source context from local repositories for
// grounding generation requests.
package repoctx

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Aggregator walks repository trees and concatenates matching file
// content into a single context blob.
type Aggregator struct {
	cache      *Cache
	extensions map[string]bool
	perFileCap int
}

// NewAggregator creates an aggregator. extensions is the allow-set of
// file extensions (with leading dot); perFileCap bounds the bytes read
// from any single file.
func NewAggregator(cache *Cache, extensions []string, perFileCap int) *Aggregator {
	allow := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allow[strings.ToLower(ext)] = true
	}
	return &Aggregator{
		cache:      cache,
		extensions: allow,
		perFileCap: perFileCap,
	}
}

// Aggregate extracts context from each repository path, consulting the
// cache, and concatenates the results.
func (a *Aggregator) Aggregate(repoPaths []string) (string, error) {
	var sb strings.Builder
	for _, path := range repoPaths {
		text, err := a.cache.GetOrExtract(path, a.extract)
		if err != nil {
			return "", fmt.Errorf("extracting context from %s: %w", path, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// extract walks repoPath and concatenates matching files. File paths
// are sorted lexicographically so output is stable across platforms.
// Unreadable files are skipped; aggregation is best effort.
func (a *Aggregator) extract(repoPath string) (string, error) {
	var files []string
	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directory: skip its subtree.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if a.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking %s: %w", repoPath, err)
	}
	sort.Strings(files)

	var sb strings.Builder
	skipped := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			skipped++
			continue
		}
		if len(data) > a.perFileCap {
			data = data[:a.perFileCap]
		}
		sb.WriteString("\n# ")
		sb.WriteString(file)
		sb.WriteString(":\n")
		sb.Write(data)
	}
	if skipped > 0 {
		log.Printf("Context extraction from %s skipped %d unreadable files", repoPath, skipped)
	}
	return sb.String(), nil
}

// LoadFiles reads caller-supplied auxiliary context files in full.
// Missing or unreadable files are skipped.
func LoadFiles(paths []string) string {
	var sb strings.Builder
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		sb.WriteString("\n# From ")
		sb.WriteString(path)
		sb.WriteString(":\n")
		sb.Write(data)
		sb.WriteString("\n")
	}
	return sb.String()
}

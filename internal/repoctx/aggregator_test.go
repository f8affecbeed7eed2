package repoctx

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestAggregate_CapsAndHeaders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.java", strings.Repeat("X", 5000))
	writeFile(t, dir, "b.md", strings.Repeat("Y", 10))

	agg := NewAggregator(NewCache(), []string{".java", ".md", ".yml"}, 3000)
	out, err := agg.Aggregate([]string{dir})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := strings.Count(out, "X"); got != 3000 {
		t.Errorf("Expected exactly 3000 X characters, got %d", got)
	}
	if got := strings.Count(out, "Y"); got != 10 {
		t.Errorf("Expected all 10 Y characters, got %d", got)
	}
	if !strings.Contains(out, "# "+filepath.Join(dir, "a.java")+":") {
		t.Error("Expected header for a.java")
	}
	if !strings.Contains(out, "# "+filepath.Join(dir, "b.md")+":") {
		t.Error("Expected header for b.md")
	}
}

func TestAggregate_ExcludesUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.java", "class Keep {}")
	writeFile(t, dir, "skip.py", "print('skip')")

	agg := NewAggregator(NewCache(), []string{".java"}, 3000)
	out, err := agg.Aggregate([]string{dir})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if !strings.Contains(out, "class Keep {}") {
		t.Error("Expected .java content to be included")
	}
	if strings.Contains(out, "skip") {
		t.Error("Expected .py file to be excluded entirely")
	}
}

func TestAggregate_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z/last.java", "Z")
	writeFile(t, dir, "a/first.java", "A")
	writeFile(t, dir, "m/middle.java", "M")

	agg := NewAggregator(NewCache(), []string{".java"}, 100)
	out, err := agg.Aggregate([]string{dir})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	first := strings.Index(out, "first.java")
	middle := strings.Index(out, "middle.java")
	last := strings.Index(out, "last.java")
	if first == -1 || middle == -1 || last == -1 {
		t.Fatal("Expected all three files in output")
	}
	if !(first < middle && middle < last) {
		t.Error("Expected lexicographic file order in output")
	}
}

func TestAggregate_SkipsGitDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/config.md", "git internals")
	writeFile(t, dir, "readme.md", "docs")

	agg := NewAggregator(NewCache(), []string{".md"}, 100)
	out, err := agg.Aggregate([]string{dir})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if strings.Contains(out, "git internals") {
		t.Error("Expected .git contents to be skipped")
	}
	if !strings.Contains(out, "docs") {
		t.Error("Expected readme.md content")
	}
}

func TestCache_Idempotent(t *testing.T) {
	cache := NewCache()
	calls := 0
	extract := func(path string) (string, error) {
		calls++
		return "extracted:" + path, nil
	}

	first, err := cache.GetOrExtract("/repo/one", extract)
	if err != nil {
		t.Fatalf("GetOrExtract failed: %v", err)
	}
	second, err := cache.GetOrExtract("/repo/one", extract)
	if err != nil {
		t.Fatalf("GetOrExtract failed: %v", err)
	}

	if first != second {
		t.Errorf("Expected identical text, got %q and %q", first, second)
	}
	if calls != 1 {
		t.Errorf("Expected extractor called once, got %d", calls)
	}
}

func TestCache_DistinctKeys(t *testing.T) {
	cache := NewCache()
	extract := func(path string) (string, error) {
		return "extracted:" + path, nil
	}

	one, _ := cache.GetOrExtract("/repo/one", extract)
	two, _ := cache.GetOrExtract("/repo/two", extract)

	if one == two {
		t.Error("Expected distinct keys to carry distinct values")
	}
	if cache.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", cache.Len())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	cache := NewCache()
	extract := func(path string) (string, error) {
		return "extracted:" + path, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			path := "/repo/shared"
			if n%2 == 0 {
				path = "/repo/other"
			}
			got, err := cache.GetOrExtract(path, extract)
			if err != nil {
				t.Errorf("GetOrExtract failed: %v", err)
			}
			if got != "extracted:"+path {
				t.Errorf("Unexpected value %q for %s", got, path)
			}
		}(i)
	}
	wg.Wait()
}

func TestLoadFiles_MissingSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "extra.txt", "auxiliary context")

	out := LoadFiles([]string{path, filepath.Join(dir, "missing.txt")})

	if !strings.Contains(out, "auxiliary context") {
		t.Error("Expected auxiliary file content")
	}
	if !strings.Contains(out, "# From "+path+":") {
		t.Error("Expected origin header for auxiliary file")
	}
	if strings.Contains(out, "missing.txt") {
		t.Error("Expected missing file to be skipped without a header")
	}
}

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaValidate_ModelPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "llama3"}, {"name": "mistral"}},
		})
	}))
	defer server.Close()

	o := NewOllama(server.URL, "llama3")
	if err := o.Validate(context.Background()); err != nil {
		t.Errorf("Expected validation to pass, got %v", err)
	}
}

func TestOllamaValidate_ModelMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]string{{"name": "mistral"}},
		})
	}))
	defer server.Close()

	o := NewOllama(server.URL, "llama3")
	err := o.Validate(context.Background())
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound, got %v", err)
	}
}

func TestOllamaValidate_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	o := NewOllama(server.URL, "llama3")
	err := o.Validate(context.Background())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Model != "llama3" || req.Stream {
			t.Errorf("Unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "class RefundService {}"})
	}))
	defer server.Close()

	o := NewOllama(server.URL, "llama3")
	got, err := o.Generate(context.Background(), "add refund endpoint")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "class RefundService {}" {
		t.Errorf("Unexpected response: %q", got)
	}
}

func TestAnthropicValidate(t *testing.T) {
	a := NewAnthropic("", "", "claude-3-sonnet-20240229")
	if err := a.Validate(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable without api key, got %v", err)
	}

	a = NewAnthropic("", "key", "")
	if err := a.Validate(context.Background()); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("Expected ErrModelNotFound without model, got %v", err)
	}

	a = NewAnthropic("", "key", "claude-3-sonnet-20240229")
	if err := a.Validate(context.Background()); err != nil {
		t.Errorf("Expected validation to pass, got %v", err)
	}
}

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("Expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": "class RefundService {}"}},
		})
	}))
	defer server.Close()

	a := NewAnthropic(server.URL, "secret", "claude-3-sonnet-20240229")
	got, err := a.Generate(context.Background(), "add refund endpoint")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "class RefundService {}" {
		t.Errorf("Unexpected response: %q", got)
	}
}

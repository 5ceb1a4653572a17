package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/urfave/cli/v2"
)

func findIntFlag(app *cli.App, name string) *cli.IntFlag {
	for _, f := range app.Flags {
		if f, ok := f.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func TestApp_FlagDefaults(t *testing.T) {
	app := newApp()

	defaults := map[string]int{
		"chunk-size":    1000,
		"chunk-overlap": 100,
		"batch-size":    10,
		"workers":       4,
		"max-retries":   3,
	}
	for name, want := range defaults {
		f := findIntFlag(app, name)
		if f == nil {
			t.Errorf("flag %q missing", name)
			continue
		}
		if f.Value != want {
			t.Errorf("flag %q default = %d, want %d", name, f.Value, want)
		}
	}
}

func TestApp_RequiresFiles(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	if err := app.RunContext(context.Background(), []string{"loader"}); err == nil {
		t.Fatal("expected error without input files")
	}
}

func TestApp_RejectsOverlapNotBelowSize(t *testing.T) {
	app := newApp()
	err := app.RunContext(context.Background(), []string{"loader", "--chunk-size", "100", "--chunk-overlap", "100", "x.txt"})
	if err == nil || !strings.Contains(err.Error(), "chunk-overlap") {
		t.Fatalf("err = %v", err)
	}
}

func TestApp_UploadsFile(t *testing.T) {
	var received atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Chunks []json.RawMessage `json:"chunks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		received.Add(int64(len(body.Chunks)))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "chunks.jsonl")
	lines := strings.Repeat(`{"content":"The sky is blue"}`+"\n", 7)
	if err := os.WriteFile(path, []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	err := app.RunContext(context.Background(), []string{
		"loader", "--server", srv.URL, "--batch-size", "3", "--workers", "2", "--log-level", "error", path,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if received.Load() != 7 {
		t.Errorf("server received %d chunks, want 7", received.Load())
	}
	if !strings.Contains(out.String(), "Uploaded 7/7 chunks in 3 batches") {
		t.Errorf("summary = %q", out.String())
	}
}

package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

func TestRelevantEvent(t *testing.T) {
	dir := t.TempDir()
	summary := filepath.Join(dir, "analysis_results.json")
	skip := map[string]bool{summary: true}

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"record written", fsnotify.Event{Name: filepath.Join(dir, "a.json"), Op: fsnotify.Write}, true},
		{"record created upper ext", fsnotify.Event{Name: filepath.Join(dir, "A.JSON"), Op: fsnotify.Create}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(dir, "a.json"), Op: fsnotify.Chmod}, false},
		{"findings file", fsnotify.Event{Name: filepath.Join(dir, "a_pitfalls.jsonld"), Op: fsnotify.Write}, false},
		{"own summary", fsnotify.Event{Name: summary, Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevantEvent(tt.ev, skip); got != tt.want {
				t.Errorf("relevantEvent(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestWatchDirs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := watchDirs([]string{dir, file})
	if len(got) != 1 || got[0] != dir {
		t.Errorf("watchDirs = %v, want [%s]", got, dir)
	}
}

func TestWatchPathsReruns(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchPaths(ctx, log.New(io.Discard), []string{dir}, 20*time.Millisecond, nil, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "rec.json"), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("watchPaths() = %v, want context.Canceled", err)
	}
	if runs.Load() == 0 {
		t.Error("run was never triggered")
	}
}

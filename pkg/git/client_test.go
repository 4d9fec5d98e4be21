package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClient_Lock(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, nil)

	unlock, err := client.Lock(ctx)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := filepath.Join(tmpDir, LockFile)
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	t.Run("Contention Gives Up", func(t *testing.T) {
		other := NewClient(tmpDir, nil)
		other.LockAttempts = 3
		other.LockDelay = time.Millisecond

		if _, err := other.Lock(ctx); !errors.Is(err, ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
	})

	t.Run("Waits For Release", func(t *testing.T) {
		other := NewClient(tmpDir, nil)
		go func() {
			time.Sleep(30 * time.Millisecond)
			unlock()
		}()

		release, err := other.Lock(ctx)
		if err != nil {
			t.Fatalf("expected lock after release, got %v", err)
		}
		release()
	})

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_Workflow(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	ctx := context.Background()
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, nil)

	if client.IsRepo(ctx) {
		t.Fatal("temp dir should not be a repository yet")
	}
	if err := client.Init(ctx); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, ".git")); os.IsNotExist(err) {
		t.Fatal(".git directory not created")
	}
	if !client.IsRepo(ctx) {
		t.Fatal("expected repository after init")
	}

	file := filepath.Join(tmpDir, "nb.nexia.json")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := client.Add(ctx, "nb.nexia.json"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	staged, err := client.HasStagedChanges(ctx)
	if err != nil || !staged {
		t.Fatalf("expected staged changes, got %v, %v", staged, err)
	}
	if err := client.Commit(ctx, "update nb.nexia.json"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	log, err := client.Log(ctx, 5)
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(log) != 1 || log[0] != "update nb.nexia.json" {
		t.Errorf("unexpected log %v", log)
	}

	staged, _ = client.HasStagedChanges(ctx)
	if staged {
		t.Error("expected clean index after commit")
	}
}

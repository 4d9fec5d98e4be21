// Package git runs git commands against the directory holding a notebook,
// so that every save can be recorded as a commit.
package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// LockFile is created in the work dir while a caller holds the lock.
	LockFile = ".nexia.lock"

	DefaultLockAttempts = 200
	DefaultLockDelay    = 10 * time.Millisecond
)

// ErrLocked is returned when the lock is still held after every attempt.
var ErrLocked = errors.New("git work dir is locked")

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir string
	Logger  *slog.Logger

	LockAttempts uint
	LockDelay    time.Duration
	lockPath     string
}

// NewClient creates a new git client for the given working directory.
func NewClient(workDir string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		WorkDir:      workDir,
		Logger:       logger,
		LockAttempts: DefaultLockAttempts,
		LockDelay:    DefaultLockDelay,
		lockPath:     LockFile,
	}
}

// IsInstalled reports whether a git binary is available.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Lock acquires the file-based lock, retrying a bounded number of times.
// It fails with ErrLocked if another holder keeps the lock.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)

	err := retry.Do(
		func() error {
			f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
			if err == nil {
				return f.Close()
			}
			if os.IsExist(err) {
				return ErrLocked
			}
			return retry.Unrecoverable(fmt.Errorf("failed to acquire lock: %w", err))
		},
		retry.Context(ctx),
		retry.Attempts(c.LockAttempts),
		retry.Delay(c.LockDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			if attempt == 0 {
				c.Logger.Debug("waiting for git lock", "path", fullLockPath)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	return func() {
		os.Remove(fullLockPath)
	}, nil
}

// Run executes a raw git command in the working directory.
// It does NOT acquire the lock; callers wrap related commands with Lock.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}
	return strings.TrimSpace(output), nil
}

// IsRepo reports whether the work dir is inside a git repository.
func (c *Client) IsRepo(ctx context.Context) bool {
	out, err := c.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Init initializes a new git repository. Re-running it is safe.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// Add stages files.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(ctx, args...)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (c *Client) HasStagedChanges(ctx context.Context) (bool, error) {
	out, err := c.Run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// Commit records staged changes. A local identity is supplied when none is
// configured, so commits also work on fresh machines.
func (c *Client) Commit(ctx context.Context, msg string) error {
	var args []string
	if email, err := c.Run(ctx, "config", "user.email"); err != nil || email == "" {
		args = append(args, "-c", "user.name=nexia", "-c", "user.email=nexia@localhost")
	}
	args = append(args, "commit", "-m", msg)
	_, err := c.Run(ctx, args...)
	return err
}

// Log returns the last n commit subjects, newest first.
func (c *Client) Log(ctx context.Context, n int) ([]string, error) {
	out, err := c.Run(ctx, "log", fmt.Sprintf("-%d", n), "--format=%s")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

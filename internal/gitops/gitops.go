// Package gitops versions the data directory with git.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// HasChanges reports whether the work tree differs from HEAD, untracked
// files included.
func HasChanges(dir string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(dir, message, authorName, authorEmail string) (string, error) {
	author := fmt.Sprintf("%s <%s>", authorName, authorEmail)

	add := exec.Command("git", "add", "-A")
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	// -c keeps commits working on machines without a global identity.
	commit := exec.Command("git",
		"-c", "user.name="+authorName, "-c", "user.email="+authorEmail,
		"commit", "--quiet", "-m", message, "--author", author)
	commit.Dir = dir
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev := exec.Command("git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Committer snapshots the data directory after each mutating command.
type Committer struct {
	Dir         string
	Enabled     bool
	AuthorName  string
	AuthorEmail string
	Logger      *log.Logger
}

// Snapshot commits pending changes with message. It returns "" without
// error when disabled, outside a repository, or when nothing changed.
func (c Committer) Snapshot(message string) (string, error) {
	if !c.Enabled || !IsRepo(c.Dir) {
		return "", nil
	}
	changed, err := HasChanges(c.Dir)
	if err != nil || !changed {
		return "", err
	}
	hash, err := CommitAll(c.Dir, message, c.AuthorName, c.AuthorEmail)
	if err != nil {
		return "", err
	}
	c.Logger.Debug("data committed", "commit", hash, "message", message)
	return hash, nil
}

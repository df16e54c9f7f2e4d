package gitops

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	err := Init(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "banks.csv"), []byte("id,name\n"), 0o644))

	hash, err := CommitAll(dir, "bank add: BPI", "Test Author", "test@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	gitLog := exec.Command("git", "log", "--format=%s", "-1")
	gitLog.Dir = dir
	out, err := gitLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "bank add: BPI")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Test Author <test@example.com>")
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	c := Committer{Dir: dir, Enabled: true, AuthorName: "finboard", AuthorEmail: "finboard@localhost", Logger: log.New(io.Discard)}

	hash, err := c.Snapshot("outside a repo")
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644))

	hash, err = c.Snapshot("first")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	hash, err = c.Snapshot("nothing changed")
	require.NoError(t, err)
	assert.Empty(t, hash)

	c.Enabled = false
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("y"), 0o644))
	hash, err = c.Snapshot("disabled")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

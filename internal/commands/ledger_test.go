package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plannedPattern = regexp.MustCompile(`\(\w+, ([0-9a-f]+)\)`)

// fin runs a command against dir and fails the test on error.
func fin(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runFinboard(t, append([]string{"--data", dir, "--log-level", "error"}, args...)...)
	require.NoError(t, err, out)
	return out
}

func TestBankTransactionReportFlow(t *testing.T) {
	dir := initDir(t, "--no-git")
	today := time.Now().UTC().Format("2006-01-02")

	bpi := createdID(t, fin(t, dir, "bank", "add", "BPI", "--opening", "100"))
	cgd := createdID(t, fin(t, dir, "bank", "add", "CGD"))
	food := createdID(t, fin(t, dir, "category", "add", "Food", "--budget", "50", "--hideable"))

	out := fin(t, dir, "tx", "add", "Groceries", "30", "--bank", bpi, "--category", food, "--date", today)
	assert.Contains(t, out, "-$30.00")
	txn := createdID(t, out)

	fin(t, dir, "transfer", "--from", bpi, "--to", cgd, "--amount", "20", "--date", today)

	out = fin(t, dir, "bank", "list")
	assert.Contains(t, out, "$50.00", "BPI: 100 - 30 - 20")
	assert.Contains(t, out, "$20.00")
	assert.Contains(t, out, "$70.00", "total")

	out = fin(t, dir, "bank", "check")
	assert.Contains(t, out, "All balances reconcile.")

	out = fin(t, dir, "report", "budgets", "--plain")
	assert.Contains(t, out, "| Food | $30.00 | $50.00 | $20.00 | within |")

	out = fin(t, dir, "report", "budgets", "--plain", "--privacy")
	assert.NotContains(t, out, "$30.00")
	assert.Contains(t, out, "•••••")

	out = fin(t, dir, "report", "balances", "--plain")
	assert.Contains(t, out, "| **Total** | **$70.00** |")

	out = fin(t, dir, "tx", "show", txn)
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "$30.00")

	out = fin(t, dir, "tx", "show", txn, "--debug")
	assert.Contains(t, out, "Transaction")
	assert.Contains(t, out, "Groceries")

	fin(t, dir, "tx", "delete", txn)
	out = fin(t, dir, "tx", "list", "--plain", "--bank", bpi)
	assert.NotContains(t, out, "Groceries")
	out = fin(t, dir, "bank", "list")
	assert.Contains(t, out, "$80.00", "deleting the expense restores its amount")
}

func TestTxValidationIsReported(t *testing.T) {
	dir := initDir(t, "--no-git")
	bpi := createdID(t, fin(t, dir, "bank", "add", "BPI"))

	out, err := runFinboard(t, "--data", dir, "tx", "add", "--bank", bpi, "--", "Bad", "-5")
	require.Error(t, err)
	assert.Contains(t, out, "amount")

	out, err = runFinboard(t, "--data", dir, "tx", "add", "Nowhere", "5", "--bank", "missing")
	require.Error(t, err)
	assert.Contains(t, out, "bank")
}

func TestReportExport(t *testing.T) {
	dir := initDir(t, "--no-git")
	bpi := createdID(t, fin(t, dir, "bank", "add", "BPI", "--opening", "10"))
	fin(t, dir, "tx", "add", "Salary", "1000", "--bank", bpi, "--type", "income")

	path := filepath.Join(dir, "exports", "all.xlsx")
	out := fin(t, dir, "report", "export", path)
	assert.Contains(t, out, "Exported 2 transactions")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPlannedApplyAdvancesSchedule(t *testing.T) {
	dir := initDir(t, "--no-git")
	bpi := createdID(t, fin(t, dir, "bank", "add", "BPI", "--opening", "500"))
	today := time.Now().UTC()

	out := fin(t, dir, "planned", "add", "Rent", "400", "--bank", bpi, "--recur", "monthly", "--date", today.Format("2006-01-02"))
	m := plannedPattern.FindStringSubmatch(out)
	require.NotNil(t, m, out)
	plannedID := m[1]

	out = fin(t, dir, "planned", "due", "--days", "1")
	assert.Contains(t, out, plannedID)

	fin(t, dir, "planned", "apply", plannedID)
	out = fin(t, dir, "bank", "list")
	assert.Contains(t, out, "$100.00")

	out = fin(t, dir, "planned", "list")
	assert.Contains(t, out, today.AddDate(0, 1, 0).Format("2006-01-02"))

	out = fin(t, dir, "planned", "remind", "--days", "1")
	assert.Contains(t, out, "Sent 0 reminder(s)")
}

func TestAuditListsChanges(t *testing.T) {
	dir := initDir(t, "--no-git")
	fin(t, dir, "bank", "add", "BPI")
	fin(t, dir, "category", "add", "Food")

	out := fin(t, dir, "audit")
	assert.Contains(t, out, "banks")
	assert.Contains(t, out, "categories")
}

func TestMutationsAreCommitted(t *testing.T) {
	dir := initDir(t)
	fin(t, dir, "bank", "add", "BPI")

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	subjects := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, []string{"bank: add BPI", "init: finboard for ana"}, subjects)
}

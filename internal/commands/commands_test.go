package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "acc-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "acc")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/acc")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runAcc(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

const sampleStatement = `date,description,debit,credit,balance
2025-01-01,BALANCE BROUGHT FORWARD,,479507.94,479507.94
2025-01-10,ABC INSURANCE PREMIUM,1200.00,,478307.94
2025-01-25,XG SALARIES,25000.00,,453307.94
`

// initWorkspace runs acc init in a temp dir and returns the dir.
func initWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := runAcc(t, "init", dir, "--name", "Test Co")
	require.NoError(t, err)
	return dir
}

func writeStatement(t *testing.T, dir string) {
	t.Helper()
	path := filepath.Join(dir, "import", "jan.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleStatement), 0o644))
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initWorkspace(t)

	expectedDirs := []string{
		"rules",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	for _, f := range []string{"acc.yaml", "ledger.db", filepath.Join("rules", "classification-rules.yaml")} {
		_, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, "file %s should exist", f)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runAcc(t, "init", dir, "--name", "My Company")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "acc.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: My Company")
	assert.Contains(t, contents, "id: my-company")
	assert.Contains(t, contents, "bank_account: 1100")
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runAcc(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestImport_ScansImportDir(t *testing.T) {
	dir := initWorkspace(t)
	writeStatement(t, dir)

	out, err := runAcc(t, "import", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "3 imported, 0 skipped")

	// File moved to import/processed/.
	_, err = os.Stat(filepath.Join(dir, "import", "processed", "jan.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "import", "jan.csv"))
	require.Error(t, err)
}

func TestImport_Reimport(t *testing.T) {
	dir := initWorkspace(t)
	writeStatement(t, dir)

	out, err := runAcc(t, "import", "--dir", dir)
	require.NoError(t, err, out)

	// Same content again: every row is skipped.
	writeStatement(t, dir)
	out, err = runAcc(t, "import", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 imported, 3 skipped")
}

func TestWorkflow_ClassifyGenerateTrialBalance(t *testing.T) {
	dir := initWorkspace(t)
	writeStatement(t, dir)

	out, err := runAcc(t, "import", "--dir", dir)
	require.NoError(t, err, out)

	// Seed rules cover INSURANCE and SALARIES; the opening row stays
	// unclassified and becomes the opening balance entry.
	out, err = runAcc(t, "classify", "2025-01", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Processed 3 transactions: 2 classified, 1 awaiting review")

	out, err = runAcc(t, "generate", "2025-01", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Generated 3 entries")

	out, err = runAcc(t, "trial-balance", "2025-01", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "453307.94")
	assert.Contains(t, out, "479507.94")
	assert.Contains(t, out, "505507.94")
}

func TestWorkflow_BalanceSingleAccount(t *testing.T) {
	dir := initWorkspace(t)
	writeStatement(t, dir)

	_, err := runAcc(t, "import", "--dir", dir)
	require.NoError(t, err)
	_, err = runAcc(t, "classify", "2025-01", "--dir", dir)
	require.NoError(t, err)
	_, err = runAcc(t, "generate", "2025-01", "--dir", dir)
	require.NoError(t, err)

	out, err := runAcc(t, "balance", "1100", "2025-01", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Bank Account")
	assert.Contains(t, out, "453307.94 DEBIT")
}

func TestWorkflow_ApproveBlocksReprocess(t *testing.T) {
	dir := initWorkspace(t)
	writeStatement(t, dir)

	_, err := runAcc(t, "import", "--dir", dir)
	require.NoError(t, err)
	_, err = runAcc(t, "classify", "2025-01", "--dir", dir)
	require.NoError(t, err)
	_, err = runAcc(t, "generate", "2025-01", "--dir", dir)
	require.NoError(t, err)

	out, err := runAcc(t, "approve", "2025-01", "--dir", dir)
	require.NoError(t, err, out)

	out, err = runAcc(t, "reprocess", "2025-01", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "approved")

	out, err = runAcc(t, "reprocess", "2025-01", "--unlock", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Reprocessed 2025-01: 3 entries")
}

func TestWorkflow_CorrectAppliesToSimilar(t *testing.T) {
	dir := initWorkspace(t)
	statement := `date,description,debit,credit,balance
2025-01-05,ZZ COURIER 01,80.00,,920.00
2025-01-12,ZZ COURIER 02,80.00,,840.00
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "jan.csv"), []byte(statement), 0o644))

	_, err := runAcc(t, "import", "--dir", dir)
	require.NoError(t, err)
	_, err = runAcc(t, "classify", "2025-01", "--dir", dir)
	require.NoError(t, err)

	// Transaction ids start at 1 in a fresh workspace.
	out, err := runAcc(t, "correct", "1", "8900", "--apply-similar", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"ZZ COURIER"`)
	assert.Contains(t, out, "re-classified 2 similar")
}

func TestHistory(t *testing.T) {
	dir := initWorkspace(t)
	writeStatement(t, dir)

	_, err := runAcc(t, "import", "--dir", dir)
	require.NoError(t, err)
	_, err = runAcc(t, "classify", "2025-01", "--dir", dir)
	require.NoError(t, err)

	out, err := runAcc(t, "history", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "classify-all")
}

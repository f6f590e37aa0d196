package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sthwalo/acc/internal/auditlog"
	"github.com/sthwalo/acc/internal/balance"
	"github.com/sthwalo/acc/internal/config"
	"github.com/sthwalo/acc/internal/feed"
	"github.com/sthwalo/acc/internal/journal"
	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/registry"
	"github.com/sthwalo/acc/internal/rules"
	"github.com/sthwalo/acc/internal/store"
)

type fixture struct {
	db    *store.DB
	reg   *registry.Service
	rules *rules.Service
	jour  *journal.Service
	calc  *balance.Calculator
	coord *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := registry.NewService(db, registry.NewTaxonomy(config.DefaultTaxonomy()))
	require.NoError(t, reg.InitializeChart("acme"))

	rl := rules.NewService(db, rules.NewCache())
	require.NoError(t, rl.Add("acme", "INSURANCE", model.MatchSubstring, rules.SeedPriority, 8800))
	require.NoError(t, rl.Add("acme", "SALARIES", model.MatchSubstring, rules.SeedPriority, 8100))

	jour := journal.NewService(db, reg, journal.Config{
		BankAccount:           1100,
		OpeningBalanceAccount: 3100,
		OpeningBalanceMarker:  "BALANCE BROUGHT FORWARD",
	})
	audit := auditlog.NewService(db)

	return &fixture{
		db:    db,
		reg:   reg,
		rules: rl,
		jour:  jour,
		calc:  balance.NewCalculator(db, reg),
		coord: New(db, reg, rl, jour, audit),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// loadCSV parses and loads statement rows for the test company.
func (f *fixture) loadCSV(t *testing.T, csv string) int {
	t.Helper()
	p := &feed.StatementCSVParser{}
	rows, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	result, err := feed.Load(f.db, "acme", rows)
	require.NoError(t, err)
	return result.Inserted
}

// loadScenario loads the standard three-row January statement: an
// opening balance sentinel plus one insurance and one salary payment.
func (f *fixture) loadScenario(t *testing.T) {
	t.Helper()
	n := f.loadCSV(t, `date,description,debit,credit,balance
2025-01-01,BALANCE BROUGHT FORWARD,,479507.94,479507.94
2025-01-10,ABC INSURANCE PREMIUM,1200.00,,478307.94
2025-01-25,XG SALARIES,25000.00,,453307.94
`)
	require.Equal(t, 3, n)
}

// poisonSalariesRule inserts a high-priority rule pointing at a code
// outside every taxonomy range, so generating the salaries entry fails.
func (f *fixture) poisonSalariesRule(t *testing.T) {
	t.Helper()
	_, err := f.db.Exec(
		`INSERT INTO rules (company_id, pattern, kind, priority, account_code, active)
		 VALUES ('acme', 'XG SALARIES', 'substring', ?, 7500, 1)`,
		rules.ManualPriority)
	require.NoError(t, err)
	f.rules.Invalidate("acme")
}

func (f *fixture) trialBalanceString(t *testing.T, periodID string) string {
	t.Helper()
	tb, err := f.calc.TrialBalance("acme", periodID)
	require.NoError(t, err)

	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].AccountCode < tb.Rows[j].AccountCode })
	var b strings.Builder
	for _, row := range tb.Rows {
		fmt.Fprintf(&b, "%d|%s|%s|%s|%s|%s\n",
			row.AccountCode, row.Opening.String(), row.Debits.String(),
			row.Credits.String(), row.Closing.String(), row.Side)
	}
	fmt.Fprintf(&b, "totals|%s|%s", tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
	return b.String()
}

func (f *fixture) countEntries(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM journal_entries`).Scan(&n))
	return n
}

func (f *fixture) transactionID(t *testing.T, description string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, f.db.QueryRow(
		`SELECT id FROM transactions WHERE description = ?`, description).Scan(&id))
	return id
}

func TestClassifyAll(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	result, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Classified)
	assert.Equal(t, 1, result.Unclassified, "the brought-forward row matches no rule")
	assert.Zero(t, result.Failed)
}

func TestGenerateAllScenario(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	_, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)

	result, err := f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Generated, "opening entry plus insurance and salaries")
	assert.Zero(t, result.Failed)

	period, err := GetPeriod(f.db, "acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, model.PeriodProcessed, period.Status)

	tb, err := f.calc.TrialBalance("acme", "2025-01")
	require.NoError(t, err)
	assert.True(t, tb.Balanced())
	assert.Equal(t, "505507.94", tb.TotalDebits.StringFixed(2))
	assert.Equal(t, "505507.94", tb.TotalCredits.StringFixed(2))
}

func TestGenerateAllIdempotent(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	_, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	first, err := f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)
	require.Equal(t, 3, first.Generated)
	before := f.trialBalanceString(t, "2025-01")

	second, err := f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)
	assert.Zero(t, second.Generated)
	assert.Equal(t, 3, second.SkippedExisting)
	assert.Equal(t, 3, f.countEntries(t))
	assert.Equal(t, before, f.trialBalanceString(t, "2025-01"), "balances unchanged")
}

func TestGenerateAllIsolatesBadTransaction(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)
	f.poisonSalariesRule(t)

	_, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)

	result, err := f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Generated, "the opening and insurance entries still post")
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0].Reason, "7500")
	assert.Equal(t, 2, f.countEntries(t))
}

func TestReprocessDeterministic(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	_, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	_, err = f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)

	first, err := f.coord.ReprocessPeriod("acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 3, first.Generated)
	after1 := f.trialBalanceString(t, "2025-01")

	second, err := f.coord.ReprocessPeriod("acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, first.Generated, second.Generated)
	after2 := f.trialBalanceString(t, "2025-01")

	assert.Equal(t, after1, after2, "consecutive reprocesses yield identical balances")
	assert.Equal(t, 3, f.countEntries(t))
}

func TestReprocessPreservesManualEntries(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	_, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	_, err = f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)

	_, err = f.jour.AddManual(journal.ManualParams{
		CompanyID:   "acme",
		PeriodID:    "2025-01",
		Date:        time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		Description: "Depreciation adjustment",
		Lines: []model.JournalLine{
			{AccountCode: 8900, Debit: dec("500.00")},
			{AccountCode: 3200, Credit: dec("500.00")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 4, f.countEntries(t))

	_, err = f.coord.ReprocessPeriod("acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 4, f.countEntries(t), "3 regenerated system entries plus the surviving manual one")

	entries, err := f.jour.EntriesForPeriod("acme", "2025-01")
	require.NoError(t, err)
	manual := 0
	for _, e := range entries {
		if e.Origin == model.OriginManual {
			manual++
		}
	}
	assert.Equal(t, 1, manual)
}

func TestReprocessRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	_, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	_, err = f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)
	before := f.trialBalanceString(t, "2025-01")
	require.Equal(t, 3, f.countEntries(t))

	f.poisonSalariesRule(t)

	_, err = f.coord.ReprocessPeriod("acme", "2025-01")
	require.Error(t, err)

	// The delete, re-classify, and regenerate all rolled back together.
	assert.Equal(t, 3, f.countEntries(t))
	assert.Equal(t, before, f.trialBalanceString(t, "2025-01"))
	period, err := GetPeriod(f.db, "acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, model.PeriodProcessed, period.Status)
}

func TestApprovalGovernance(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	err := f.coord.Approve("acme", "2025-01")
	require.Error(t, err, "open periods cannot be approved")

	_, err = f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	_, err = f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)

	require.NoError(t, f.coord.Approve("acme", "2025-01"))

	_, err = f.coord.ReprocessPeriod("acme", "2025-01")
	require.ErrorIs(t, err, ErrPeriodApproved)

	require.NoError(t, f.coord.Unlock("acme", "2025-01"))
	_, err = f.coord.ReprocessPeriod("acme", "2025-01")
	require.NoError(t, err)
}

func TestUnlockedPolicyBypassesApproval(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	_, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	_, err = f.coord.GenerateAll("acme", "2025-01")
	require.NoError(t, err)
	require.NoError(t, f.coord.Approve("acme", "2025-01"))

	_, err = f.coord.WithPolicy(UnlockedPolicy{}).ReprocessPeriod("acme", "2025-01")
	require.NoError(t, err)
}

func TestCorrectLearnsAndReclassifies(t *testing.T) {
	f := newFixture(t)
	n := f.loadCSV(t, `date,description,debit,credit,balance
2025-01-05,ZZ COURIER 01,80.00,,920.00
2025-01-12,ZZ COURIER 02,80.00,,840.00
`)
	require.Equal(t, 2, n)

	result, err := f.coord.ClassifyAll("acme", "2025-01")
	require.NoError(t, err)
	require.Equal(t, 2, result.Unclassified)

	corr, err := f.coord.Correct(f.transactionID(t, "ZZ COURIER 01"), 8900, true)
	require.NoError(t, err)
	assert.Equal(t, "ZZ COURIER", corr.Pattern)
	assert.Equal(t, model.MatchSubstring, corr.Kind)
	assert.Equal(t, 2, corr.Reclassified, "both courier rows re-classify")

	var count int
	require.NoError(t, f.db.QueryRow(
		`SELECT COUNT(*) FROM classifications WHERE account_code = 8900`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestCorrectRejectsUnknownCodeRange(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	_, err := f.coord.Correct(f.transactionID(t, "ABC INSURANCE PREMIUM"), 7500, false)
	require.Error(t, err)
	var verr registry.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestClassifySingleTransaction(t *testing.T) {
	f := newFixture(t)
	f.loadScenario(t)

	res, err := f.coord.ClassifyTransaction(f.transactionID(t, "XG SALARIES"))
	require.NoError(t, err)
	assert.Equal(t, 8100, res.AccountCode)
	assert.Equal(t, model.SourceRule, res.Source)

	res, err = f.coord.ClassifyTransaction(f.transactionID(t, "BALANCE BROUGHT FORWARD"))
	require.NoError(t, err)
	assert.True(t, res.Unclassified())
}

package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sthwalo/acc/internal/config"
	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/registry"
	"github.com/sthwalo/acc/internal/store"
)

func testConfig() Config {
	return Config{
		BankAccount:           1100,
		OpeningBalanceAccount: 3100,
		OpeningBalanceMarker:  "BALANCE BROUGHT FORWARD",
	}
}

func newTestService(t *testing.T) (*Service, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := registry.NewService(db, registry.NewTaxonomy(config.DefaultTaxonomy()))
	require.NoError(t, reg.InitializeChart("acme"))

	return NewService(db, reg, testConfig()), db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bankTx(id int64, day int, desc, debit, credit string) model.Transaction {
	tx := model.Transaction{
		ID:          id,
		CompanyID:   "acme",
		PeriodID:    "2025-01",
		Date:        date(2025, 1, day),
		Description: desc,
	}
	if debit != "" {
		tx.Debit = dec(debit)
	}
	if credit != "" {
		tx.Credit = dec(credit)
	}
	return tx
}

func classified(txID int64, account int) model.Classification {
	return model.Classification{TransactionID: txID, AccountCode: account, Source: model.SourceRule, RuleID: 1}
}

func TestGenerate_MoneyOut(t *testing.T) {
	svc, _ := newTestService(t)

	tx := bankTx(1, 15, "ABC INSURANCE PREMIUM", "1200.00", "")
	outcome, entry, err := svc.Generate(tx, classified(1, 8800))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)
	require.NotNil(t, entry)

	assert.Equal(t, "2025-01-001", entry.Ref)
	assert.Equal(t, model.OriginSystem, entry.Origin)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, 8800, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Debit.Equal(dec("1200.00")))
	assert.Equal(t, 1100, entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].Credit.Equal(dec("1200.00")))
	assert.True(t, entry.Balanced())
}

func TestGenerate_MoneyIn(t *testing.T) {
	svc, _ := newTestService(t)

	tx := bankTx(2, 20, "CUSTOMER DEPOSIT", "", "5000.00")
	outcome, entry, err := svc.Generate(tx, classified(2, 4100))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	require.Len(t, entry.Lines, 2)
	assert.Equal(t, 1100, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Debit.Equal(dec("5000.00")))
	assert.Equal(t, 4100, entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].Credit.Equal(dec("5000.00")))
}

func TestGenerate_UnclassifiedSkipped(t *testing.T) {
	svc, db := newTestService(t)

	tx := bankTx(3, 10, "MYSTERY PAYMENT", "50.00", "")
	cls := model.Classification{TransactionID: 3, AccountCode: model.UnclassifiedAccount, Source: model.SourceNone}

	outcome, entry, err := svc.Generate(tx, cls)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedUnclassified, outcome)
	assert.Nil(t, entry)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM journal_entries`).Scan(&n))
	assert.Zero(t, n, "no entry for unclassified transactions")
}

func TestGenerate_Idempotent(t *testing.T) {
	svc, db := newTestService(t)

	tx := bankTx(4, 12, "XG SALARIES", "25000.00", "")
	outcome, _, err := svc.Generate(tx, classified(4, 8100))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	outcome, entry, err := svc.Generate(tx, classified(4, 8100))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedExisting, outcome)
	assert.Nil(t, entry)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM journal_entries`).Scan(&n))
	assert.Equal(t, 1, n, "a transaction posts at most once")
}

func TestGenerate_OpeningBalance(t *testing.T) {
	svc, _ := newTestService(t)

	tx := bankTx(5, 1, "BALANCE BROUGHT FORWARD", "", "479507.94")
	outcome, entry, err := svc.Generate(tx, model.Classification{TransactionID: 5})
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	assert.Equal(t, date(2025, 1, 1), entry.Date, "opening entry is dated at period start")
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, 1100, entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Debit.Equal(dec("479507.94")))
	assert.Equal(t, 3100, entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].Credit.Equal(dec("479507.94")))
}

func TestGenerate_OpeningSkippedWhenEarlierPeriodsExist(t *testing.T) {
	svc, _ := newTestService(t)

	// Post a December entry first.
	dec24 := model.Transaction{
		ID: 6, CompanyID: "acme", PeriodID: "2024-12",
		Date: date(2024, 12, 5), Description: "RENT", Debit: dec("900.00"),
	}
	outcome, _, err := svc.Generate(dec24, classified(6, 8200))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	// January's brought-forward row is redundant: the opening is carried
	// from December's closing.
	bf := bankTx(7, 1, "BALANCE BROUGHT FORWARD", "", "100.00")
	outcome, _, err = svc.Generate(bf, model.Classification{TransactionID: 7})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedExisting, outcome)
}

func TestGenerate_SequentialRefs(t *testing.T) {
	svc, _ := newTestService(t)

	_, e1, err := svc.Generate(bankTx(8, 3, "RENT PAYMENT", "900.00", ""), classified(8, 8200))
	require.NoError(t, err)
	_, e2, err := svc.Generate(bankTx(9, 4, "TELEPHONE", "150.00", ""), classified(9, 8400))
	require.NoError(t, err)

	assert.Equal(t, "2025-01-001", e1.Ref)
	assert.Equal(t, "2025-01-002", e2.Ref)
}

func TestAddManual(t *testing.T) {
	svc, _ := newTestService(t)

	entry, err := svc.AddManual(ManualParams{
		CompanyID:   "acme",
		PeriodID:    "2025-01",
		Date:        date(2025, 1, 31),
		Description: "Accrual adjustment",
		Lines: []model.JournalLine{
			{AccountCode: 8600, Debit: dec("300.00")},
			{AccountCode: 2100, Credit: dec("300.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OriginManual, entry.Origin)
	assert.Zero(t, entry.SourceTransactionID)

	loaded, err := svc.EntriesForPeriod("acme", "2025-01")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, model.OriginManual, loaded[0].Origin)
	require.Len(t, loaded[0].Lines, 2)
}

func TestAddManual_UnbalancedRejected(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.AddManual(ManualParams{
		CompanyID:   "acme",
		PeriodID:    "2025-01",
		Date:        date(2025, 1, 31),
		Description: "Bad adjustment",
		Lines: []model.JournalLine{
			{AccountCode: 8600, Debit: dec("300.00")},
			{AccountCode: 2100, Credit: dec("200.00")},
		},
	})
	require.Error(t, err)
	var ierr IntegrityError
	assert.ErrorAs(t, err, &ierr)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM journal_entries`).Scan(&n))
	assert.Zero(t, n, "nothing is written for an unbalanced entry")
}

func TestDeleteSystemEntriesPreservesManual(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Generate(bankTx(10, 5, "RENT PAYMENT", "900.00", ""), classified(10, 8200))
	require.NoError(t, err)
	_, err = svc.AddManual(ManualParams{
		CompanyID: "acme", PeriodID: "2025-01", Date: date(2025, 1, 31),
		Description: "Adjustment",
		Lines: []model.JournalLine{
			{AccountCode: 8600, Debit: dec("10.00")},
			{AccountCode: 2100, Credit: dec("10.00")},
		},
	})
	require.NoError(t, err)

	deleted, err := svc.DeleteSystemEntries("acme", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := svc.EntriesForPeriod("acme", "2025-01")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, model.OriginManual, remaining[0].Origin)
}

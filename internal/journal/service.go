// Package journal converts classified transactions into balanced
// double-entry journal records and owns the entry invariants.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sthwalo/acc/internal/id"
	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/rules"
	"github.com/sthwalo/acc/internal/store"
)

// Outcome says what Generate did with one transaction.
type Outcome string

const (
	OutcomeCreated             Outcome = "created"
	OutcomeSkippedExisting     Outcome = "skipped-existing"
	OutcomeSkippedUnclassified Outcome = "skipped-unclassified"
)

// Config fixes the accounts the generator posts against and the
// opening-balance sentinel.
type Config struct {
	BankAccount           int
	OpeningBalanceAccount int
	OpeningBalanceMarker  string // description prefix, e.g. "BALANCE BROUGHT FORWARD"
}

// Service generates journal entries. Insertion of an entry's header and
// lines always happens on one Querier; callers run Generate inside a
// store transaction to make header + lines a single unit.
type Service struct {
	db  store.Querier
	acc Accounts
	cfg Config
}

// NewService creates a journal Service.
func NewService(db store.Querier, acc Accounts, cfg Config) *Service {
	return &Service{db: db, acc: acc, cfg: cfg}
}

// WithTx returns a Service bound to a transaction.
func (s *Service) WithTx(tx *sql.Tx, acc Accounts) *Service {
	return &Service{db: tx, acc: acc, cfg: s.cfg}
}

// Generate converts one classified transaction into a journal entry.
// Unclassified transactions and transactions that already have an entry
// are skipped, never errors: skipping is what makes generation
// idempotent and leaves pending work visible.
func (s *Service) Generate(tx model.Transaction, cls model.Classification) (Outcome, *model.JournalEntry, error) {
	exists, err := s.entryExistsFor(tx.CompanyID, tx.ID)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return OutcomeSkippedExisting, nil, nil
	}

	if s.isOpeningBalance(tx) {
		return s.generateOpening(tx)
	}

	if cls.Unclassified() {
		return OutcomeSkippedUnclassified, nil, nil
	}

	counter, err := s.acc.GetOrCreateAccount(tx.CompanyID, cls.AccountCode, fmt.Sprintf("Account %d", cls.AccountCode))
	if err != nil {
		return "", nil, err
	}

	entry, err := s.newEntry(tx.CompanyID, tx.PeriodID, tx.Date, tx.Description, tx.ID)
	if err != nil {
		return "", nil, err
	}

	amount := tx.Amount()
	if tx.MoneyIn() {
		entry.Lines = []model.JournalLine{
			line(entry.Ref, s.cfg.BankAccount, amount, decimal.Zero, tx),
			line(entry.Ref, counter.Code, decimal.Zero, amount, tx),
		}
	} else {
		entry.Lines = []model.JournalLine{
			line(entry.Ref, counter.Code, amount, decimal.Zero, tx),
			line(entry.Ref, s.cfg.BankAccount, decimal.Zero, amount, tx),
		}
	}

	if err := s.insert(entry); err != nil {
		return "", nil, err
	}
	return OutcomeCreated, &entry, nil
}

// generateOpening posts the brought-forward balance against the
// opening-balance equity account, dated at the period start. It only
// fires for a company's first recorded period: once earlier periods hold
// entries, openings are carried by the balance calculator and later
// sentinel rows are redundant.
func (s *Service) generateOpening(tx model.Transaction) (Outcome, *model.JournalEntry, error) {
	earlier, err := s.entriesBefore(tx.CompanyID, tx.PeriodID)
	if err != nil {
		return "", nil, err
	}
	if earlier {
		return OutcomeSkippedExisting, nil, nil
	}

	start, err := model.PeriodStart(tx.PeriodID)
	if err != nil {
		return "", nil, err
	}

	entry, err := s.newEntry(tx.CompanyID, tx.PeriodID, start, tx.Description, tx.ID)
	if err != nil {
		return "", nil, err
	}

	amount := tx.Amount()
	if tx.MoneyIn() {
		// Positive balance brought forward: bank up, equity up.
		entry.Lines = []model.JournalLine{
			line(entry.Ref, s.cfg.BankAccount, amount, decimal.Zero, tx),
			line(entry.Ref, s.cfg.OpeningBalanceAccount, decimal.Zero, amount, tx),
		}
	} else {
		// Overdrawn opening.
		entry.Lines = []model.JournalLine{
			line(entry.Ref, s.cfg.OpeningBalanceAccount, amount, decimal.Zero, tx),
			line(entry.Ref, s.cfg.BankAccount, decimal.Zero, amount, tx),
		}
	}

	if err := s.insert(entry); err != nil {
		return "", nil, err
	}
	return OutcomeCreated, &entry, nil
}

// ManualParams describes a manually entered adjustment.
type ManualParams struct {
	CompanyID   string
	PeriodID    string
	Date        time.Time
	Description string
	Lines       []model.JournalLine
}

// AddManual records a balanced manual entry. Manual entries carry no
// source transaction and survive reprocessing.
func (s *Service) AddManual(p ManualParams) (*model.JournalEntry, error) {
	entry, err := s.newEntry(p.CompanyID, p.PeriodID, p.Date, p.Description, 0)
	if err != nil {
		return nil, err
	}
	entry.Origin = model.OriginManual
	for _, l := range p.Lines {
		l.EntryRef = entry.Ref
		l.SourceTransactionID = 0
		entry.Lines = append(entry.Lines, l)
	}

	if err := s.insert(entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// EntriesForPeriod loads a period's entries with their lines, ordered by
// reference.
func (s *Service) EntriesForPeriod(companyID, periodID string) ([]model.JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT ref, company_id, period_id, date, description, origin, COALESCE(source_transaction_id, 0)
		 FROM journal_entries
		 WHERE company_id = ? AND period_id = ?
		 ORDER BY ref`,
		companyID, periodID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}
	defer rows.Close()

	var entries []model.JournalEntry
	for rows.Next() {
		var e model.JournalEntry
		var dateStr, origin string
		if err := rows.Scan(&e.Ref, &e.CompanyID, &e.PeriodID, &dateStr, &e.Description, &origin, &e.SourceTransactionID); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing entry date: %w", err)
		}
		e.Origin = model.EntryOrigin(origin)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		lines, err := s.linesFor(companyID, entries[i].Ref)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

// DeleteSystemEntries removes a period's system-generated entries and
// their lines. Manual entries are preserved. Used only by the
// reprocessing coordinator inside its transaction.
func (s *Service) DeleteSystemEntries(companyID, periodID string) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM journal_entries
		 WHERE company_id = ? AND period_id = ? AND origin = ?`,
		companyID, periodID, string(model.OriginSystem),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting system entries: %w", err)
	}
	return res.RowsAffected()
}

func (s *Service) newEntry(companyID, periodID string, date time.Time, description string, sourceTxID int64) (model.JournalEntry, error) {
	seq, err := s.nextSeq(companyID, periodID)
	if err != nil {
		return model.JournalEntry{}, err
	}
	return model.JournalEntry{
		Ref:                 id.FormatRef(periodID, seq),
		CompanyID:           companyID,
		PeriodID:            periodID,
		Date:                date,
		Description:         description,
		Origin:              model.OriginSystem,
		SourceTransactionID: sourceTxID,
	}, nil
}

// nextSeq returns the next entry sequence for a period, skipping past
// surviving manual entries so references never collide.
func (s *Service) nextSeq(companyID, periodID string) (int, error) {
	rows, err := s.db.Query(
		`SELECT ref FROM journal_entries WHERE company_id = ? AND period_id = ?`,
		companyID, periodID,
	)
	if err != nil {
		return 0, fmt.Errorf("reading entry refs: %w", err)
	}
	defer rows.Close()

	maxSeq := 0
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return 0, err
		}
		_, seq, err := id.ParseRef(ref)
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq + 1, rows.Err()
}

func (s *Service) insert(e model.JournalEntry) error {
	if err := ValidateEntry(e, s.acc); err != nil {
		return err
	}

	var sourceID any
	if e.SourceTransactionID != 0 {
		sourceID = e.SourceTransactionID
	}
	if _, err := s.db.Exec(
		`INSERT INTO journal_entries (ref, company_id, period_id, date, description, origin, source_transaction_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Ref, e.CompanyID, e.PeriodID, e.Date.Format("2006-01-02"), e.Description, string(e.Origin), sourceID,
	); err != nil {
		return fmt.Errorf("inserting entry %s: %w", e.Ref, err)
	}

	for _, l := range e.Lines {
		var lineSource any
		if l.SourceTransactionID != 0 {
			lineSource = l.SourceTransactionID
		}
		if _, err := s.db.Exec(
			`INSERT INTO journal_entry_lines (company_id, entry_ref, account_code, debit, credit, counterparty, source_transaction_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.CompanyID, e.Ref, l.AccountCode, l.Debit.String(), l.Credit.String(), l.Counterparty, lineSource,
		); err != nil {
			return fmt.Errorf("inserting line for entry %s: %w", e.Ref, err)
		}
	}
	return nil
}

func (s *Service) linesFor(companyID, ref string) ([]model.JournalLine, error) {
	rows, err := s.db.Query(
		`SELECT entry_ref, account_code, debit, credit, counterparty, COALESCE(source_transaction_id, 0)
		 FROM journal_entry_lines
		 WHERE company_id = ? AND entry_ref = ?
		 ORDER BY id`,
		companyID, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("loading lines for %s: %w", ref, err)
	}
	defer rows.Close()

	var lines []model.JournalLine
	for rows.Next() {
		var l model.JournalLine
		var debit, credit string
		if err := rows.Scan(&l.EntryRef, &l.AccountCode, &debit, &credit, &l.Counterparty, &l.SourceTransactionID); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		l.Debit, err = decimal.NewFromString(debit)
		if err != nil {
			return nil, fmt.Errorf("parsing line debit: %w", err)
		}
		l.Credit, err = decimal.NewFromString(credit)
		if err != nil {
			return nil, fmt.Errorf("parsing line credit: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Service) entryExistsFor(companyID string, txID int64) (bool, error) {
	var ref string
	err := s.db.QueryRow(
		`SELECT ref FROM journal_entries WHERE company_id = ? AND source_transaction_id = ?`,
		companyID, txID,
	).Scan(&ref)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking for existing entry: %w", err)
	}
	return true, nil
}

func (s *Service) entriesBefore(companyID, periodID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM journal_entries WHERE company_id = ? AND period_id < ?`,
		companyID, periodID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking earlier periods: %w", err)
	}
	return n > 0, nil
}

func (s *Service) isOpeningBalance(tx model.Transaction) bool {
	return strings.HasPrefix(rules.Normalize(tx.Description), s.cfg.OpeningBalanceMarker)
}

func line(ref string, account int, debit, credit decimal.Decimal, tx model.Transaction) model.JournalLine {
	return model.JournalLine{
		EntryRef:            ref,
		AccountCode:         account,
		Debit:               debit,
		Credit:              credit,
		SourceTransactionID: tx.ID,
	}
}

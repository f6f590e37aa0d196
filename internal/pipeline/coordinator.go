// Package pipeline orchestrates the batch operations over a period:
// classify-all, generate-all, and the atomic clear-and-regenerate
// reprocess.
package pipeline

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sthwalo/acc/internal/auditlog"
	"github.com/sthwalo/acc/internal/journal"
	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/registry"
	"github.com/sthwalo/acc/internal/rules"
	"github.com/sthwalo/acc/internal/store"
)

// Coordinator owns the batch operations. It assumes a single writer per
// company and period; atomicity comes from the store's transaction
// boundaries, not from fine-grained locking.
type Coordinator struct {
	db     *store.DB
	reg    *registry.Service
	rules  *rules.Service
	jour   *journal.Service
	audit  *auditlog.Service
	policy ApprovalPolicy
}

// New creates a Coordinator with the strict approval policy.
func New(db *store.DB, reg *registry.Service, rl *rules.Service, jour *journal.Service, audit *auditlog.Service) *Coordinator {
	return &Coordinator{db: db, reg: reg, rules: rl, jour: jour, audit: audit, policy: StrictPolicy{}}
}

// WithPolicy returns a Coordinator using a different approval policy.
func (c *Coordinator) WithPolicy(p ApprovalPolicy) *Coordinator {
	out := *c
	out.policy = p
	return &out
}

// ClassifyAll classifies a period's transactions in ascending date
// order. A failing transaction is recorded and the batch continues.
func (c *Coordinator) ClassifyAll(companyID, periodID string) (model.BatchResult, error) {
	txns, err := transactionsForPeriod(c.db, companyID, periodID)
	if err != nil {
		return model.BatchResult{}, err
	}

	var result model.BatchResult
	for _, tx := range txns {
		result.Processed++
		res, err := c.rules.Classify(tx.Description, companyID)
		if err != nil {
			result.Fail(tx.ID, err.Error())
			continue
		}
		if err := saveClassification(c.db, tx.ID, res); err != nil {
			result.Fail(tx.ID, err.Error())
			continue
		}
		if res.Unclassified() {
			result.Unclassified++
		} else {
			result.Classified++
		}
	}

	c.logBatch(companyID, periodID, "classify-all",
		fmt.Sprintf("processed=%d classified=%d unclassified=%d failed=%d",
			result.Processed, result.Classified, result.Unclassified, result.Failed))
	return result, nil
}

// ClassifyTransaction classifies a single transaction and persists the
// result.
func (c *Coordinator) ClassifyTransaction(txID int64) (rules.Result, error) {
	tx, err := transactionByID(c.db, txID)
	if err != nil {
		return rules.Result{}, err
	}
	res, err := c.rules.Classify(tx.Description, tx.CompanyID)
	if err != nil {
		return rules.Result{}, err
	}
	if err := saveClassification(c.db, tx.ID, res); err != nil {
		return rules.Result{}, err
	}
	return res, nil
}

// Correct applies a manual classification to one transaction, learns a
// rule from it, and optionally re-classifies similar pending
// transactions in the same batch.
func (c *Coordinator) Correct(txID int64, accountCode int, applyToSimilar bool) (rules.CorrectionResult, error) {
	tx, err := transactionByID(c.db, txID)
	if err != nil {
		return rules.CorrectionResult{}, err
	}

	if _, _, err := c.reg.ResolveCategory(accountCode); err != nil {
		return rules.CorrectionResult{}, err
	}

	var corr rules.CorrectionResult
	err = c.db.Transaction(func(dbtx *sql.Tx) error {
		rl := c.rules.WithTx(dbtx)
		corr, err = rl.LearnFromCorrection(tx.Description, accountCode, tx.CompanyID, applyToSimilar)
		if err != nil {
			return err
		}
		if err := saveClassification(dbtx, tx.ID, rules.Result{
			AccountCode: accountCode,
			Source:      model.SourceManual,
		}); err != nil {
			return err
		}
		return c.audit.WithTx(dbtx).Append(auditlog.Entry{
			CompanyID: tx.CompanyID,
			PeriodID:  tx.PeriodID,
			Operation: "correct",
			Details: fmt.Sprintf("transaction=%d account=%d pattern=%q similar=%d",
				tx.ID, accountCode, corr.Pattern, corr.Reclassified),
		})
	})
	if err != nil {
		return rules.CorrectionResult{}, err
	}
	return corr, nil
}

// GenerateAll generates journal entries for a period's classified
// transactions in ascending date order. Each entry is its own
// transaction so one bad transaction cannot poison the batch. A full
// pass marks the period processed.
func (c *Coordinator) GenerateAll(companyID, periodID string) (model.BatchResult, error) {
	txns, err := transactionsForPeriod(c.db, companyID, periodID)
	if err != nil {
		return model.BatchResult{}, err
	}

	var result model.BatchResult
	for _, tx := range txns {
		result.Processed++
		cls, err := classificationFor(c.db, tx.ID)
		if err != nil {
			result.Fail(tx.ID, err.Error())
			continue
		}

		var outcome journal.Outcome
		err = c.db.Transaction(func(dbtx *sql.Tx) error {
			var genErr error
			outcome, _, genErr = c.jour.WithTx(dbtx, c.reg.WithTx(dbtx)).Generate(tx, cls)
			return genErr
		})
		if err != nil {
			// Data-level problems fail the one transaction; anything
			// else is an infrastructure error and aborts the batch.
			var ierr journal.IntegrityError
			var verr registry.ValidationError
			if errors.As(err, &ierr) || errors.As(err, &verr) {
				result.Fail(tx.ID, err.Error())
				continue
			}
			return result, fmt.Errorf("generating entry for transaction %d: %w", tx.ID, err)
		}

		switch outcome {
		case journal.OutcomeCreated:
			result.Generated++
		case journal.OutcomeSkippedExisting:
			result.SkippedExisting++
		case journal.OutcomeSkippedUnclassified:
			result.SkippedUnclassified++
		}
	}

	if err := setPeriodStatus(c.db, companyID, periodID, model.PeriodProcessed); err != nil {
		return result, err
	}

	c.logBatch(companyID, periodID, "generate",
		fmt.Sprintf("generated=%d skipped_existing=%d skipped_unclassified=%d failed=%d",
			result.Generated, result.SkippedExisting, result.SkippedUnclassified, result.Failed))
	return result, nil
}

// ReprocessPeriod atomically clears and regenerates a period's derived
// ledger data: system entries are deleted (manual ones survive), the
// period re-opens, every transaction is re-classified and re-generated,
// and the period is marked processed again. Any failure rolls the whole
// operation back, leaving the period exactly as it was. Re-entrant:
// consecutive calls with unchanged inputs produce identical entries and
// balances.
func (c *Coordinator) ReprocessPeriod(companyID, periodID string) (model.BatchResult, error) {
	period, err := GetPeriod(c.db, companyID, periodID)
	if err != nil {
		return model.BatchResult{}, err
	}
	if err := c.policy.AllowReprocess(period); err != nil {
		return model.BatchResult{}, err
	}

	var result model.BatchResult
	err = c.db.Transaction(func(dbtx *sql.Tx) error {
		reg := c.reg.WithTx(dbtx)
		rl := c.rules.WithTx(dbtx)
		jour := c.jour.WithTx(dbtx, reg)

		if _, err := jour.DeleteSystemEntries(companyID, periodID); err != nil {
			return err
		}
		if err := setPeriodStatus(dbtx, companyID, periodID, model.PeriodOpen); err != nil {
			return err
		}

		txns, err := transactionsForPeriod(dbtx, companyID, periodID)
		if err != nil {
			return err
		}

		for _, tx := range txns {
			result.Processed++
			res, err := rl.Classify(tx.Description, companyID)
			if err != nil {
				return fmt.Errorf("classifying transaction %d: %w", tx.ID, err)
			}
			if err := saveClassification(dbtx, tx.ID, res); err != nil {
				return err
			}
			if res.Unclassified() {
				result.Unclassified++
			} else {
				result.Classified++
			}

			outcome, _, err := jour.Generate(tx, model.Classification{
				TransactionID: tx.ID,
				AccountCode:   res.AccountCode,
				Source:        res.Source,
				RuleID:        res.RuleID,
			})
			if err != nil {
				return fmt.Errorf("generating entry for transaction %d: %w", tx.ID, err)
			}
			switch outcome {
			case journal.OutcomeCreated:
				result.Generated++
			case journal.OutcomeSkippedExisting:
				result.SkippedExisting++
			case journal.OutcomeSkippedUnclassified:
				result.SkippedUnclassified++
			}
		}

		if err := setPeriodStatus(dbtx, companyID, periodID, model.PeriodProcessed); err != nil {
			return err
		}
		return c.audit.WithTx(dbtx).Append(auditlog.Entry{
			CompanyID: companyID,
			PeriodID:  periodID,
			Operation: "reprocess",
			Details: fmt.Sprintf("processed=%d generated=%d unclassified=%d",
				result.Processed, result.Generated, result.Unclassified),
		})
	})
	if err != nil {
		// The rule cache may have seen mutations that rolled back.
		c.rules.Invalidate(companyID)
		return model.BatchResult{}, err
	}
	return result, nil
}

// Approve marks a processed period approved.
func (c *Coordinator) Approve(companyID, periodID string) error {
	period, err := GetPeriod(c.db, companyID, periodID)
	if err != nil {
		return err
	}
	if period.Status != model.PeriodProcessed {
		return fmt.Errorf("period %s is %s, only processed periods can be approved", periodID, period.Status)
	}
	if err := setPeriodStatus(c.db, companyID, periodID, model.PeriodApproved); err != nil {
		return err
	}
	c.logBatch(companyID, periodID, "approve", "")
	return nil
}

// Unlock returns an approved period to processed so it may be
// reprocessed.
func (c *Coordinator) Unlock(companyID, periodID string) error {
	period, err := GetPeriod(c.db, companyID, periodID)
	if err != nil {
		return err
	}
	if period.Status != model.PeriodApproved {
		return fmt.Errorf("period %s is %s, nothing to unlock", periodID, period.Status)
	}
	if err := setPeriodStatus(c.db, companyID, periodID, model.PeriodProcessed); err != nil {
		return err
	}
	c.logBatch(companyID, periodID, "unlock", "")
	return nil
}

// GetPeriod returns a period's state, defaulting to open for periods
// never seen before.
func GetPeriod(q store.Querier, companyID, periodID string) (model.Period, error) {
	if _, err := q.Exec(
		`INSERT INTO periods (company_id, period_id, status) VALUES (?, ?, ?)
		 ON CONFLICT(company_id, period_id) DO NOTHING`,
		companyID, periodID, string(model.PeriodOpen),
	); err != nil {
		return model.Period{}, fmt.Errorf("ensuring period row: %w", err)
	}

	var status string
	if err := q.QueryRow(
		`SELECT status FROM periods WHERE company_id = ? AND period_id = ?`,
		companyID, periodID,
	).Scan(&status); err != nil {
		return model.Period{}, fmt.Errorf("loading period: %w", err)
	}
	return model.Period{CompanyID: companyID, ID: periodID, Status: model.PeriodStatus(status)}, nil
}

func setPeriodStatus(q store.Querier, companyID, periodID string, status model.PeriodStatus) error {
	if _, err := q.Exec(
		`INSERT INTO periods (company_id, period_id, status) VALUES (?, ?, ?)
		 ON CONFLICT(company_id, period_id) DO UPDATE SET status = excluded.status`,
		companyID, periodID, string(status),
	); err != nil {
		return fmt.Errorf("setting period %s to %s: %w", periodID, status, err)
	}
	return nil
}

func transactionsForPeriod(q store.Querier, companyID, periodID string) ([]model.Transaction, error) {
	rows, err := q.Query(
		`SELECT id, company_id, period_id, date, description, debit, credit, running_balance
		 FROM transactions
		 WHERE company_id = ? AND period_id = ?
		 ORDER BY date ASC, id ASC`,
		companyID, periodID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading period transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		txns = append(txns, tx)
	}
	return txns, rows.Err()
}

func transactionByID(q store.Querier, txID int64) (model.Transaction, error) {
	row := q.QueryRow(
		`SELECT id, company_id, period_id, date, description, debit, credit, running_balance
		 FROM transactions WHERE id = ?`, txID)
	tx, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("transaction %d does not exist", txID)
	}
	return tx, err
}

func scanTransaction(scan func(...any) error) (model.Transaction, error) {
	var tx model.Transaction
	var dateStr, debit, credit, balance string
	if err := scan(&tx.ID, &tx.CompanyID, &tx.PeriodID, &dateStr, &tx.Description, &debit, &credit, &balance); err != nil {
		return model.Transaction{}, err
	}

	var err error
	tx.Date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing transaction date %q: %w", dateStr, err)
	}
	if tx.Debit, err = decimal.NewFromString(debit); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing debit %q: %w", debit, err)
	}
	if tx.Credit, err = decimal.NewFromString(credit); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing credit %q: %w", credit, err)
	}
	if tx.RunningBalance, err = decimal.NewFromString(balance); err != nil {
		return model.Transaction{}, fmt.Errorf("parsing running balance %q: %w", balance, err)
	}
	return tx, nil
}

func classificationFor(q store.Querier, txID int64) (model.Classification, error) {
	var cls model.Classification
	var source string
	err := q.QueryRow(
		`SELECT transaction_id, account_code, source, rule_id
		 FROM classifications WHERE transaction_id = ?`, txID,
	).Scan(&cls.TransactionID, &cls.AccountCode, &source, &cls.RuleID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Classification{TransactionID: txID, Source: model.SourceNone}, nil
	}
	if err != nil {
		return model.Classification{}, fmt.Errorf("loading classification for %d: %w", txID, err)
	}
	cls.Source = model.ClassificationSource(source)
	return cls, nil
}

func saveClassification(q store.Querier, txID int64, res rules.Result) error {
	if _, err := q.Exec(
		`INSERT INTO classifications (transaction_id, account_code, source, rule_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(transaction_id) DO UPDATE SET
		     account_code = excluded.account_code,
		     source = excluded.source,
		     rule_id = excluded.rule_id`,
		txID, res.AccountCode, string(res.Source), res.RuleID,
	); err != nil {
		return fmt.Errorf("saving classification for %d: %w", txID, err)
	}
	return nil
}

func (c *Coordinator) logBatch(companyID, periodID, op, details string) {
	// Audit writes are best-effort for successful batches; the batch
	// outcome itself is already committed.
	_ = c.audit.Append(auditlog.Entry{
		CompanyID: companyID,
		PeriodID:  periodID,
		Operation: op,
		Details:   details,
	})
}

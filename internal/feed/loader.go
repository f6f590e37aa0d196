package feed

import (
	"fmt"

	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/store"
)

// LoadResult reports how many rows a Load call inserted or skipped.
type LoadResult struct {
	Inserted int
	Skipped  int // already-loaded rows, identified by fingerprint
}

// Load inserts statement rows as read-only transactions for a company.
// Each row gets a pending classification slot. Re-loading the same file
// is a no-op: rows are fingerprinted by content and position, so
// genuine duplicate statement lines still load while re-imports are
// skipped.
func Load(db store.Querier, companyID string, rows []Row) (LoadResult, error) {
	var result LoadResult
	for i, row := range rows {
		fingerprint := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
			row.Date.Format("2006-01-02"), row.Description,
			row.Debit.String(), row.Credit.String(), row.RunningBalance.String(), i)

		res, err := db.Exec(
			`INSERT INTO transactions (company_id, period_id, date, description, debit, credit, running_balance, fingerprint)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(company_id, fingerprint) DO NOTHING`,
			companyID, model.PeriodOf(row.Date), row.Date.Format("2006-01-02"),
			row.Description, row.Debit.String(), row.Credit.String(),
			row.RunningBalance.String(), fingerprint,
		)
		if err != nil {
			return result, fmt.Errorf("inserting transaction row %d: %w", i+1, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return result, err
		}
		if n == 0 {
			result.Skipped++
			continue
		}

		txID, err := res.LastInsertId()
		if err != nil {
			return result, err
		}
		if _, err := db.Exec(
			`INSERT INTO classifications (transaction_id) VALUES (?)
			 ON CONFLICT(transaction_id) DO NOTHING`, txID,
		); err != nil {
			return result, fmt.Errorf("creating classification slot for row %d: %w", i+1, err)
		}
		result.Inserted++
	}
	return result, nil
}

// Package registry owns the chart of accounts: codes, categories,
// normal-balance sides, and active state.
package registry

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/store"
)

// Service provides lookup and maintenance over the chart of accounts.
type Service struct {
	db  store.Querier
	tax *Taxonomy
}

// NewService creates a registry Service.
func NewService(db store.Querier, tax *Taxonomy) *Service {
	return &Service{db: db, tax: tax}
}

// WithTx returns a Service bound to a transaction, sharing the taxonomy.
func (s *Service) WithTx(tx *sql.Tx) *Service {
	return &Service{db: tx, tax: s.tax}
}

// InitializeChart creates the standard account set for a company if
// absent. Idempotent: repeated calls are no-ops for existing codes.
func (s *Service) InitializeChart(companyID string) error {
	for _, a := range DefaultChart() {
		if _, _, err := s.tax.Resolve(a.Code); err != nil {
			return fmt.Errorf("default chart: %w", err)
		}
		if err := s.insertIgnore(companyID, a); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreateAccount atomically creates an account if absent, else
// fetches it. Safe against concurrent callers requesting the same
// not-yet-existing code: the insert is an upsert, never check-then-insert,
// so a uniqueness race is absorbed rather than surfaced.
func (s *Service) GetOrCreateAccount(companyID string, code int, name string) (model.Account, error) {
	category, side, err := s.tax.Resolve(code)
	if err != nil {
		return model.Account{}, err
	}

	acct := model.Account{
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		Category:  category,
		Side:      side,
		Active:    true,
	}
	if err := s.insertIgnore(companyID, acct); err != nil {
		return model.Account{}, err
	}

	got, ok, err := s.Get(companyID, code)
	if err != nil {
		return model.Account{}, err
	}
	if !ok {
		// The upsert raced a concurrent delete-free table; one retry.
		if err := s.insertIgnore(companyID, acct); err != nil {
			return model.Account{}, err
		}
		got, ok, err = s.Get(companyID, code)
		if err != nil {
			return model.Account{}, err
		}
		if !ok {
			return model.Account{}, fmt.Errorf("account %d not found after upsert", code)
		}
	}
	return got, nil
}

// ResolveCategory returns the category and normal side for a code from
// the configured taxonomy.
func (s *Service) ResolveCategory(code int) (model.AccountCategory, model.NormalSide, error) {
	return s.tax.Resolve(code)
}

// Get returns an account by code. A miss is not an error.
func (s *Service) Get(companyID string, code int) (model.Account, bool, error) {
	row := s.db.QueryRow(
		`SELECT company_id, code, name, category, side, parent_code, active
		 FROM accounts WHERE company_id = ? AND code = ?`,
		companyID, code,
	)
	a, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, fmt.Errorf("loading account %d: %w", code, err)
	}
	return a, true, nil
}

// Exists reports whether an account code exists for a company.
func (s *Service) Exists(companyID string, code int) bool {
	_, ok, err := s.Get(companyID, code)
	return err == nil && ok
}

// All returns a company's accounts ordered by code.
func (s *Service) All(companyID string) ([]model.Account, error) {
	rows, err := s.db.Query(
		`SELECT company_id, code, name, category, side, parent_code, active
		 FROM accounts WHERE company_id = ? ORDER BY code`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Deactivate marks an account inactive. Accounts are never deleted;
// historical journal lines reference them.
func (s *Service) Deactivate(companyID string, code int) error {
	res, err := s.db.Exec(
		`UPDATE accounts SET active = 0 WHERE company_id = ? AND code = ?`,
		companyID, code,
	)
	if err != nil {
		return fmt.Errorf("deactivating account %d: %w", code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %d does not exist", code)
	}
	return nil
}

func (s *Service) insertIgnore(companyID string, a model.Account) error {
	_, err := s.db.Exec(
		`INSERT INTO accounts (company_id, code, name, category, side, parent_code, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(company_id, code) DO NOTHING`,
		companyID, a.Code, a.Name, string(a.Category), string(a.Side), a.ParentCode, boolInt(a.Active),
	)
	if err != nil {
		return fmt.Errorf("upserting account %d: %w", a.Code, err)
	}
	return nil
}

func scanAccount(scan func(...any) error) (model.Account, error) {
	var a model.Account
	var category, side string
	var active int
	if err := scan(&a.CompanyID, &a.Code, &a.Name, &category, &side, &a.ParentCode, &active); err != nil {
		return model.Account{}, err
	}
	a.Category = model.AccountCategory(category)
	a.Side = model.NormalSide(side)
	a.Active = active != 0
	return a, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package rules owns the ordered pattern rules that map transaction
// descriptions to accounts, and the classification engine that applies
// them.
package rules

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/store"
)

// Rule priorities. Learned rules outrank seeded ones so a manual
// correction sticks on the next classification pass.
const (
	SeedPriority   = 10
	ManualPriority = 100
)

// Result is the outcome of classifying one description.
type Result struct {
	AccountCode int // model.UnclassifiedAccount if nothing matched
	Source      model.ClassificationSource
	RuleID      int64
}

// Unclassified reports whether no rule matched.
func (r Result) Unclassified() bool {
	return r.AccountCode == model.UnclassifiedAccount
}

// Service is the rule store plus classification engine.
type Service struct {
	db    store.Querier
	cache *Cache
}

// NewService creates a rules Service. The cache may be shared across
// services; mutations invalidate it per company.
func NewService(db store.Querier, cache *Cache) *Service {
	return &Service{db: db, cache: cache}
}

// WithTx returns a Service bound to a transaction, sharing the cache.
func (s *Service) WithTx(tx *sql.Tx) *Service {
	return &Service{db: tx, cache: s.cache}
}

// Invalidate drops the cached rule set for a company. Coordinators call
// this after rolling back a transaction that mutated rules.
func (s *Service) Invalidate(companyID string) {
	s.cache.Invalidate(companyID)
}

// LoadRules returns a company's active rules in match order: priority
// descending, then specificity descending (literal before substring,
// longer patterns first), then rule id ascending. The ordering is the
// deterministic tie-break contract.
func (s *Service) LoadRules(companyID string) ([]model.Rule, error) {
	if cached, ok := s.cache.get(companyID); ok {
		return cached, nil
	}

	rows, err := s.db.Query(
		`SELECT id, company_id, pattern, kind, priority, account_code, usage_count, active
		 FROM rules
		 WHERE company_id = ? AND active = 1
		 ORDER BY priority DESC,
		          (kind = 'literal') DESC,
		          LENGTH(pattern) DESC,
		          id ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		var r model.Rule
		var kind string
		var active int
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Pattern, &kind, &r.Priority, &r.AccountCode, &r.UsageCount, &active); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		r.Kind = model.MatchKind(kind)
		r.Active = active != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cache.put(companyID, out)
	return out, nil
}

// Classify resolves a description to an account. The first rule in match
// order whose pattern matches wins; no match yields the unclassified
// sentinel, which is pending-review data, not an error. For a fixed rule
// set the resolution is a pure function of the description.
func (s *Service) Classify(description, companyID string) (Result, error) {
	ordered, err := s.LoadRules(companyID)
	if err != nil {
		return Result{}, err
	}

	desc := Normalize(description)
	for _, r := range ordered {
		if !Matches(r, desc) {
			continue
		}
		if _, err := s.db.Exec(
			`UPDATE rules SET usage_count = usage_count + 1 WHERE id = ?`, r.ID,
		); err != nil {
			return Result{}, fmt.Errorf("incrementing rule usage: %w", err)
		}
		return Result{AccountCode: r.AccountCode, Source: model.SourceRule, RuleID: r.ID}, nil
	}

	return Result{AccountCode: model.UnclassifiedAccount, Source: model.SourceNone}, nil
}

// CorrectionResult reports what LearnFromCorrection did.
type CorrectionResult struct {
	RuleID       int64
	Pattern      string
	Kind         model.MatchKind
	Reclassified int
}

// LearnFromCorrection persists a rule derived from a manual
// classification. An existing rule with the same derived pattern has its
// target account replaced and priority bumped. With applyToSimilar, all
// of the company's transactions that match the derived pattern and are
// still unclassified (or were classified by the rule being replaced) are
// re-classified in the same batch.
func (s *Service) LearnFromCorrection(description string, accountCode int, companyID string, applyToSimilar bool) (CorrectionResult, error) {
	pattern, kind := DerivePattern(description, applyToSimilar)
	if pattern == "" {
		return CorrectionResult{}, fmt.Errorf("cannot derive a pattern from %q", description)
	}

	if _, err := s.db.Exec(
		`INSERT INTO rules (company_id, pattern, kind, priority, account_code, active)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(company_id, pattern, kind) DO UPDATE SET
		     account_code = excluded.account_code,
		     priority = priority + 1,
		     active = 1`,
		companyID, pattern, string(kind), ManualPriority, accountCode,
	); err != nil {
		return CorrectionResult{}, fmt.Errorf("persisting correction rule: %w", err)
	}

	var ruleID int64
	if err := s.db.QueryRow(
		`SELECT id FROM rules WHERE company_id = ? AND pattern = ? AND kind = ?`,
		companyID, pattern, string(kind),
	).Scan(&ruleID); err != nil {
		return CorrectionResult{}, fmt.Errorf("loading correction rule: %w", err)
	}

	s.cache.Invalidate(companyID)

	result := CorrectionResult{RuleID: ruleID, Pattern: pattern, Kind: kind}
	if !applyToSimilar {
		return result, nil
	}

	n, err := s.reclassifyMatching(companyID, model.Rule{
		ID: ruleID, Pattern: pattern, Kind: kind, AccountCode: accountCode,
	})
	if err != nil {
		return CorrectionResult{}, err
	}
	result.Reclassified = n
	return result, nil
}

// reclassifyMatching re-points classifications at the corrected rule for
// every matching transaction that is unclassified or already belonged to
// this rule.
func (s *Service) reclassifyMatching(companyID string, rule model.Rule) (int, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.description
		 FROM transactions t
		 JOIN classifications c ON c.transaction_id = t.id
		 WHERE t.company_id = ? AND (c.account_code = 0 OR c.rule_id = ?)`,
		companyID, rule.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("finding similar transactions: %w", err)
	}

	type cand struct {
		id   int64
		desc string
	}
	var cands []cand
	for rows.Next() {
		var c cand
		if err := rows.Scan(&c.id, &c.desc); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning candidate: %w", err)
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	count := 0
	for _, c := range cands {
		if !Matches(rule, Normalize(c.desc)) {
			continue
		}
		if _, err := s.db.Exec(
			`UPDATE classifications SET account_code = ?, source = ?, rule_id = ?
			 WHERE transaction_id = ?`,
			rule.AccountCode, string(model.SourceRule), rule.ID, c.id,
		); err != nil {
			return count, fmt.Errorf("reclassifying transaction %d: %w", c.id, err)
		}
		count++
	}
	return count, nil
}

// Add inserts a rule directly, used for seeding. Idempotent per
// (pattern, kind).
func (s *Service) Add(companyID, pattern string, kind model.MatchKind, priority, accountCode int) error {
	norm := Normalize(pattern)
	if norm == "" {
		return fmt.Errorf("empty rule pattern")
	}
	if _, err := s.db.Exec(
		`INSERT INTO rules (company_id, pattern, kind, priority, account_code, active)
		 VALUES (?, ?, ?, ?, ?, 1)
		 ON CONFLICT(company_id, pattern, kind) DO NOTHING`,
		companyID, norm, string(kind), priority, accountCode,
	); err != nil {
		return fmt.Errorf("adding rule %q: %w", norm, err)
	}
	s.cache.Invalidate(companyID)
	return nil
}

// Normalize upper-cases a description and collapses runs of whitespace
// so pattern matching is insensitive to statement formatting.
func Normalize(description string) string {
	return strings.Join(strings.Fields(strings.ToUpper(description)), " ")
}

// Matches tests one rule against a normalized description.
func Matches(r model.Rule, normalizedDesc string) bool {
	switch r.Kind {
	case model.MatchLiteral:
		return normalizedDesc == r.Pattern
	case model.MatchSubstring:
		return strings.Contains(normalizedDesc, r.Pattern)
	default:
		return false
	}
}

// DerivePattern builds a rule pattern from a corrected description.
// A plain correction stores the whole normalized description as a
// literal rule. When the correction should apply to similar
// transactions, reference numbers and dates are stripped (tokens
// containing digits) and the remainder becomes a substring rule.
func DerivePattern(description string, applyToSimilar bool) (string, model.MatchKind) {
	norm := Normalize(description)
	if !applyToSimilar {
		return norm, model.MatchLiteral
	}

	var kept []string
	for _, tok := range strings.Fields(norm) {
		if strings.ContainsAny(tok, "0123456789") {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return norm, model.MatchLiteral
	}
	return strings.Join(kept, " "), model.MatchSubstring
}

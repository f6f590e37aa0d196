package model

// MatchKind is how a rule's pattern is compared against a description.
type MatchKind string

const (
	MatchLiteral   MatchKind = "literal"   // whole-description match
	MatchSubstring MatchKind = "substring" // contains match
)

// Rule maps transaction descriptions to an account, scoped per company.
// Rules are created at chart initialization or learned from manual
// corrections; usage counters only ever increment.
type Rule struct {
	ID          int64
	CompanyID   string
	Pattern     string
	Kind        MatchKind
	Priority    int
	AccountCode int
	UsageCount  int
	Active      bool
}

// Specificity orders rules of equal priority: literal beats substring,
// longer patterns beat shorter ones.
func (r Rule) Specificity() int {
	s := len(r.Pattern)
	if r.Kind == MatchLiteral {
		s += 1000
	}
	return s
}

// ClassificationSource records how a transaction was resolved.
type ClassificationSource string

const (
	SourceRule   ClassificationSource = "rule"
	SourceManual ClassificationSource = "manual"
	SourceNone   ClassificationSource = "none"
)

// UnclassifiedAccount is the sentinel account code for transactions no
// rule matched. It marks the transaction for manual review; it is not an
// error state.
const UnclassifiedAccount = 0

// Classification is the stored resolution of one transaction.
type Classification struct {
	TransactionID int64
	AccountCode   int // UnclassifiedAccount when unresolved
	Source        ClassificationSource
	RuleID        int64 // 0 unless Source == SourceRule
}

// Unclassified reports whether the transaction still awaits review.
func (c Classification) Unclassified() bool {
	return c.AccountCode == UnclassifiedAccount
}

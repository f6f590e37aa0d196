package model

// AccountCategory classifies accounts in the chart of accounts.
type AccountCategory string

const (
	CategoryAsset       AccountCategory = "asset"
	CategoryLiability   AccountCategory = "liability"
	CategoryEquity      AccountCategory = "equity"
	CategoryRevenue     AccountCategory = "revenue"
	CategoryCostOfSales AccountCategory = "cost-of-sales"
	CategoryOtherIncome AccountCategory = "other-income"
	CategoryExpense     AccountCategory = "expense"
	CategoryFinanceCost AccountCategory = "finance-cost"
)

// NormalSide is the side on which an account's balance naturally increases.
type NormalSide string

const (
	SideDebit  NormalSide = "debit"
	SideCredit NormalSide = "credit"
)

// Opposite returns the other side.
func (s NormalSide) Opposite() NormalSide {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// Account represents one row in the chart of accounts. Accounts are never
// hard-deleted (historical journal lines reference them); they are
// deactivated instead.
type Account struct {
	CompanyID  string
	Code       int
	Name       string
	Category   AccountCategory
	Side       NormalSide
	ParentCode int // 0 = top-level
	Active     bool
}

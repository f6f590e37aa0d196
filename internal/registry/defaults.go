package registry

import "github.com/sthwalo/acc/internal/model"

// DefaultChart returns the standard account set initialized for every
// company. Classification always resolves into this fixed set;
// counterparty detail stays on the journal line, never in a new account
// code.
func DefaultChart() []model.Account {
	mk := func(code int, name string, cat model.AccountCategory, side model.NormalSide) model.Account {
		return model.Account{Code: code, Name: name, Category: cat, Side: side, Active: true}
	}
	return []model.Account{
		mk(1100, "Bank Account", model.CategoryAsset, model.SideDebit),
		mk(1200, "Accounts Receivable", model.CategoryAsset, model.SideDebit),
		mk(1300, "Prepaid Expenses", model.CategoryAsset, model.SideDebit),
		mk(2100, "Accounts Payable", model.CategoryLiability, model.SideCredit),
		mk(2200, "Tax Payable", model.CategoryLiability, model.SideCredit),
		mk(3100, "Owner's Equity", model.CategoryEquity, model.SideCredit),
		mk(3200, "Retained Earnings", model.CategoryEquity, model.SideCredit),
		mk(4100, "Sales Revenue", model.CategoryRevenue, model.SideCredit),
		mk(4200, "Service Revenue", model.CategoryRevenue, model.SideCredit),
		mk(5100, "Cost of Goods Sold", model.CategoryCostOfSales, model.SideDebit),
		mk(6100, "Interest Income", model.CategoryOtherIncome, model.SideCredit),
		mk(8100, "Employee Costs", model.CategoryExpense, model.SideDebit),
		mk(8200, "Rent Expense", model.CategoryExpense, model.SideDebit),
		mk(8300, "Utilities", model.CategoryExpense, model.SideDebit),
		mk(8400, "Communication", model.CategoryExpense, model.SideDebit),
		mk(8500, "Bank Charges", model.CategoryExpense, model.SideDebit),
		mk(8600, "Professional Fees", model.CategoryExpense, model.SideDebit),
		mk(8700, "Repairs & Maintenance", model.CategoryExpense, model.SideDebit),
		mk(8800, "Insurance", model.CategoryExpense, model.SideDebit),
		mk(8900, "Other Operating Expenses", model.CategoryExpense, model.SideDebit),
		mk(9100, "Interest Expense", model.CategoryFinanceCost, model.SideDebit),
	}
}

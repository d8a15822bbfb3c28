package core

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"smartbiz.ai/advisor/internal/store"
)

var (
	ErrMissingCompany = errors.New("company name is required")
	ErrInvalidRevenue = errors.New("monthly revenue must be greater than zero")
)

type BusinessData struct {
	CompanyName     string          `json:"company_name"`
	Industry        string          `json:"industry"`
	MonthlyRevenue  decimal.Decimal `json:"monthly_revenue"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses"`
	EmployeeCount   int             `json:"employee_count"`
}

type BusinessReport struct {
	Company      string `json:"company"`
	Profit       string `json:"profit"`
	ProfitMargin string `json:"profit_margin"`
}

var hundred = decimal.NewFromInt(100)

// ComputeBusinessReport derives monthly profit and margin.
func ComputeBusinessReport(data BusinessData) (BusinessReport, decimal.Decimal, error) {
	if strings.TrimSpace(data.CompanyName) == "" {
		return BusinessReport{}, decimal.Zero, ErrMissingCompany
	}
	if !data.MonthlyRevenue.IsPositive() {
		return BusinessReport{}, decimal.Zero, ErrInvalidRevenue
	}
	profit := data.MonthlyRevenue.Sub(data.MonthlyExpenses)
	margin := profit.Div(data.MonthlyRevenue).Mul(hundred)

	return BusinessReport{
		Company:      data.CompanyName,
		Profit:       formatUSD(profit),
		ProfitMargin: margin.StringFixed(1) + "%",
	}, profit, nil
}

// AnalyzeBusiness computes the report and records the figures. The record
// is best-effort like chat history.
func (s *ChatService) AnalyzeBusiness(ctx context.Context, data BusinessData) (BusinessReport, error) {
	report, profit, err := ComputeBusinessReport(data)
	if err != nil {
		return BusinessReport{}, err
	}
	if s.dbStore != nil {
		rec := store.AnalyticsRecord{
			CompanyName: data.CompanyName,
			Industry:    data.Industry,
			Revenue:     data.MonthlyRevenue.String(),
			Expenses:    data.MonthlyExpenses.String(),
			Profit:      profit.String(),
		}
		if err := s.dbStore.RecordAnalytics(ctx, rec); err != nil {
			s.log.Error().Err(err).Str("company", data.CompanyName).Msg("Failed to record business analytics")
		}
	}
	return report, nil
}

// formatUSD renders d as $1,234.50 (negative values as -$1,234.50).
func formatUSD(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}

package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBusinessReport(t *testing.T) {
	report, profit, err := ComputeBusinessReport(BusinessData{
		CompanyName:     "Loss Co",
		MonthlyRevenue:  decimal.RequireFromString("1200.50"),
		MonthlyExpenses: decimal.RequireFromString("2401"),
	})
	require.NoError(t, err)
	assert.Equal(t, "-1200.5", profit.String())
	assert.Equal(t, "-$1,200.50", report.Profit)
	assert.Equal(t, "-100.0%", report.ProfitMargin)
}

func TestComputeBusinessReportValidation(t *testing.T) {
	_, _, err := ComputeBusinessReport(BusinessData{CompanyName: "Zero", MonthlyRevenue: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidRevenue)

	_, _, err = ComputeBusinessReport(BusinessData{MonthlyRevenue: decimal.NewFromInt(5)})
	assert.Error(t, err)
}

func TestFormatUSD(t *testing.T) {
	tests := map[string]string{
		"0":          "$0.00",
		"5.5":        "$5.50",
		"999.999":    "$1,000.00",
		"1234567.8":  "$1,234,567.80",
		"-42":        "-$42.00",
		"100000":     "$100,000.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatUSD(decimal.RequireFromString(in)), in)
	}
}

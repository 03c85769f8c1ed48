// Package money implements the monetary calculations used across invoices.
//
// Every stage rounds to two decimal places with half-up semantics: item
// totals are rounded before they are summed, the subtotal is rounded again,
// and tax and grand total are each rounded on computation. Reordering the
// rounding (for example summing raw products and rounding once) produces
// different totals and breaks stored invoices, so the staging here is part of
// the contract.
package money

import "github.com/shopspring/decimal"

// Round2 rounds an amount to two decimal places, half-up.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// ItemTotal computes quantity multiplied by unit price, rounded.
func ItemTotal(quantity, unitPrice float64) float64 {
	f, _ := decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(unitPrice)).
		Round(2).
		Float64()
	return f
}

// Subtotal sums already-rounded item totals and rounds the result.
func Subtotal(itemTotals []float64) float64 {
	sum := decimal.Zero
	for _, t := range itemTotals {
		sum = sum.Add(decimal.NewFromFloat(t))
	}
	f, _ := sum.Round(2).Float64()
	return f
}

// TaxAmount computes the tax on a subtotal given a percentage rate.
func TaxAmount(subtotal, taxRate float64) float64 {
	f, _ := decimal.NewFromFloat(subtotal).
		Mul(decimal.NewFromFloat(taxRate)).
		Div(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return f
}

// Total computes subtotal plus tax, rounded.
func Total(subtotal, taxAmount float64) float64 {
	f, _ := decimal.NewFromFloat(subtotal).
		Add(decimal.NewFromFloat(taxAmount)).
		Round(2).
		Float64()
	return f
}

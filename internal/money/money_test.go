package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItemTotal(t *testing.T) {
	require.Equal(t, 59.97, ItemTotal(3, 19.99))
	require.Equal(t, 0.0, ItemTotal(0, 19.99))
	require.Equal(t, 33.33, ItemTotal(1.5, 22.22))
}

func TestItemTotalRoundsHalfUp(t *testing.T) {
	// 2.5 * 0.45 = 1.125, half-up to 1.13
	require.Equal(t, 1.13, ItemTotal(2.5, 0.45))
	// 0.1 * 0.35 = 0.035, half-up to 0.04
	require.Equal(t, 0.04, ItemTotal(0.1, 0.35))
}

func TestSubtotalSumsRoundedItems(t *testing.T) {
	// Item totals are rounded before summing; raw products would differ.
	items := []float64{
		ItemTotal(3, 19.99),  // 59.97
		ItemTotal(2.5, 0.45), // 1.13 (raw 1.125)
	}
	require.Equal(t, 61.10, Subtotal(items))
}

func TestSubtotalIdempotent(t *testing.T) {
	items := []float64{10.01, 20.02, 30.03}
	first := Subtotal(items)
	require.Equal(t, first, Subtotal([]float64{first}))
}

func TestTaxAmount(t *testing.T) {
	require.Equal(t, 3.00, TaxAmount(59.97, 5))
	require.Equal(t, 0.0, TaxAmount(100, 0))
	require.Equal(t, 8.25, TaxAmount(100, 8.25))
}

func TestTotal(t *testing.T) {
	require.Equal(t, 62.97, Total(59.97, 3.00))
}

func TestReferenceInvoice(t *testing.T) {
	// qty 3 at 19.99 with 5% tax: 59.97 / 3.00 / 62.97.
	itemTotal := ItemTotal(3, 19.99)
	subtotal := Subtotal([]float64{itemTotal})
	tax := TaxAmount(subtotal, 5)
	total := Total(subtotal, tax)

	require.Equal(t, 59.97, itemTotal)
	require.Equal(t, 59.97, subtotal)
	require.Equal(t, 3.00, tax)
	require.Equal(t, 62.97, total)
}

func TestRound2(t *testing.T) {
	require.Equal(t, 1.13, Round2(1.125))
	require.Equal(t, 1.12, Round2(1.124))
	require.Equal(t, 100.0, Round2(100))
}

// Package currency caches exchange rates with a one hour freshness window
// and converts invoice amounts. On fetch failure it degrades to the stale
// cached rate, then to a static table.
package currency

import (
	"time"
)

// Rate is one cached exchange rate row.
type Rate struct {
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Fresh reports whether the row was fetched within the freshness window.
func (r Rate) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(r.FetchedAt) < window
}

// Info describes one supported currency.
type Info struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// Supported is the currency table invoices may be denominated in.
var Supported = []Info{
	{Code: "USD", Symbol: "$", Name: "US Dollar", Decimals: 2},
	{Code: "EUR", Symbol: "€", Name: "Euro", Decimals: 2},
	{Code: "GBP", Symbol: "£", Name: "British Pound", Decimals: 2},
	{Code: "CAD", Symbol: "CA$", Name: "Canadian Dollar", Decimals: 2},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Decimals: 2},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Decimals: 0},
	{Code: "CHF", Symbol: "CHF", Name: "Swiss Franc", Decimals: 2},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee", Decimals: 2},
}

// IsSupported reports whether code appears in the supported table.
func IsSupported(code string) bool {
	for _, info := range Supported {
		if info.Code == code {
			return true
		}
	}
	return false
}

// staticPerUSD is the last-resort rate table, expressed as units per US
// dollar. Values are a snapshot, only used when both the API and the cache
// fail.
var staticPerUSD = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"CAD": 1.36,
	"AUD": 1.52,
	"JPY": 149.50,
	"CHF": 0.88,
	"INR": 83.10,
}

// staticRate derives a cross rate from the static table.
func staticRate(from, to string) (float64, bool) {
	perFrom, ok := staticPerUSD[from]
	if !ok || perFrom == 0 {
		return 0, false
	}
	perTo, ok := staticPerUSD[to]
	if !ok {
		return 0, false
	}
	return perTo / perFrom, true
}

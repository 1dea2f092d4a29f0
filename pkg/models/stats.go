package models

import "github.com/shopspring/decimal"

// UsageStats aggregates ledger entries over a trailing time window.
// It is computed on read and never persisted.
type UsageStats struct {
	TotalCalls     int64                    `json:"total_calls"`
	TotalTokens    int64                    `json:"total_tokens"`
	TotalCost      decimal.Decimal          `json:"total_cost"`
	AvgCostPerCall decimal.Decimal          `json:"avg_cost_per_call"`
	SuccessRate    decimal.Decimal          `json:"success_rate"`
	Providers      map[string]ProviderUsage `json:"providers,omitempty"`
}

// ProviderUsage is the per-provider slice of a usage window.
type ProviderUsage struct {
	Calls  int64           `json:"calls"`
	Tokens int64           `json:"tokens"`
	Cost   decimal.Decimal `json:"cost"`
}

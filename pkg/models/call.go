package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CallRecord is one append-only ledger entry for a provider API call.
// Provider, model name and the unit prices in effect are denormalized so the
// entry stays meaningful after the registry row is edited or deactivated.
type CallRecord struct {
	ID               uuid.UUID        `json:"id"`
	Origin           string           `json:"origin"`
	IDAtOrigin       string           `json:"id_at_origin"`
	ModelID          *int64           `json:"model_id,omitempty"`
	Provider         string           `json:"provider"`
	ModelName        string           `json:"model_name"`
	PromptTokens     int              `json:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens"`
	TotalTokens      int              `json:"total_tokens"`
	EstimatedCost    decimal.Decimal  `json:"estimated_cost"`
	PriceInputUsed   *decimal.Decimal `json:"price_input_used,omitempty"`
	PriceOutputUsed  *decimal.Decimal `json:"price_output_used,omitempty"`
	ErrorType        string           `json:"error_type,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	CalledAt         time.Time        `json:"called_at"`
}

// Failed reports whether the call recorded an error.
func (c *CallRecord) Failed() bool {
	return c.ErrorType != "" || c.ErrorMessage != ""
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Model is a registry entry describing one provider model: its context
// limits, capability flags, and per-million-token prices.
type Model struct {
	ID                        int64            `json:"id"`
	Provider                  string           `json:"provider"`
	ModelName                 string           `json:"model_name"`
	DisplayName               string           `json:"display_name,omitempty"`
	Description               string           `json:"description,omitempty"`
	MaxContext                int              `json:"max_context,omitempty"`
	MaxOutputTokens           int              `json:"max_output_tokens,omitempty"`
	SupportsVision            bool             `json:"supports_vision"`
	SupportsFunctionCalling   bool             `json:"supports_function_calling"`
	SupportsJSONMode          bool             `json:"supports_json_mode"`
	SupportsParallelToolCalls bool             `json:"supports_parallel_tool_calls"`
	ToolCallFormat            string           `json:"tool_call_format,omitempty"`
	PriceInputPerMillion      *decimal.Decimal `json:"price_input_per_million,omitempty"`
	PriceOutputPerMillion     *decimal.Decimal `json:"price_output_per_million,omitempty"`
	InactiveFrom              *time.Time       `json:"inactive_from,omitempty"`
	CreatedAt                 time.Time        `json:"created_at"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}

// Active reports whether the model has not been soft-deleted.
func (m *Model) Active() bool {
	return m.InactiveFrom == nil
}

package storage

import (
	"github.com/shopspring/decimal"

	"github.com/juanre/llmbridge/pkg/models"
)

func price(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// DefaultModels is the registry seeded into an empty store. It is a compiled-in
// snapshot of current provider metadata, not a compatibility contract.
var DefaultModels = []models.Model{
	{
		Provider: "openai", ModelName: "gpt-4o",
		DisplayName: "GPT-4o", Description: "Latest GPT-4 Omni model",
		MaxContext: 128000, MaxOutputTokens: 16384,
		SupportsVision: true, SupportsFunctionCalling: true,
		SupportsJSONMode: true, SupportsParallelToolCalls: true,
		PriceInputPerMillion: price(2.50), PriceOutputPerMillion: price(10.00),
	},
	{
		Provider: "openai", ModelName: "gpt-4o-mini",
		DisplayName: "GPT-4o Mini", Description: "Small, affordable GPT-4 Omni model",
		MaxContext: 128000, MaxOutputTokens: 16384,
		SupportsVision: true, SupportsFunctionCalling: true,
		SupportsJSONMode: true, SupportsParallelToolCalls: true,
		PriceInputPerMillion: price(0.15), PriceOutputPerMillion: price(0.60),
	},
	{
		Provider: "openai", ModelName: "gpt-4-turbo",
		DisplayName: "GPT-4 Turbo", Description: "GPT-4 Turbo with vision",
		MaxContext: 128000, MaxOutputTokens: 4096,
		SupportsVision: true, SupportsFunctionCalling: true,
		SupportsJSONMode: true, SupportsParallelToolCalls: true,
		PriceInputPerMillion: price(10.00), PriceOutputPerMillion: price(30.00),
	},
	{
		Provider: "openai", ModelName: "gpt-3.5-turbo",
		DisplayName: "GPT-3.5 Turbo", Description: "Fast, affordable GPT-3.5",
		MaxContext: 16385, MaxOutputTokens: 4096,
		SupportsFunctionCalling: true, SupportsJSONMode: true,
		PriceInputPerMillion: price(0.50), PriceOutputPerMillion: price(1.50),
	},
	{
		Provider: "anthropic", ModelName: "claude-3-5-sonnet-20241022",
		DisplayName: "Claude 3.5 Sonnet", Description: "Most intelligent Claude model",
		MaxContext: 200000, MaxOutputTokens: 8192,
		SupportsVision: true, SupportsFunctionCalling: true,
		PriceInputPerMillion: price(3.00), PriceOutputPerMillion: price(15.00),
	},
	{
		Provider: "anthropic", ModelName: "claude-3-5-haiku-20241022",
		DisplayName: "Claude 3.5 Haiku", Description: "Fast and affordable Claude model",
		MaxContext: 200000, MaxOutputTokens: 8192,
		SupportsFunctionCalling: true,
		PriceInputPerMillion:    price(1.00), PriceOutputPerMillion: price(5.00),
	},
	{
		Provider: "anthropic", ModelName: "claude-3-opus-20240229",
		DisplayName: "Claude 3 Opus", Description: "Powerful Claude model for complex tasks",
		MaxContext: 200000, MaxOutputTokens: 4096,
		SupportsVision: true, SupportsFunctionCalling: true,
		PriceInputPerMillion: price(15.00), PriceOutputPerMillion: price(75.00),
	},
	{
		Provider: "google", ModelName: "gemini-1.5-pro",
		DisplayName: "Gemini 1.5 Pro", Description: "Google's most capable model",
		MaxContext: 2097152, MaxOutputTokens: 8192,
		SupportsVision: true, SupportsFunctionCalling: true,
		PriceInputPerMillion: price(1.25), PriceOutputPerMillion: price(5.00),
	},
	{
		Provider: "google", ModelName: "gemini-1.5-flash",
		DisplayName: "Gemini 1.5 Flash", Description: "Fast and efficient Gemini model",
		MaxContext: 1048576, MaxOutputTokens: 8192,
		SupportsVision: true, SupportsFunctionCalling: true,
		PriceInputPerMillion: price(0.075), PriceOutputPerMillion: price(0.30),
	},
	{
		Provider: "google", ModelName: "gemini-pro",
		DisplayName: "Gemini Pro", Description: "Capable general-purpose model",
		MaxContext: 32768, MaxOutputTokens: 8192,
		SupportsFunctionCalling: true,
		PriceInputPerMillion:    price(0.50), PriceOutputPerMillion: price(1.50),
	},
}

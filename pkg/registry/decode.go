package registry

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/juanre/llmbridge/pkg/models"
	"github.com/juanre/llmbridge/pkg/storage"
)

// rowToModel decodes a registry row from either backend. Booleans may arrive
// as integers and decimals as floats or numeric text; everything is coerced
// back to the caller-facing types.
func rowToModel(row storage.Row) models.Model {
	return models.Model{
		ID:                        asInt64(row["id"]),
		Provider:                  asString(row["provider"]),
		ModelName:                 asString(row["model_name"]),
		DisplayName:               asString(row["display_name"]),
		Description:               asString(row["description"]),
		MaxContext:                int(asInt64(row["max_context"])),
		MaxOutputTokens:           int(asInt64(row["max_output_tokens"])),
		SupportsVision:            asBool(row["supports_vision"]),
		SupportsFunctionCalling:   asBool(row["supports_function_calling"]),
		SupportsJSONMode:          asBool(row["supports_json_mode"]),
		SupportsParallelToolCalls: asBool(row["supports_parallel_tool_calls"]),
		ToolCallFormat:            asString(row["tool_call_format"]),
		PriceInputPerMillion:      asDecimalPtr(row["price_input_per_million"]),
		PriceOutputPerMillion:     asDecimalPtr(row["price_output_per_million"]),
		InactiveFrom:              asTimePtr(row["inactive_from"]),
		CreatedAt:                 asTime(row["created_at"]),
		UpdatedAt:                 asTime(row["updated_at"]),
	}
}

// rowToCall decodes a ledger row from either backend.
func rowToCall(row storage.Row) models.CallRecord {
	return models.CallRecord{
		ID:               asUUID(row["id"]),
		Origin:           asString(row["origin"]),
		IDAtOrigin:       asString(row["id_at_origin"]),
		ModelID:          asInt64Ptr(row["model_id"]),
		Provider:         asString(row["provider"]),
		ModelName:        asString(row["model_name"]),
		PromptTokens:     int(asInt64(row["prompt_tokens"])),
		CompletionTokens: int(asInt64(row["completion_tokens"])),
		TotalTokens:      int(asInt64(row["total_tokens"])),
		EstimatedCost:    asDecimal(row["estimated_cost"]),
		PriceInputUsed:   asDecimalPtr(row["price_input_used"]),
		PriceOutputUsed:  asDecimalPtr(row["price_output_used"]),
		ErrorType:        asString(row["error_type"]),
		ErrorMessage:     asString(row["error_message"]),
		CalledAt:         asTime(row["called_at"]),
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}

func asInt64Ptr(v any) *int64 {
	if v == nil {
		return nil
	}
	n := asInt64(v)
	return &n
}

func asBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case float64:
		return b != 0
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	default:
		return false
	}
}

func asDecimal(v any) decimal.Decimal {
	switch d := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(d)
	case int64:
		return decimal.NewFromInt(d)
	case string:
		parsed, err := decimal.NewFromString(d)
		if err != nil {
			return decimal.Zero
		}
		return parsed
	case []byte:
		parsed, err := decimal.NewFromString(string(d))
		if err != nil {
			return decimal.Zero
		}
		return parsed
	default:
		return decimal.Zero
	}
}

func asDecimalPtr(v any) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := asDecimal(v)
	return &d
}

// timeLayouts covers both engines' wire forms: SQLite's stored strings (with
// and without fractional seconds) and datetime('now') output, plus RFC 3339.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
				return parsed
			}
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

func asTimePtr(v any) *time.Time {
	if v == nil {
		return nil
	}
	t := asTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}

func asUUID(v any) uuid.UUID {
	id, err := uuid.Parse(asString(v))
	if err != nil {
		return uuid.Nil
	}
	return id
}

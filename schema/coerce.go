package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// CoerceArguments normalizes model-provided argument JSON to the declared
// parameter types. Providers differ in how strictly they honor declared
// types: a schema "integer" parameter may arrive as a numeric string or a
// float, a "boolean" as "true". The result always decodes into the tool
// input type without type mismatches where a lossless conversion exists.
// Unknown parameters and values that cannot be converted are left as is,
// so the tool input validation reports them.
func CoerceArguments(params *jsonschema.Schema, raw []byte) ([]byte, error) {
	if params == nil || params.Properties == nil || len(raw) == 0 {
		return raw, nil
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		// Not an object: leave the payload for downstream validation.
		return raw, nil
	}

	changed := false
	for pair := params.Properties.Oldest(); pair != nil; pair = pair.Next() {
		val, ok := args[pair.Key]
		if !ok {
			continue
		}
		coerced, ok := coerceValue(pair.Value, val)
		if ok {
			args[pair.Key] = coerced
			changed = true
		}
	}
	if !changed {
		return raw, nil
	}
	return json.Marshal(args)
}

// coerceValue converts val to the declared type, returning ok only when a
// conversion was applied.
func coerceValue(declared *jsonschema.Schema, val any) (any, bool) {
	if declared == nil {
		return val, false
	}
	switch declared.Type {
	case "integer":
		switch v := val.(type) {
		case float64:
			if v == math.Trunc(v) {
				return int64(v), true
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, true
			}
		}
	case "number":
		if v, ok := val.(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	case "boolean":
		if v, ok := val.(string); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, true
			}
		}
	case "string":
		switch v := val.(type) {
		case float64, bool:
			bs, _ := json.Marshal(v)
			return string(bs), true
		}
	case "array":
		items, ok := val.([]any)
		if !ok || declared.Items == nil {
			return val, false
		}
		changed := false
		for i, item := range items {
			if coerced, ok := coerceValue(declared.Items, item); ok {
				items[i] = coerced
				changed = true
			}
		}
		return items, changed
	case "object":
		obj, ok := val.(map[string]any)
		if !ok || declared.Properties == nil {
			return val, false
		}
		changed := false
		for pair := declared.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if item, ok := obj[pair.Key]; ok {
				if coerced, ok := coerceValue(pair.Value, item); ok {
					obj[pair.Key] = coerced
					changed = true
				}
			}
		}
		return obj, changed
	}
	return val, false
}

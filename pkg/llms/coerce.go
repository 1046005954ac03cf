package llms

import (
	"github.com/effective-security/goagent/schema"
)

// CoerceToolCallArguments decodes each call's argument values per the
// declared parameter types of the matching tool spec. Adapters apply it to
// parsed replies so that, for example, a schema "integer" parameter arrives
// as an integer and not a numeric string.
func CoerceToolCallArguments(specs []ToolSpec, calls []ToolCall) []ToolCall {
	if len(specs) == 0 || len(calls) == 0 {
		return calls
	}
	byName := make(map[string]*ToolSpec, len(specs))
	for i := range specs {
		byName[specs[i].Name] = &specs[i]
	}
	for i, call := range calls {
		spec := byName[call.Name]
		if spec == nil || spec.Parameters == nil {
			continue
		}
		coerced, err := schema.CoerceArguments(spec.Parameters, []byte(call.Arguments))
		if err == nil && coerced != nil {
			calls[i].Arguments = string(coerced)
		}
	}
	return calls
}

package tools

import (
	"context"
	"reflect"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/llmutils"
	"github.com/effective-security/goagent/schema"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// Func wraps an ordinary Go function into a tool. The parameter schema is
// built from the input type exactly once, at construction; required fields
// and value constraints come from `validate` tags on the input struct.
type Func[I any, O any] struct {
	name        string
	description string
	params      *jsonschema.Schema
	fn          func(context.Context, *I) (*O, error)
	validate    *validator.Validate
}

var _ Tool[struct{}, struct{}] = (*Func[struct{}, struct{}])(nil)

// NewFunc creates a tool from a function with a structured input type.
// It fails if the input type cannot be described as a parameter schema.
func NewFunc[I any, O any](name, description string, fn func(context.Context, *I) (*O, error)) (*Func[I, O], error) {
	if name == "" {
		return nil, errors.New("tools: name is required")
	}
	if fn == nil {
		return nil, errors.New("tools: function is required")
	}

	var input I
	sc, err := schema.New(reflect.TypeOf(input))
	if err != nil {
		return nil, errors.WithMessagef(err, "tools: failed to build schema for %q", name)
	}

	return &Func[I, O]{
		name:        name,
		description: description,
		params:      sc.Parameters,
		fn:          fn,
		validate:    validator.New(),
	}, nil
}

// Name implements the ITool interface.
func (t *Func[I, O]) Name() string {
	return t.name
}

// Description implements the ITool interface.
func (t *Func[I, O]) Description() string {
	return t.description
}

// Parameters implements the ITool interface.
func (t *Func[I, O]) Parameters() *jsonschema.Schema {
	return t.params
}

// Run invokes the function with a typed input.
func (t *Func[I, O]) Run(ctx context.Context, input *I) (*O, error) {
	return t.fn(ctx, input)
}

// Call implements the ITool interface. The input is decoded leniently, as
// models wrap JSON in prose or fences, and validated before invocation.
func (t *Func[I, O]) Call(ctx context.Context, input string) (string, error) {
	var req I
	data := llmutils.CleanJSON([]byte(input))
	if err := ljson.Unmarshal(data, &req); err != nil {
		return "", errors.WithMessagef(ErrInvalidInput, "%s: %v", t.name, err)
	}
	if err := t.validate.Struct(&req); err != nil {
		return "", errors.WithMessagef(ErrInvalidInput, "%s: %v", t.name, err)
	}

	res, err := t.fn(ctx, &req)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return llmutils.Stringify(res), nil
}

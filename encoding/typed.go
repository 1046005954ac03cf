package encoding

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// TypedOutputParser parses the final text reply of an agent into a Go
// struct, using the schema encoder of the requested mode.
type TypedOutputParser[T any] struct {
	enc      SchemaEncoder
	name     string
	validate bool
}

var _ OutputParser[any] = (*TypedOutputParser[any])(nil)

// NewTypedOutputParser creates an output parser that structures data
// according to a given schema, as defined by struct field names and types.
// Tagging a field with "json" will explicitly use that value as the field
// name; "jsonschema" descriptions help the model populate the field.
func NewTypedOutputParser[T any](sourceType T, mode Mode) (*TypedOutputParser[T], error) {
	enc, err := PredefinedSchemaEncoder(mode, sourceType)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create encoder")
	}

	return &TypedOutputParser[T]{
		enc:  enc,
		name: fmt.Sprintf("%T parser", sourceType),
	}, nil
}

func (p *TypedOutputParser[T]) WithValidation(validate bool) {
	p.validate = validate
}

// Parse parses the output of an LLM call.
func (p *TypedOutputParser[T]) Parse(text string) (*T, error) {
	var target T
	if err := p.enc.Unmarshal([]byte(text), &target); err != nil {
		return nil, errors.WithMessagef(ErrFailedUnmarshalOutput, "%v", err)
	}
	if validator, ok := p.enc.(Validator); ok && p.validate {
		if err := validator.Validate(target); err != nil {
			return nil, errors.Wrap(err, "failed to validate")
		}
	}
	return &target, nil
}

// GetFormatInstructions returns a string describing the format of the output.
func (p *TypedOutputParser[T]) GetFormatInstructions() string {
	return p.enc.GetFormatInstructions()
}

// Type returns the string type key uniquely identifying this class of parser
func (p *TypedOutputParser[T]) Type() string {
	return p.name
}

// SimpleOutputParser returns the trimmed text unchanged.
type SimpleOutputParser struct{}

func NewSimpleOutputParser() OutputParser[string] { return &SimpleOutputParser{} }

var _ OutputParser[string] = (*SimpleOutputParser)(nil)

func (p *SimpleOutputParser) GetFormatInstructions() string { return "" }

func (p *SimpleOutputParser) Parse(text string) (*string, error) {
	s := strings.TrimSpace(text)
	return &s, nil
}

func (p *SimpleOutputParser) Type() string { return "simple_parser" }

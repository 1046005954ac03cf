// Package encoding parses structured final answers from model output.
// An encoder renders format instructions for the prompt and decodes the
// reply back into the requested type.
package encoding

import (
	"github.com/cockroachdb/errors"
	dummyenc "github.com/effective-security/goagent/encoding/dummy"
	jsonenc "github.com/effective-security/goagent/encoding/json"
	tomlenc "github.com/effective-security/goagent/encoding/toml"
	yamlenc "github.com/effective-security/goagent/encoding/yaml"
)

// ErrFailedUnmarshalOutput is returned when the model reply cannot be
// decoded into the requested output type.
var ErrFailedUnmarshalOutput = errors.New("failed to unmarshal output")

type SchemaEncoder interface {
	Marshal(req any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the wrapped message with message schema for the prompt
	GetFormatInstructions() string
}

type Validator interface {
	Validate(any) error
}

// OutputParser converts a final text reply into a typed value.
type OutputParser[T any] interface {
	GetFormatInstructions() string
	Parse(text string) (*T, error)
	Type() string
}

type Mode = string

const (
	ModeJSON       Mode = "json"
	ModeJSONSchema Mode = "json_schema"
	ModeYAML       Mode = "yaml"
	ModeTOML       Mode = "toml"
	ModePlainText  Mode = "plain_text"
	ModeCustom     Mode = "custom"
)

// ModeDefault is the default mode for the encoder.
// Allow to override in apps
var ModeDefault = ModeJSONSchema

func PredefinedSchemaEncoder(mode Mode, req any) (SchemaEncoder, error) {
	var (
		enc SchemaEncoder
		err error
	)
	switch mode {
	case ModeJSON, ModeJSONSchema:
		enc, err = jsonenc.NewEncoder(req)
	case ModeYAML:
		enc = yamlenc.NewEncoder(req)
	case ModeTOML:
		enc = tomlenc.NewEncoder(req)
	case ModePlainText:
		enc = dummyenc.NewEncoder()
	default:
		return nil, errors.New("no predefined encoder")
	}
	return enc, err
}

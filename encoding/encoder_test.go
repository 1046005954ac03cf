package encoding_test

import (
	"testing"

	"github.com/effective-security/goagent/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SearchType string

const (
	Web   SearchType = "web"
	Image SearchType = "image"
	Video SearchType = "video"
)

type Search struct {
	Topic string     `json:"topic" yaml:"topic" toml:"Topic" jsonschema:"title=Topic,description=Topic of the search,example=golang" fake:"golang"`
	Query string     `json:"query" yaml:"query" toml:"Query" jsonschema:"title=Query,description=Query to search for relevant content,example=what is golang" fake:"what is golang"`
	Type  SearchType `json:"type" yaml:"type" toml:"Type" jsonschema:"title=Type,description=Type of search,default=web,enum=web,enum=image,enum=video" fake:"web"`
}

func Test_JSON_Encoding(t *testing.T) {
	e, err := encoding.PredefinedSchemaEncoder(encoding.ModeJSON, Search{})
	require.NoError(t, err)

	instr := e.GetFormatInstructions()
	assert.Contains(t, instr, "Respond with JSON in the following JSON schema:")
	assert.Contains(t, instr, "```json")
	assert.Contains(t, instr, `"topic"`)
	assert.Contains(t, instr, "Make sure to return an instance of the JSON, not the schema itself.")

	var out Search
	err = e.Unmarshal([]byte("Here you go:\n```json\n{\"topic\":\"go\",\"query\":\"what is go\",\"type\":\"web\"}\n```"), &out)
	require.NoError(t, err)
	assert.Equal(t, "go", out.Topic)
	assert.Equal(t, Web, out.Type)
}

func Test_YAML_Encoding(t *testing.T) {
	e, err := encoding.PredefinedSchemaEncoder(encoding.ModeYAML, Search{})
	require.NoError(t, err)

	instr := e.GetFormatInstructions()
	assert.Contains(t, instr, "Respond with YAML in the following YAML schema without comments:")
	assert.Contains(t, instr, "topic: golang")
	assert.Contains(t, instr, "query: what is golang")

	var out Search
	err = e.Unmarshal([]byte("```yaml\ntopic: go\nquery: what is go\ntype: web\n```"), &out)
	require.NoError(t, err)
	assert.Equal(t, "go", out.Topic)
}

func Test_TOML_Encoding(t *testing.T) {
	e, err := encoding.PredefinedSchemaEncoder(encoding.ModeTOML, Search{})
	require.NoError(t, err)

	instr := e.GetFormatInstructions()
	assert.Contains(t, instr, "Respond with TOML in the following TOML schema:")
	assert.Contains(t, instr, `Topic = "golang"`)

	var out Search
	err = e.Unmarshal([]byte("```toml\nTopic = \"go\"\nQuery = \"what is go\"\nType = \"web\"\n```"), &out)
	require.NoError(t, err)
	assert.Equal(t, "go", out.Topic)
}

func Test_PlainText_Encoding(t *testing.T) {
	e, err := encoding.PredefinedSchemaEncoder(encoding.ModePlainText, Search{})
	require.NoError(t, err)
	assert.Empty(t, e.GetFormatInstructions())

	var out string
	err = e.Unmarshal([]byte("plain reply"), &out)
	require.NoError(t, err)
	assert.Equal(t, "plain reply", out)
}

func Test_UnknownMode(t *testing.T) {
	_, err := encoding.PredefinedSchemaEncoder(encoding.ModeCustom, Search{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no predefined encoder")
}

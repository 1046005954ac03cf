// Package tools defines the Tool interface for LLM agents: registration,
// parameter schemas, and contained execution. Tools let agents interact with
// external systems and APIs in a structured, extensible way.
package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/llmutils"
	"github.com/invopop/jsonschema"
)

//go:generate mockgen -source=tools.go -destination=../mocks/mocktools/tools_mock.gen.go -package mocktools

// ErrInvalidInput is returned when a tool fails to unmarshal or validate its
// input. The executor feeds it back to the model as a recoverable failure.
var ErrInvalidInput = errors.New("failed to unmarshal input: check the schema and try again")

// ITool is a tool for the llm agent to interact with different applications.
// Any value implementing it is accepted at the registry boundary, including
// tool objects defined by third-party conventions.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Parameters returns the parameters definition of the tool input.
	Parameters() *jsonschema.Schema

	// Call executes the tool with the given input and returns the result.
	// If the tool fails to parse the input, it should return ErrInvalidInput.
	Call(context.Context, string) (string, error)
}

// Callback receives tool execution events.
type Callback interface {
	OnToolStart(ctx context.Context, tool ITool, input string)
	OnToolEnd(ctx context.Context, tool ITool, input string, output string)
	OnToolError(ctx context.Context, tool ITool, input string, err error)
}

// Tool is a typed tool with a structured input and output.
type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions renders tool names and descriptions for use in a prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}

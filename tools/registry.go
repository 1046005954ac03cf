package tools

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/goagent/pkg/llms"
)

// Registry holds the tools of one agent, keyed by name. It is populated at
// construction and never mutated afterwards, so lookups are safe from
// concurrent runs.
type Registry struct {
	byName map[string]ITool
	names  []string
	specs  []llms.ToolSpec
}

// NewRegistry builds a registry from the given tools.
// Duplicate names are rejected.
func NewRegistry(list ...ITool) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]ITool, len(list)),
	}
	for _, tool := range list {
		name := tool.Name()
		if name == "" {
			return nil, errors.New("tools: tool with empty name")
		}
		// use lowercase for the key
		key := strings.ToLower(name)
		if r.byName[key] != nil {
			return nil, errors.Newf("tools: duplicate tool name: %s", name)
		}
		r.byName[key] = tool
		r.names = append(r.names, name)
		r.specs = append(r.specs, llms.ToolSpec{
			Name:        name,
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return r, nil
}

// Find returns the tool registered under name, or nil.
// The lookup is case-insensitive.
func (r *Registry) Find(name string) ITool {
	return r.byName[strings.ToLower(name)]
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return r.names
}

// Specs returns the tool specs sent to providers.
func (r *Registry) Specs() []llms.ToolSpec {
	return r.specs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.names)
}

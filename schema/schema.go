package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Faker is a interface for generating structures
// with fake data. It is used for generating test data.
type Faker interface {
	Fake() any
}

// ErrUnsupportedType is returned when a tool input type cannot be described
// as a function-call parameter schema.
var ErrUnsupportedType = errors.New("schema: unsupported input type")

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.Mutex
)

// Schema describes the input of one tool as a function-call parameter schema.
type Schema struct {
	*jsonschema.Schema
	// Parameters is the inlined parameters definition sent to providers.
	Parameters *jsonschema.Schema
}

// New creates a new schema from the given type. Results are cached per type,
// so building twice from the same type yields the identical value.
func New(t reflect.Type) (*Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[t]; ok {
		return s, nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}
	cache[t] = s

	return s, nil
}

func (s *Schema) String() string {
	js, _ := json.MarshalIndent(s.Parameters, "", "\t")
	return string(js)
}

func buildSchema(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.WithMessagef(ErrUnsupportedType, "kind %s", t.Kind())
	}

	schema := JSONSchema(t)

	funcDef, err := ToFunctionSchema(t, schema)
	if err != nil {
		return nil, err
	}

	return &Schema{
		Schema:     schema,
		Parameters: funcDef,
	}, nil
}

// ToFunctionSchema inlines the $defs of a reflected schema into a single
// object schema, the shape providers expect in function declarations.
func ToFunctionSchema(tType reflect.Type, tSchema *jsonschema.Schema) (*jsonschema.Schema, error) {
	refID := strings.TrimPrefix(tSchema.Ref, "#/$defs/")

	var defs = make(map[string]*jsonschema.Schema)
	var root *jsonschema.Schema

	for name, def := range tSchema.Definitions {
		if name == refID {
			root = def
		} else {
			defs[name] = def
		}
	}
	if root == nil {
		return nil, errors.WithMessagef(ErrUnsupportedType, "%s: no root definition", tType.Name())
	}

	res := &jsonschema.Schema{
		Type:       root.Type,
		Properties: root.Properties,
		Required:   root.Required,
	}

	if err := resolveRefs(res.Properties, defs); err != nil {
		return nil, errors.WithMessagef(err, "%s", tType.Name())
	}

	return res, nil
}

func resolveRefs(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs map[string]*jsonschema.Schema) error {
	if props == nil {
		return nil
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		if child.Ref != "" {
			name := strings.TrimPrefix(child.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.WithMessagef(ErrUnsupportedType, "unresolved reference %q", name)
			}
			pair.Value = def
			child = def
		}
		if child.Properties != nil {
			if err := resolveRefs(child.Properties, defs); err != nil {
				return err
			}
		}
		if child.Items != nil && child.Items.Ref != "" {
			name := strings.TrimPrefix(child.Items.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.WithMessagef(ErrUnsupportedType, "unresolved reference %q", name)
			}
			child.Items = def
		}
	}
	return nil
}

// NameFromRef returns the type name of the schema root, ex: '#/$defs/MyStruct'.
func (s *Schema) NameFromRef() string {
	return strings.Split(s.Ref, "/")[2]
}

// JSONSchema reflects the JSON schema of the given type.
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	r := new(jsonschema.Reflector)

	// The struct name could be the same in different packages, which would
	// produce colliding `$ref` entries. Disambiguate by hashing the full
	// package path into the definition name.
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			v := reflect.New(t)
			vt := v.Elem().Type()
			fullname := vt.PkgPath() + "/" + vt.Name()
			name = vt.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}

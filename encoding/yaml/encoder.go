// Package yaml renders format instructions as a fake example instance,
// which small models follow more reliably than a schema document.
package yaml

import (
	"bytes"
	"reflect"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/effective-security/goagent/llmutils"
	"github.com/effective-security/goagent/schema"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Encoder struct {
	reqType reflect.Type
}

func NewEncoder(req any) *Encoder {
	t := reflect.TypeOf(req)
	return &Encoder{
		reqType: t,
	}
}

func (e *Encoder) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (e *Encoder) Unmarshal(bs []byte, ret any) error {
	data := llmutils.BytesTrimBackticks(bs)
	return yaml.Unmarshal(data, ret)
}

func (e *Encoder) Validate(req any) error {
	validate := validator.New()
	return validate.Struct(req)
}

func (e *Encoder) GetFormatInstructions() string {
	tValue := reflect.New(e.reqType)
	instance := tValue.Interface()
	if f, ok := tValue.Elem().Interface().(schema.Faker); ok {
		instance = f.Fake()
	} else {
		_ = gofakeit.Struct(instance)
	}
	bs, err := e.Marshal(instance)
	if err != nil {
		return ""
	}
	var b bytes.Buffer
	b.WriteString("\nRespond with YAML in the following YAML schema without comments:\n")
	b.WriteString("```yaml\n")
	b.Write(bs)
	b.WriteString("```")
	b.WriteString("\nMake sure to return an instance of the YAML, not the schema itself.\n")
	return b.String()
}

package schema_test

import (
	"reflect"
	"testing"

	"github.com/effective-security/goagent/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coerceInput struct {
	Count   int      `json:"count"`
	Ratio   float64  `json:"ratio"`
	Active  bool     `json:"active"`
	Label   string   `json:"label"`
	Scores  []int    `json:"scores,omitempty"`
	Details struct {
		Limit int `json:"limit"`
	} `json:"details,omitempty"`
}

func TestCoerceArguments(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(coerceInput{}))
	require.NoError(t, err)

	tcases := []struct {
		name string
		raw  string
		exp  string
	}{
		{
			name: "string_to_integer",
			raw:  `{"count":"42"}`,
			exp:  `{"count":42}`,
		},
		{
			name: "float_to_integer",
			raw:  `{"count":7.0}`,
			exp:  `{"count":7}`,
		},
		{
			name: "string_to_number",
			raw:  `{"ratio":"0.5"}`,
			exp:  `{"ratio":0.5}`,
		},
		{
			name: "string_to_boolean",
			raw:  `{"active":"true"}`,
			exp:  `{"active":true}`,
		},
		{
			name: "number_to_string",
			raw:  `{"label":42}`,
			exp:  `{"label":"42"}`,
		},
		{
			name: "bool_to_string",
			raw:  `{"label":true}`,
			exp:  `{"label":"true"}`,
		},
		{
			name: "array_items",
			raw:  `{"scores":["1","2",3.0]}`,
			exp:  `{"scores":[1,2,3]}`,
		},
		{
			name: "nested_object",
			raw:  `{"details":{"limit":"10"}}`,
			exp:  `{"details":{"limit":10}}`,
		},
		{
			name: "already_typed",
			raw:  `{"count":42,"active":true}`,
			exp:  `{"count":42,"active":true}`,
		},
		{
			name: "fractional_float_kept",
			raw:  `{"count":7.5}`,
			exp:  `{"count":7.5}`,
		},
		{
			name: "unparseable_kept",
			raw:  `{"count":"not a number"}`,
			exp:  `{"count":"not a number"}`,
		},
		{
			name: "unknown_parameter_kept",
			raw:  `{"unknown":"x"}`,
			exp:  `{"unknown":"x"}`,
		},
		{
			name: "not_an_object",
			raw:  `[1,2,3]`,
			exp:  `[1,2,3]`,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := schema.CoerceArguments(s.Parameters, []byte(tc.raw))
			require.NoError(t, err)
			assert.JSONEq(t, tc.exp, string(got))
		})
	}
}

func TestCoerceArguments_NilSchema(t *testing.T) {
	raw := []byte(`{"count":"42"}`)
	got, err := schema.CoerceArguments(nil, raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCoerceArguments_Empty(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(coerceInput{}))
	require.NoError(t, err)

	got, err := schema.CoerceArguments(s.Parameters, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

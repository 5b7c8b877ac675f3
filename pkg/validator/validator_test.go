package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type namedPayload struct {
	Name string `json:"name" validate:"required,max=10,nodename"`
}

func TestValidateStructNodeName(t *testing.T) {
	require.NoError(t, ValidateStruct(&namedPayload{Name: "report.txt"}))
	require.NoError(t, ValidateStruct(&namedPayload{Name: "a b"}))

	cases := []string{"a/b", "a\\b", "   ", "a\x00b"}
	for _, name := range cases {
		err := ValidateStruct(&namedPayload{Name: name})
		require.Error(t, err, "name %q", name)

		failures, ok := err.(ValidationErrors)
		require.True(t, ok)
		require.Len(t, failures, 1)
		require.Equal(t, "name", failures[0].Field)
		require.Equal(t, "nodename", failures[0].Tag)
	}
}

func TestValidateStructUsesJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&namedPayload{})
	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 1)
	require.Equal(t, "name", failures[0].Field)
	require.Equal(t, "required", failures[0].Tag)
	require.Contains(t, failures.Error(), "name failed on required")
}

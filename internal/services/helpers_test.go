package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Documents":        "documents",
		"b.txt":            "b-txt",
		"  Annual Report ": "annual-report",
		"Q1/2026 (final)":  "q1-2026-final",
		"---":              "",
	}

	for input, want := range cases {
		require.Equal(t, want, slugify(input), "input %q", input)
	}
}

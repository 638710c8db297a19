package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPrefixedEnvironmentVariables(t *testing.T) {
	t.Setenv("UTILTEST_WORKERS", "4")
	t.Setenv("UTILTEST_WEEK_ANCHOR", "2026-01-05")
	t.Setenv("OTHER_UTILTEST_WORKERS", "9")

	assert.Equal(t, map[string]string{
		"WORKERS":     "4",
		"WEEK_ANCHOR": "2026-01-05",
	}, GetPrefixedEnvironmentVariables("UTILTEST_"))
}

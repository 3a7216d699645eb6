package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	require.NoError(t, run([]string{"--version"}))
}

func TestRun_UnknownFlag(t *testing.T) {
	assert.Error(t, run([]string{"--no-such-flag"}))
}

func TestRun_InvalidOverride(t *testing.T) {
	err := run([]string{"--env-file", "does-not-exist.env", "--match-policy", "shortest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shortest")
}

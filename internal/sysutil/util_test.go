//go:build !windows

package sysutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRlimitNoFile(t *testing.T) {
	lim, err := RlimitNoFile()

	require.NoError(t, err)
	assert.Positive(t, lim)
}

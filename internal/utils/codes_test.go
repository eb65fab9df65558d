package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumericCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewNumericCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}

func TestNewNumericCode_DefaultLength(t *testing.T) {
	code, err := NewNumericCode(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionCode(t *testing.T) {
	// When: a code is generated
	code, err := GenerateSessionCode()
	require.NoError(t, err)

	// Then: it has six upper-case alphanumeric characters
	assert.Len(t, code, SessionCodeLength)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)
	assert.Equal(t, code, CanonicalCode(code))
}

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "AB12CD", CanonicalCode("ab12cd"))
	assert.Equal(t, "AB12CD", CanonicalCode("  aB12Cd\n"))
	assert.Empty(t, CanonicalCode(""))
}

func TestGenerateParticipantID(t *testing.T) {
	first := GenerateParticipantID()
	second := GenerateParticipantID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

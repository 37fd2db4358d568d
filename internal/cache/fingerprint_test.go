package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskmate-core-poc/server/internal/agent/model"
)

func TestFingerprint_Deterministic(t *testing.T) {
	q := model.Question{Issue: "My laptop will not boot", OS: "Windows", Device: "Laptop"}

	first, err := Fingerprint(q)
	require.NoError(t, err)
	second, err := Fingerprint(q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)
}

func TestFingerprint_NormalizesWhitespace(t *testing.T) {
	padded := model.Question{Issue: "  My computer won't turn on ", OS: " Windows", Device: "Desktop  "}
	trimmed := model.Question{Issue: "My computer won't turn on", OS: "Windows", Device: "Desktop"}

	a, err := Fingerprint(padded)
	require.NoError(t, err)
	b, err := Fingerprint(trimmed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprint_DistinguishesQuestions(t *testing.T) {
	base := model.Question{Issue: "Wi-Fi keeps dropping", OS: "macOS", Device: "Laptop"}
	key, err := Fingerprint(base)
	require.NoError(t, err)

	variants := []model.Question{
		{Issue: "Wi-Fi keeps dropping!", OS: "macOS", Device: "Laptop"},
		{Issue: "Wi-Fi keeps dropping", OS: "Linux", Device: "Laptop"},
		{Issue: "Wi-Fi keeps dropping", OS: "macOS", Device: "Desktop"},
	}
	for _, v := range variants {
		other, err := Fingerprint(v)
		require.NoError(t, err)
		assert.NotEqual(t, key, other, "question %+v should map to a different key", v)
	}
}

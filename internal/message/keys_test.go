package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentifiers(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewID()
		require.NoError(t, err)
		assert.Len(t, id, IDLength)
		assert.Regexp(t, "^[0-9a-f]+$", id)
		assert.False(t, seen[id])
		seen[id] = true
	}

	key, err := NewEditKey()
	require.NoError(t, err)
	assert.Len(t, key, EditKeyLength)
}

func TestHashEditKey(t *testing.T) {
	h := HashEditKey("0123456789abcdef0123456789abcdef")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashEditKey("0123456789abcdef0123456789abcdef"))
	assert.NotEqual(t, h, HashEditKey("0123456789abcdef0123456789abcdee"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 50))
	assert.Equal(t, "ab", preview("abc", 2))
	assert.Equal(t, "愛你", preview("愛你愛你", 2))
	assert.Equal(t, "", preview("abc", 0))
}

func TestIsValidTheme(t *testing.T) {
	for _, theme := range Themes {
		assert.True(t, IsValidTheme(theme))
	}
	assert.False(t, IsValidTheme("Romantic"))
	assert.False(t, IsValidTheme(""))
}

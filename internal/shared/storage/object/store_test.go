package object

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/shared/util"
)

func TestNewKeyHashesOwnerAndCleansName(t *testing.T) {
	key, err := NewKey("guest:abc", "My Photo.png")
	require.NoError(t, err)

	dir, name, ok := strings.Cut(key, "/")
	require.True(t, ok)
	assert.Equal(t, util.OwnerKey("guest:abc"), dir)
	assert.True(t, strings.HasSuffix(name, "_My_Photo.png"), name)
	assert.NotContains(t, key, "guest")
}

func TestNewKeyRejectsBadInput(t *testing.T) {
	_, err := NewKey("", "a.png")
	assert.Error(t, err)
	_, err = NewKey("local:1", "..")
	assert.True(t, errors.Is(err, util.ErrInvalidFileName))
}

func TestCleanKey(t *testing.T) {
	got, err := CleanKey("/ab/cd_photo.png")
	require.NoError(t, err)
	assert.Equal(t, "ab/cd_photo.png", got)

	for _, bad := range []string{"", "../etc/passwd", "ab/../../x", "ab//cd"} {
		_, err := CleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

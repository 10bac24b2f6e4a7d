package phone

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keaz/contacts-backend/internal/apperr"
)

func TestNormalizeAddsLeadingPlus(t *testing.T) {
	withPlus, err := Normalize("+491751234567")
	require.NoError(t, err)
	withoutPlus, err := Normalize("491751234567")
	require.NoError(t, err)

	assert.Equal(t, withPlus.Fon, withoutPlus.Fon)
	assert.Equal(t, "DE", withPlus.CountryCode)
}

func TestNormalizeEmptyMeansNoPhone(t *testing.T) {
	got, err := Normalize("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Normalize("   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"not a number", "++", "123"} {
		_, err := Normalize(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, apperr.ErrInvalidPhoneNumber), raw)
	}
}

func TestNormalizeFormatsInternational(t *testing.T) {
	got, err := Normalize("4915112345678")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Fon, "+49 "), got.Fon)
	assert.Contains(t, got.Fon, " ")
}

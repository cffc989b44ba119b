package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingID_Deterministic(t *testing.T) {
	listing := NewListingID("owner", "Demo Place", "Demo Address")

	a := NewBookingID(listing, "owner", "guest", 1744304400000, 1744545600000, 30)
	b := NewBookingID(listing, "owner", "guest", 1744304400000, 1744545600000, 30)

	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
}

func TestNewBookingID_FieldSensitivity(t *testing.T) {
	listing := NewListingID("owner", "Demo Place", "Demo Address")
	base := NewBookingID(listing, "owner", "guest", 1000, 2000, 30)

	variants := map[string]Hash{
		"listing": NewBookingID(NewListingID("owner", "Other", "Demo Address"), "owner", "guest", 1000, 2000, 30),
		"host":    NewBookingID(listing, "owner2", "guest", 1000, 2000, 30),
		"guest":   NewBookingID(listing, "owner", "guest2", 1000, 2000, 30),
		"start":   NewBookingID(listing, "owner", "guest", 1001, 2000, 30),
		"end":     NewBookingID(listing, "owner", "guest", 1000, 2001, 30),
		"amount":  NewBookingID(listing, "owner", "guest", 1000, 2000, 31),
	}

	for name, id := range variants {
		assert.NotEqual(t, base, id, name)
	}
}

func TestNewBookingID_LengthPrefixedAccounts(t *testing.T) {
	listing := NewListingID("owner", "n", "a")

	a := NewBookingID(listing, "ab", "c", 1, 2, 3)
	b := NewBookingID(listing, "a", "bc", 1, 2, 3)

	assert.NotEqual(t, a, b)
}

func TestHash_TextRoundTrip(t *testing.T) {
	id := NewListingID("owner", "n", "a")

	b, err := json.Marshal(map[string]Hash{"id": id})
	require.NoError(t, err)

	var out map[string]Hash
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, id, out["id"])

	parsed, err := ParseHash(id.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseHash_Invalid(t *testing.T) {
	for _, in := range []string{"", "0x", "0x1234", "zz" + NewListingID("o", "n", "a").String()[4:]} {
		_, err := ParseHash(in)
		assert.ErrorIs(t, err, ErrInvalidHash, in)
	}
}

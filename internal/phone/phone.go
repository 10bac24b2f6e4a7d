package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/keaz/contacts-backend/internal/apperr"
)

// Normalized is the parse result for a raw phone string. Fon is the
// international format used as the per-owner dedup key.
type Normalized struct {
	Fon         string
	CountryCode string
}

// Normalize canonicalizes a raw phone string into international format.
// A missing leading "+" is prepended before parsing, so "491234567890"
// and "+491234567890" yield the same canonical form. Empty input means
// "no phone" and returns (nil, nil), not an error.
func Normalize(raw string) (*Normalized, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "+") {
		raw = "+" + raw
	}
	parsed, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, apperr.ErrInvalidPhoneNumber)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return nil, fmt.Errorf("not a valid number %q: %w", raw, apperr.ErrInvalidPhoneNumber)
	}
	return &Normalized{
		Fon:         phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
		CountryCode: phonenumbers.GetRegionCodeForNumber(parsed),
	}, nil
}

package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"international with plus", "+254712345678", "254712345678", false},
		{"international bare", "254712345678", "254712345678", false},
		{"local with leading zero", "0712345678", "254712345678", false},
		{"bare subscriber number", "712345678", "254712345678", false},
		{"spaces stripped", " 0712 345 678 ", "254712345678", false},
		{"too short", "07123", "", true},
		{"too long", "2547123456789", "", true},
		{"letters", "07a2345678", "", true},
		{"empty", "", "", true},
		{"plus only", "+", "", true},
		{"wrong prefix", "0812345678", "254812345678", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestNormalizeCanonicalProperty verifies that every accepted number
// normalizes to a 12-digit 254-prefixed string and that normalization
// is idempotent.
func TestNormalizeCanonicalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		subscriber := rapid.StringMatching(`7[0-9]{8}`).Draw(t, "subscriber")
		form := rapid.SampledFrom([]string{
			subscriber,
			"0" + subscriber,
			"254" + subscriber,
			"+254" + subscriber,
		}).Draw(t, "form")

		got, err := Normalize(form)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", form, err)
		}
		if got != "254"+subscriber {
			t.Fatalf("Normalize(%q) = %q, want %q", form, got, "254"+subscriber)
		}

		again, err := Normalize(got)
		if err != nil || again != got {
			t.Fatalf("Normalize not idempotent: %q -> %q, %v", got, again, err)
		}
	})
}

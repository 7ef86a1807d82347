package odds

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func sel(odds string) Selection {
	return Selection{CandidateName: "x", Odds: decimal.RequireFromString(odds)}
}

func TestCombined(t *testing.T) {
	tests := []struct {
		name       string
		selections []Selection
		want       string
		wantErr    error
	}{
		{"single leg", []Selection{sel("1.5")}, "1.5", nil},
		{"two legs", []Selection{sel("1.5"), sel("2.0")}, "3", nil},
		{"rounds half up", []Selection{sel("1.35"), sel("1.3")}, "1.76", nil}, // 1.755 -> 1.76
		{"rounds down", []Selection{sel("1.11"), sel("1.11")}, "1.23", nil},   // 1.2321 -> 1.23
		{"no selections", nil, "", ErrNoSelections},
		{"zero odds", []Selection{sel("0")}, "", ErrInvalidOdds},
		{"negative odds", []Selection{sel("1.5"), sel("-2")}, "", ErrInvalidOdds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Combined(tt.selections)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestPossibleWin(t *testing.T) {
	combined, err := Combined([]Selection{sel("1.5"), sel("2.0")})
	require.NoError(t, err)
	assert.True(t, combined.Equal(decimal.RequireFromString("3.00")))
	assert.Equal(t, int64(3000), PossibleWin(1000, combined))

	// Fractional products floor.
	assert.Equal(t, int64(1758), PossibleWin(999, decimal.RequireFromString("1.76"))) // 1758.24 floors
}

func TestSplitStake(t *testing.T) {
	tests := []struct {
		name                string
		stake, real, bonus  int64
		wantReal, wantBonus int64
		wantOK              bool
	}{
		{"real covers all", 500, 1000, 200, 500, 0, true},
		{"bonus tops up", 500, 300, 400, 300, 200, true},
		{"exact across pools", 700, 300, 400, 300, 400, true},
		{"insufficient", 800, 300, 400, 300, 400, false},
		{"no real balance", 200, 0, 500, 0, 200, true},
		{"empty pools", 1, 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			realUsed, bonusUsed, ok := SplitStake(tt.stake, tt.real, tt.bonus)
			assert.Equal(t, tt.wantReal, realUsed)
			assert.Equal(t, tt.wantBonus, bonusUsed)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

// TestSplitStakeProperty verifies the split policy invariants for any
// stake and pool sizes: the parts never exceed the pools, real money is
// consumed first, and on success the parts sum exactly to the stake.
func TestSplitStakeProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stake := rapid.Int64Range(1, 1_000_000).Draw(t, "stake")
		real := rapid.Int64Range(0, 1_000_000).Draw(t, "real")
		bonus := rapid.Int64Range(0, 1_000_000).Draw(t, "bonus")

		realUsed, bonusUsed, ok := SplitStake(stake, real, bonus)

		if realUsed < 0 || bonusUsed < 0 {
			t.Fatalf("negative split: real=%d bonus=%d", realUsed, bonusUsed)
		}
		if realUsed > real || bonusUsed > bonus {
			t.Fatalf("split exceeds pools: used (%d,%d) pools (%d,%d)", realUsed, bonusUsed, real, bonus)
		}
		if bonusUsed > 0 && realUsed < min(stake, real) {
			t.Fatalf("bonus used before real exhausted: used (%d,%d) pools (%d,%d)", realUsed, bonusUsed, real, bonus)
		}
		if ok != (realUsed+bonusUsed == stake) {
			t.Fatalf("ok=%v inconsistent with split %d+%d vs stake %d", ok, realUsed, bonusUsed, stake)
		}
		if !ok && real+bonus >= stake {
			t.Fatalf("split failed despite sufficient pools: stake=%d pools (%d,%d)", stake, real, bonus)
		}
	})
}

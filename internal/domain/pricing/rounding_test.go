package pricing

import "testing"

func TestRoundToUnit(t *testing.T) {
	tests := []struct {
		amount    string
		wantRound string
		wantDelta string
	}{
		{"1008", "1008", "0"},
		{"100.4", "100", "-0.4"},
		{"100.49", "100", "-0.49"},
		{"100.5", "101", "0.5"},
		{"100.6", "101", "0.4"},
		{"99.995", "100", "0.005"},
		{"0", "0", "0"},
		{"0.5", "1", "0.5"},
		{"-10.5", "-11", "-0.5"},
		{"-10.4", "-10", "0.4"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := RoundToUnit(dec(tt.amount))

			assertDecimal(t, tt.wantRound, got.Amount)
			assertDecimal(t, tt.wantDelta, got.Delta)
			assertDecimal(t, tt.wantRound, dec(tt.amount).Add(got.Delta), "amount + delta")
		})
	}
}

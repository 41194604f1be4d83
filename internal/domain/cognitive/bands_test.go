package cognitive

import "testing"

func TestLevelForLoad(t *testing.T) {
	cases := []struct {
		score float64
		want  LoadLevel
	}{
		{0, LoadLow},
		{39.9, LoadLow},
		{40.0, LoadModerate},
		{59.9, LoadModerate},
		{60.0, LoadHigh},
		{79.9, LoadHigh},
		{80.0, LoadCritical},
		{100, LoadCritical},
	}
	for _, tc := range cases {
		if got := LevelForLoad(tc.score); got != tc.want {
			t.Fatalf("LevelForLoad(%v)=%s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestLevelForRisk(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{24.9, RiskLow},
		{25.0, RiskMedium},
		{49.9, RiskMedium},
		{50.0, RiskHigh},
		{74.9, RiskHigh},
		{75.0, RiskCritical},
		{100, RiskCritical},
	}
	for _, tc := range cases {
		if got := LevelForRisk(tc.score); got != tc.want {
			t.Fatalf("LevelForRisk(%v)=%s, want %s", tc.score, got, tc.want)
		}
	}
}

package wrds

import "testing"

func TestAssignExchange(t *testing.T) {
	tests := []struct {
		code, want string
	}{
		{"N", "NYSE"},
		{"A", "AMEX"},
		{"Q", "NASDAQ"},
		{"X", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		if got := AssignExchange(tt.code); got != tt.want {
			t.Errorf("AssignExchange(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestAssignIndustry(t *testing.T) {
	tests := []struct {
		siccd int64
		want  string
	}{
		{100, "Agriculture"},
		{1040, "Mining"},
		{1600, "Construction"},
		{3571, "Manufacturing"},
		{4512, "Transportation"},
		{4911, "Utilities"},
		{5065, "Wholesale"},
		{5411, "Retail"},
		{6020, "Finance"},
		{7372, "Services"},
		{9100, "Public"},
		{0, "Missing"},
		{10000, "Missing"},
	}
	for _, tt := range tests {
		if got := AssignIndustry(tt.siccd); got != tt.want {
			t.Errorf("AssignIndustry(%d) = %q, want %q", tt.siccd, got, tt.want)
		}
	}
}

package feed

import "testing"

func TestParsePriority(t *testing.T) {
	tests := []struct {
		raw  string
		want Priority
		ok   bool
	}{
		{"low", PriorityLow, true},
		{"medium", PriorityMedium, true},
		{"high", PriorityHigh, true},
		{"HIGH", PriorityHigh, true},
		{"High", PriorityHigh, true},
		{"  high  ", PriorityHigh, true},
		{"MEDIUM", PriorityMedium, true},
		{"LOW", PriorityLow, true},
		{"urgent", "", false},
		{"", "", false},
		{"hi gh", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePriority(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParsePriority(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

package segment

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Segment
	}{
		{"team", Team},
		{"  Business_Model  ", BusinessModel},
		{"RAISE_TERMS", RaiseTerms},
		{"", Unknown},
		{"not-a-segment", Unknown},
	}
	for _, tt := range tests {
		if got := Parse(tt.in); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestIsKnown(t *testing.T) {
	if IsKnown(Unknown) {
		t.Error("unknown must not count as a known segment")
	}
	if IsKnown(Segment("")) {
		t.Error("empty must not count as a known segment")
	}
	if !IsKnown(Financials) {
		t.Error("financials is a known segment")
	}
}

func TestDisplayOrderCoversEverySegment(t *testing.T) {
	if len(DisplayOrder) != 15 {
		t.Fatalf("expected 15 segments in display order, got %d", len(DisplayOrder))
	}
	seen := make(map[Segment]bool)
	for _, s := range DisplayOrder {
		if seen[s] {
			t.Errorf("duplicate segment %s in display order", s)
		}
		seen[s] = true
	}
	for _, s := range All {
		if !seen[s] {
			t.Errorf("scorable segment %s missing from display order", s)
		}
	}
	if DisplayRank(Overview) >= DisplayRank(Unknown) {
		t.Error("overview must display before unknown")
	}
}

package textutil

import (
	"strings"
	"testing"
)

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"exact substring", "take a deep breath", "okay now take a deep breath for me", 100},
		{"substring either order", "okay now take a deep breath for me", "take a deep breath", 100},
		{"identical", "hello", "hello", 100},
		{"empty left", "", "hello", 0},
		{"empty right", "hello", "   ", 0},
		{"one substitution", "abcde", "xxabzdexx", 80},
		{"case sensitive", "HELLO", "hello", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PartialRatio(tt.a, tt.b); got != tt.want {
				t.Errorf("PartialRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPartialRatioNormalizesUnicode(t *testing.T) {
	composed := "caf\u00e9 au lait"
	decomposed := "we ordered cafe\u0301 au lait twice"
	if got := PartialRatio(composed, decomposed); got != 100 {
		t.Fatalf("expected NFC-equal strings to match exactly, got %d", got)
	}
}

func TestPartialRatioThresholdBoundary(t *testing.T) {
	// Snippets that differ in a fifth of their characters land exactly on 80
	// and must not clear a strict 80 threshold.
	if got := PartialRatio("abcde", "abzde"); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	// The nine-rune prefix window beats the aligned window.
	if got := PartialRatio("abcdefghij", "abcdefghiX"); got != 95 {
		t.Fatalf("expected 95, got %d", got)
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("kitten", "sitting"); got != 62 {
		t.Fatalf("Ratio(kitten, sitting) = %d, want 62", got)
	}
	if got := Ratio("", ""); got != 0 {
		t.Fatalf("Ratio of empty strings = %d, want 0", got)
	}
}

func TestLCSMatchesDynamicProgramming(t *testing.T) {
	lcsDP := func(a, b []rune) int {
		prev := make([]int, len(b)+1)
		for _, x := range a {
			cur := make([]int, len(b)+1)
			for j, y := range b {
				if x == y {
					cur[j+1] = prev[j] + 1
				} else {
					cur[j+1] = max(prev[j+1], cur[j])
				}
			}
			prev = cur
		}
		return prev[len(b)]
	}
	// Lengths straddle the 64-rune word boundary.
	pairs := [][2]string{
		{"abcbdab", "bdcaba"},
		{strings.Repeat("ab cd", 14), strings.Repeat("dcba ", 15)},
		{strings.Repeat("xyz", 30), strings.Repeat("zyx", 31) + "q"},
		{"é", "e\u0301é"},
	}
	for _, pair := range pairs {
		a, b := []rune(pair[0]), []rune(pair[1])
		if got, want := newPattern(a).lcs(b), lcsDP(a, b); got != want {
			t.Errorf("lcs(%q, %q) = %d, want %d", pair[0], pair[1], got, want)
		}
	}
}

func TestPartialRatioLongChannelStaysBelowThreshold(t *testing.T) {
	snippet := "It started after I went running last weekend and my knee has been swollen since then."
	var b strings.Builder
	for b.Len() < 9000 {
		b.WriteString("Please take a seat, the nurse will check your blood pressure in a moment. ")
	}
	if got := PartialRatio(snippet, b.String()); got > 80 {
		t.Fatalf("unrelated snippet scored %d", got)
	}
	if got := PartialRatio(snippet, b.String()+snippet); got != 100 {
		t.Fatalf("embedded snippet scored %d, want 100", got)
	}
}

func TestMatchesQuery(t *testing.T) {
	tests := []struct {
		query, text string
		want        bool
	}{
		{"good morning", "Good morning, what brings you in today?", true},
		{"gd mrng", "Good morning", true},
		{"cafe", "Café au lait", true},
		{"", "anything", true},
		{"morning good", "Good morning", false},
	}
	for _, tt := range tests {
		if got := MatchesQuery(tt.query, tt.text); got != tt.want {
			t.Errorf("MatchesQuery(%q, %q) = %v, want %v", tt.query, tt.text, got, tt.want)
		}
	}
}

package textutil

import (
	"math"
	"math/bits"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC normalization and trims surrounding whitespace.
func Normalize(text string) string {
	return strings.TrimSpace(norm.NFC.String(text))
}

// Ratio returns the Indel similarity of two strings on a 0-100 scale:
// 200*LCS/(len(a)+len(b)), rounded half to even. Empty input scores 0.
func Ratio(a, b string) int {
	ra, rb := []rune(Normalize(a)), []rune(Normalize(b))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	p := newPattern(ra)
	return round(indel(p.lcs(rb), len(ra), len(rb)))
}

// PartialRatio returns the best Indel similarity (0-100) between the shorter
// string and any window of the longer one, including the partial windows at
// either edge. An exact substring scores 100; an empty input scores 0.
//
// Scores follow thefuzz's partial_ratio, so a paraphrase scores higher than
// under a Levenshtein ratio; channel match thresholds are calibrated to this
// scale.
func PartialRatio(a, b string) int {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
		a, b = b, a
	}
	if strings.Contains(b, a) {
		return 100
	}

	p := newPattern(short)
	m, n := len(short), len(long)
	best := 0.0
	consider := func(window []rune) bool {
		// An upper bound that cannot beat best skips the LCS entirely.
		if indel(min(m, len(window)), m, len(window)) <= best {
			return false
		}
		if score := indel(p.lcs(window), m, len(window)); score > best {
			best = score
		}
		return best == 100
	}

	// A window ending or starting on a rune absent from short scores no
	// better than its neighbour without that rune.
	for end := 1; end < m; end++ {
		if p.has(long[end-1]) && consider(long[:end]) {
			return 100
		}
	}
	for start := 0; start+m <= n; start++ {
		if p.has(long[start+m-1]) && consider(long[start:start+m]) {
			return 100
		}
	}
	for start := n - m + 1; start < n; start++ {
		if p.has(long[start]) && consider(long[start:]) {
			return 100
		}
	}
	return round(best)
}

func indel(lcs, la, lb int) float64 {
	return 200 * float64(lcs) / float64(la+lb)
}

func round(score float64) int {
	return int(math.RoundToEven(score))
}

// pattern holds per-rune position bitmasks of a string for bit-parallel LCS.
type pattern struct {
	m       int
	masks   map[rune][]uint64
	state   []uint64
	lastLen uint
}

func newPattern(text []rune) *pattern {
	words := (len(text) + 63) / 64
	p := &pattern{
		m:     len(text),
		masks: make(map[rune][]uint64),
		state: make([]uint64, words),
	}
	for i, r := range text {
		mask, ok := p.masks[r]
		if !ok {
			mask = make([]uint64, words)
			p.masks[r] = mask
		}
		mask[i/64] |= 1 << (uint(i) % 64)
	}
	p.lastLen = uint(len(text) - (words-1)*64)
	return p
}

func (p *pattern) has(r rune) bool {
	_, ok := p.masks[r]
	return ok
}

// lcs returns the length of the longest common subsequence of the pattern
// and text.
func (p *pattern) lcs(text []rune) int {
	s := p.state
	for i := range s {
		s[i] = math.MaxUint64
	}
	for _, r := range text {
		mask, ok := p.masks[r]
		if !ok {
			continue
		}
		var carry, borrow uint64
		for k, word := range s {
			u := word & mask[k]
			var sum, diff uint64
			sum, carry = bits.Add64(word, u, carry)
			diff, borrow = bits.Sub64(word, u, borrow)
			s[k] = sum | diff
		}
	}
	// Zero bits within the pattern length count matched positions.
	count := 0
	last := len(s) - 1
	for k, word := range s {
		if k == last && p.lastLen < 64 {
			word |= math.MaxUint64 << p.lastLen
		}
		count += 64 - bits.OnesCount64(word)
	}
	return count
}

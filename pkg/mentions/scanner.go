// Package mentions finds unlinked mentions: places where a note's content
// spells out the title of another note without linking to it.
package mentions

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
	"github.com/google/uuid"
)

// Mention is a title occurrence found in a text.
type Mention struct {
	// IDs of every note carrying the matched title.
	IDs   []uuid.UUID
	Title string
	// Byte offsets into the lowercased text.
	Start int
	End   int
}

// Scanner matches note titles in arbitrary text, ignoring case.
// A Scanner is immutable and safe for concurrent use once built.
type Scanner struct {
	ac *ahocorasick.Automaton

	patterns     []string
	patternIndex map[string]int
	// Pattern index -> note IDs sharing that title.
	patternToIDs [][]uuid.UUID
}

// NewScanner compiles the titles into an Aho-Corasick automaton.
// Blank titles are skipped.
func NewScanner(titles map[uuid.UUID]string) (*Scanner, error) {
	s := &Scanner{patternIndex: make(map[string]int)}

	// Deterministic pattern order.
	ids := make([]uuid.UUID, 0, len(titles))
	for id := range titles {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})

	for _, id := range ids {
		key := normalize(titles[id])
		if key == "" {
			continue
		}
		if idx, ok := s.patternIndex[key]; ok {
			s.patternToIDs[idx] = append(s.patternToIDs[idx], id)
			continue
		}
		s.patternIndex[key] = len(s.patterns)
		s.patterns = append(s.patterns, key)
		s.patternToIDs = append(s.patternToIDs, []uuid.UUID{id})
	}

	if len(s.patterns) == 0 {
		return s, nil
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(s.patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, err
	}
	s.ac = automaton
	return s, nil
}

// Len returns the number of distinct titles the scanner knows.
func (s *Scanner) Len() int {
	return len(s.patterns)
}

// Scan returns every whole-word title occurrence in text, in text order.
func (s *Scanner) Scan(text string) []Mention {
	if s.ac == nil || text == "" {
		return nil
	}

	haystack := strings.ToLower(text)
	matches := s.ac.FindAllOverlapping([]byte(haystack))

	out := make([]Mention, 0, len(matches))
	for _, m := range matches {
		if !isBoundary(haystack, m.Start, m.End) {
			continue
		}
		out = append(out, Mention{
			IDs:   slices.Clone(s.patternToIDs[m.PatternID]),
			Title: s.patterns[m.PatternID],
			Start: m.Start,
			End:   m.End,
		})
	}
	slices.SortStableFunc(out, func(a, b Mention) int {
		return a.Start - b.Start
	})
	return out
}

// Mentioned returns the distinct note IDs whose titles occur in text,
// in order of first occurrence.
func (s *Scanner) Mentioned(text string) []uuid.UUID {
	var out []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, m := range s.Scan(text) {
		for _, id := range m.IDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func normalize(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// isBoundary reports whether text[start:end] is not glued to a letter or
// digit on either side.
func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

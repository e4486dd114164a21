// Package terms implements lexical, category-tagged flagging of document text.
package terms

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPositions caps how many context snippets are kept per term and chunk.
	MaxPositions = 5
	// ContextRadius is the number of characters kept on each side of a match start.
	ContextRadius = 50
	// MergedPositionsPerResult caps snippets taken from each result when aggregating.
	MergedPositionsPerResult = 2
)

// Lists maps a category to its literal terms.
type Lists map[string][]string

// Position locates one occurrence of a term.
type Position struct {
	Page    *int   `json:"page,omitempty"`
	Context string `json:"context"`
}

// Match is the tally for one term within one category.
type Match struct {
	Term      string     `json:"term"`
	Category  string     `json:"category"`
	Count     int        `json:"count"`
	Positions []Position `json:"positions"`
}

// Result is the term count for a chunk or, after AggregateTermCounts, a document.
type Result struct {
	TotalCount int            `json:"totalCount"`
	ByCategory map[string]int `json:"byCategory"`
	Matches    []Match        `json:"matches"`
}

// Categories returns the list categories in sorted order.
func (l Lists) Categories() []string {
	out := make([]string, 0, len(l))
	for c := range l {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy so callers can hold an immutable snapshot.
func (l Lists) Clone() Lists {
	out := make(Lists, len(l))
	for c, ts := range l {
		out[c] = append([]string(nil), ts...)
	}
	return out
}

type pattern struct {
	term     string
	category string
	re       *regexp.Regexp
}

// Scanner counts terms from a fixed set of lists. Patterns are compiled once.
type Scanner struct {
	categories []string
	patterns   []pattern
}

// NewScanner compiles a scanner for lists. Blank terms and repeats within a
// category are ignored.
func NewScanner(lists Lists) *Scanner {
	s := &Scanner{categories: lists.Categories()}
	for _, category := range s.categories {
		seen := make(map[string]bool, len(lists[category]))
		for _, term := range lists[category] {
			term = strings.TrimSpace(term)
			folded := strings.ToLower(term)
			if term == "" || seen[folded] {
				continue
			}
			seen[folded] = true
			s.patterns = append(s.patterns, pattern{
				term:     term,
				category: category,
				re:       regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\w*\b`),
			})
		}
	}
	return s
}

// Count scans text. The page estimate, when given, is attached to every position.
func (s *Scanner) Count(text string, page *int) Result {
	res := Result{
		ByCategory: make(map[string]int, len(s.categories)),
		Matches:    []Match{},
	}
	for _, c := range s.categories {
		res.ByCategory[c] = 0
	}

	for _, p := range s.patterns {
		locs := p.re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		n := len(locs)
		if n > MaxPositions {
			n = MaxPositions
		}
		positions := make([]Position, 0, n)
		for _, loc := range locs[:n] {
			positions = append(positions, Position{
				Page:    copyPage(page),
				Context: extractContext(text, loc[0], ContextRadius),
			})
		}
		res.Matches = append(res.Matches, Match{
			Term:      p.term,
			Category:  p.category,
			Count:     len(locs),
			Positions: positions,
		})
		res.ByCategory[p.category] += len(locs)
		res.TotalCount += len(locs)
	}
	return res
}

// CountTerms scans text against lists, falling back to the defaults when lists is empty.
func CountTerms(text string, lists Lists, page *int) Result {
	if len(lists) == 0 {
		lists = Defaults()
	}
	return NewScanner(lists).Count(text, page)
}

// extractContext returns the text around byte offset pos, widened by radius characters
// on each side of pos and marked with "..." where it was cut.
func extractContext(text string, pos, radius int) string {
	start := pos
	for i := 0; i < radius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	end := pos
	for i := 0; i < radius && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}

	snippet := strings.TrimSpace(text[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet += "..."
	}
	return snippet
}

func copyPage(page *int) *int {
	if page == nil {
		return nil
	}
	p := *page
	return &p
}

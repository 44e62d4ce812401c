package keyword

import (
	"sort"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Matcher finds which keyword group a text mentions. Groups are ranked by
// their position: when a text hits several groups the lowest index wins.
type Matcher struct {
	machine *goahocorasick.Machine
	rank    map[string]int
}

// NewMatcher builds one automaton over every keyword of every group.
// Keywords are matched case-insensitively as plain substrings.
func NewMatcher(groups [][]string) (*Matcher, error) {
	m := &Matcher{rank: make(map[string]int)}

	patterns := make([][]rune, 0, len(groups))
	for idx, group := range groups {
		for _, word := range group {
			word = strings.ToLower(word)
			if word == "" {
				continue
			}
			if _, exists := m.rank[word]; exists {
				// an earlier group already owns this keyword
				continue
			}
			m.rank[word] = idx
			patterns = append(patterns, []rune(word))
		}
	}

	if len(patterns) == 0 {
		return m, nil
	}

	// the double-array trie underneath expects keys in lexical order
	sort.Slice(patterns, func(i, j int) bool {
		return string(patterns[i]) < string(patterns[j])
	})

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	m.machine = machine
	return m, nil
}

// Match returns the index of the highest-priority group mentioned in text.
func (m *Matcher) Match(text string) (int, bool) {
	if m.machine == nil {
		return -1, false
	}

	normalized := []rune(strings.ToLower(text))
	if len(normalized) == 0 {
		return -1, false
	}

	best := -1
	for _, term := range m.machine.MultiPatternSearch(normalized, false) {
		idx, ok := m.rank[string(term.Word)]
		if !ok {
			continue
		}
		if best == -1 || idx < best {
			best = idx
		}
	}
	return best, best >= 0
}

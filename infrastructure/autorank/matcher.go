package autorank

import (
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-humeval/internal/domain"
)

// DefaultMaxDistance is the largest edit distance reported as a likely
// spelling variant of a system name.
const DefaultMaxDistance = 3

// Mismatch is a human-ranked system with no AutoRank row, together with
// AutoRank names that are probably the same system spelled differently.
type Mismatch struct {
	LanguagePair domain.LanguagePair
	SystemID     string
	Suggestions  []string
}

// Suggest returns the candidates within maxDistance edits of name, closest
// first and alphabetically among equals. Comparison ignores case and treats
// "_" and "-" alike, since campaign exports and workbooks disagree on both.
func Suggest(name string, candidates []string, maxDistance int) []string {
	type scored struct {
		name string
		dist int
	}
	key := normalizeName(name)
	var hits []scored
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(key, normalizeName(c))
		if d <= maxDistance {
			hits = append(hits, scored{c, d})
		}
	}
	slices.SortFunc(hits, func(a, b scored) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return strings.Compare(a.name, b.name)
	})

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", "-")
}

// Unmatched lists, per language pair, the human-ranked systems that have
// no AutoRank row in book. Language pairs without a sheet are skipped.
func Unmatched(book domain.AutoRankBook, systems map[domain.LanguagePair][]string, maxDistance int) []Mismatch {
	lps := make([]domain.LanguagePair, 0, len(systems))
	for lp := range systems {
		lps = append(lps, lp)
	}
	slices.Sort(lps)

	var out []Mismatch
	for _, lp := range lps {
		rows, ok := book[lp]
		if !ok {
			continue
		}
		names := make([]string, 0, len(rows))
		for _, r := range rows {
			names = append(names, r.SystemID)
		}
		for _, id := range systems[lp] {
			if slices.Contains(names, id) {
				continue
			}
			out = append(out, Mismatch{
				LanguagePair: lp,
				SystemID:     id,
				Suggestions:  Suggest(id, names, maxDistance),
			})
		}
	}
	return out
}

// Package normalize turns raw annotation wave exports into domain
// judgments. It reads direct-scoring (ESA) CSV waves and error-span (MQM)
// TSV waves, maps language codes, applies the MQM weight table, aligns raw
// segment ids with the per-language-pair document catalog, and joins domain
// and document onto every judgment.
package normalize

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/ahrav/go-humeval/internal/domain"
)

// ErrUnknownLanguage indicates a language code with no two-letter mapping.
var ErrUnknownLanguage = errors.New("unknown language code")

// defaultCodes maps the three-letter codes used by the campaign exports to
// two-letter codes.
var defaultCodes = map[string]string{
	"eng": "en",
	"ces": "cs",
	"hin": "hi",
	"zho": "zh",
	"jpn": "ja",
	"rus": "ru",
	"ukr": "uk",
	"deu": "de",
	"isl": "is",
	"spa": "es",
}

// LanguageCodes maps campaign language codes to two-letter codes. The
// built-in table is consulted first, then ISO 639 canonicalization.
type LanguageCodes struct {
	table map[string]string
}

// NewLanguageCodes creates a mapper from the built-in table extended by
// extra. Entries in extra override the built-in ones.
func NewLanguageCodes(extra map[string]string) *LanguageCodes {
	table := maps.Clone(defaultCodes)
	maps.Copy(table, extra)
	return &LanguageCodes{table: table}
}

// TwoLetter returns the two-letter code for a campaign language code.
// Codes that are neither in the table nor a known ISO 639 language with a
// two-letter form fail with ErrUnknownLanguage.
func (c *LanguageCodes) TwoLetter(code string) (string, error) {
	if two, ok := c.table[code]; ok {
		return two, nil
	}
	base, err := language.ParseBase(strings.ToLower(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	two := base.String()
	if len(two) != 2 {
		return "", fmt.Errorf("%w: %q has no two-letter form", ErrUnknownLanguage, code)
	}
	return two, nil
}

// Pair maps source and target codes and joins them into a language pair.
func (c *LanguageCodes) Pair(source, target string) (domain.LanguagePair, error) {
	src, err := c.TwoLetter(source)
	if err != nil {
		return "", err
	}
	tgt, err := c.TwoLetter(target)
	if err != nil {
		return "", err
	}
	return domain.NewLanguagePair(src, tgt), nil
}

// LanguageName returns the English name of a language code, e.g. "German"
// for "de". A script or region suffix such as "_TW" is ignored. Unknown
// codes are returned unchanged.
func LanguageName(code string) string {
	base, _, _ := strings.Cut(code, "_")
	tag, err := language.Parse(base)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// DisplayName renders a language pair as "English-German".
func DisplayName(lp domain.LanguagePair) string {
	return LanguageName(lp.Source()) + "-" + LanguageName(lp.Target())
}

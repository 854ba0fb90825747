package normalize

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

// CanaryDomain labels catalog lines that hold the canary string rather
// than a real segment.
const CanaryDomain = "canary"

// CatalogSuffix is the file extension of document catalogs.
const CatalogSuffix = ".docs"

// CatalogEntry is one catalog line: the domain and document of a segment.
type CatalogEntry struct {
	Domain   string
	Document string
}

// Catalog lists the domain and document of every source line of one
// language pair. Line 0 is the canary.
type Catalog struct {
	lp    domain.LanguagePair
	lines []CatalogEntry
}

// ParseCatalog reads a tab-separated "domain<TAB>document" catalog. source
// names the input in errors.
func ParseCatalog(lp domain.LanguagePair, r io.Reader, source string) (*Catalog, error) {
	c := &Catalog{lp: lp}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		dom, doc, ok := strings.Cut(text, "\t")
		if !ok || dom == "" || strings.Contains(doc, "\t") {
			return nil, ports.NewDataError(source, line,
				fmt.Errorf("%w: want domain<TAB>document, got %q", ports.ErrMalformedRecord, text))
		}
		c.lines = append(c.lines, CatalogEntry{Domain: dom, Document: doc})
	}
	if err := scanner.Err(); err != nil {
		return nil, ports.NewDataError(source, line, err)
	}
	return c, nil
}

// LanguagePair returns the language pair the catalog describes.
func (c *Catalog) LanguagePair() domain.LanguagePair { return c.lp }

// Len returns the number of catalog lines, canary included.
func (c *Catalog) Len() int { return len(c.lines) }

// Lookup returns the entry of a zero-based segment index under mapping m.
func (c *Catalog) Lookup(m SegmentMapping, index int) (CatalogEntry, error) {
	line := m.CatalogLine(index)
	if index < 0 || line >= len(c.lines) {
		return CatalogEntry{}, fmt.Errorf("%w: segment %d of %s (catalog has %d lines)",
			ErrSegmentOutOfRange, index, c.lp, len(c.lines))
	}
	return c.lines[line], nil
}

// DomainDistribution returns the share of segments per domain in percent,
// canary lines excluded.
func (c *Catalog) DomainDistribution() map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, e := range c.lines {
		if e.Domain == CanaryDomain {
			continue
		}
		counts[e.Domain]++
		total++
	}
	dist := make(map[string]float64, len(counts))
	for dom, n := range counts {
		dist[dom] = float64(n) / float64(total) * 100
	}
	return dist
}

// ResourceCatalog loads document catalogs from a directory on first use
// and keeps them for the lifetime of the process.
//
// Concurrency: safe for use by multiple wave readers; concurrent first
// requests for the same language pair share one file read.
type ResourceCatalog struct {
	dir      string
	mu       sync.RWMutex
	catalogs map[domain.LanguagePair]*Catalog
	sf       singleflight.Group
}

// NewResourceCatalog creates a catalog reader over dir, which holds one
// "<lp>.docs" file per language pair.
func NewResourceCatalog(dir string) *ResourceCatalog {
	return &ResourceCatalog{
		dir:      filepath.Clean(dir),
		catalogs: make(map[domain.LanguagePair]*Catalog),
	}
}

// Catalog returns the catalog of a language pair, reading it if needed.
func (rc *ResourceCatalog) Catalog(lp domain.LanguagePair) (*Catalog, error) {
	rc.mu.RLock()
	c, ok := rc.catalogs[lp]
	rc.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := rc.sf.Do(lp.String(), func() (any, error) {
		path := filepath.Join(rc.dir, lp.String()+CatalogSuffix)
		f, err := os.Open(path)
		if err != nil {
			return nil, ports.NewDataError(path, 0, fmt.Errorf("%w: %w", ports.ErrSourceUnavailable, err))
		}
		defer f.Close()

		c, err := ParseCatalog(lp, f, path)
		if err != nil {
			return nil, err
		}
		rc.mu.Lock()
		rc.catalogs[lp] = c
		rc.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// LanguagePairs lists the language pairs with a catalog in the directory.
func (rc *ResourceCatalog) LanguagePairs() ([]domain.LanguagePair, error) {
	matches, err := filepath.Glob(filepath.Join(rc.dir, "*"+CatalogSuffix))
	if err != nil {
		return nil, err
	}
	lps := make([]domain.LanguagePair, 0, len(matches))
	for _, m := range matches {
		lps = append(lps, domain.LanguagePair(strings.TrimSuffix(filepath.Base(m), CatalogSuffix)))
	}
	slices.Sort(lps)
	return lps, nil
}

// Attach fills Domain, Document and SegmentKey of a judgment from the
// catalog. j.SegmentIndex must already be normalized; docID is the wave's
// own document id and becomes part of the segment key.
func (rc *ResourceCatalog) Attach(j *domain.Judgment, m SegmentMapping, docID string) error {
	c, err := rc.Catalog(j.LanguagePair)
	if err != nil {
		return err
	}
	entry, err := c.Lookup(m, j.SegmentIndex)
	if err != nil {
		return err
	}
	j.Domain = entry.Domain
	j.Document = entry.Document
	j.SegmentKey = domain.NewSegmentKey(docID, j.SegmentIndex, j.LanguagePair)
	return nil
}

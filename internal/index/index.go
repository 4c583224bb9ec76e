// Package index keeps an in-memory full-text index over a story catalogue.
package index

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/stories/internal/stories"
)

// Index answers paged queries over a fixed set of stories. Stories are
// returned exactly as they were indexed, including malformed ones.
// Safe for concurrent reads.
type Index struct {
	idx     bleve.Index
	stories []stories.Story
}

func New(items []stories.Story) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating index: %w", err)
	}

	batch := idx.NewBatch()
	for i, s := range items {
		if err := batch.Index(docID(i), map[string]any{
			"title": s.Title,
			"url":   s.URL,
		}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("indexing story %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("indexing stories: %w", err)
	}

	return &Index{
		idx:     idx,
		stories: append([]stories.Story(nil), items...),
	}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = false
	title.IncludeTermVectors = true

	url := bleve.NewTextFieldMapping()
	url.Analyzer = standard.Name
	url.Store = false

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("url", url)

	im.DefaultMapping = dm
	return im
}

// Len reports the number of indexed stories.
func (x *Index) Len() int {
	return len(x.stories)
}

// DocCount asks bleve how many documents it holds.
func (x *Index) DocCount() (uint64, error) {
	return x.idx.DocCount()
}

func (x *Index) Close() error {
	return x.idx.Close()
}

// Page returns up to limit stories starting at offset together with the
// total number of matches. A blank query matches every story in
// catalogue order; otherwise hits are ranked by relevance.
func (x *Index) Page(query string, offset, limit int) ([]stories.Story, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return x.slice(offset, limit), len(x.stories), nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(terms), limit, offset, false)
	req.SortBy([]string{"-_score", "_id"})
	res, err := x.idx.Search(req)
	if err != nil {
		return nil, 0, fmt.Errorf("searching %q: %w", query, err)
	}

	out := make([]stories.Story, 0, len(res.Hits))
	for _, h := range res.Hits {
		i, err := strconv.Atoi(h.ID)
		if err != nil || i < 0 || i >= len(x.stories) {
			continue
		}
		out = append(out, x.stories[i])
	}
	return out, int(res.Total), nil
}

// Search returns the best limit matches for query.
func (x *Index) Search(query string, limit int) ([]stories.Story, error) {
	items, _, err := x.Page(query, 0, limit)
	return items, err
}

func (x *Index) slice(offset, limit int) []stories.Story {
	if offset >= len(x.stories) {
		return []stories.Story{}
	}
	end := offset + limit
	if end > len(x.stories) {
		end = len(x.stories)
	}
	return append([]stories.Story(nil), x.stories[offset:end]...)
}

// buildQuery ORs per-term match and prefix queries, title weighted above url.
func buildQuery(terms []string) bleveQuery.Query {
	var qs []bleveQuery.Query
	for _, tok := range terms {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(4.0)
		qs = append(qs, qt)

		qtp := bleve.NewPrefixQuery(tok)
		qtp.SetField("title")
		qtp.SetBoost(3.5)
		qs = append(qs, qtp)

		qu := bleve.NewMatchQuery(tok)
		qu.SetField("url")
		qu.SetBoost(0.5)
		qs = append(qs, qu)

		qup := bleve.NewPrefixQuery(tok)
		qup.SetField("url")
		qup.SetBoost(0.3)
		qs = append(qs, qup)
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			terms = append(terms, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		terms = append(terms, current.String())
	}
	return terms
}

// docID pads ids so "_id" ordering follows catalogue order.
func docID(i int) string {
	return fmt.Sprintf("%08d", i)
}

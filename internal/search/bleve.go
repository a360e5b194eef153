package search

import (
	"context"
	"errors"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

// BleveIndex is a local full-text index of search records. It backs the
// preview server's /search endpoint and the "bleve" upload backend.
type BleveIndex struct {
	index bleve.Index
	path  string
}

// Hit is one search result.
type Hit struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Date      string              `json:"date,omitempty"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// OpenBleve opens the index at path, creating it when it does not exist.
func OpenBleve(path string) (*BleveIndex, error) {
	if path == "" {
		return nil, ferrors.ConfigError("bleve index path is required").Build()
	}
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategorySearch, "create search index").
				WithContext("path", path).Build()
		}
	} else if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategorySearch, "open search index").
			WithContext("path", path).Build()
	}
	return &BleveIndex{index: idx, path: path}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"

	named := bleve.NewDocumentMapping()
	named.AddFieldMappingsAt("id", keyword)
	named.AddFieldMappingsAt("name", text)

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("id", keyword)
	doc.AddFieldMappingsAt("objectID", keyword)
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("abstract", text)
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("date", keyword)
	doc.AddSubDocumentMapping("authors", named)
	doc.AddSubDocumentMapping("tags", named)

	im := bleve.NewIndexMapping()
	im.AddDocumentMapping("_default", doc)
	return im
}

func (b *BleveIndex) Name() string { return BackendBleve }

// Upload indexes records in one batch, replacing documents with the same
// object id.
func (b *BleveIndex) Upload(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := b.index.NewBatch()
	for i := range records {
		if err := batch.Index(records[i].ObjectID, records[i]); err != nil {
			return ferrors.WrapError(err, ferrors.CategorySearch, "batch index").
				WithContext("id", records[i].ObjectID).Build()
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return ferrors.WrapError(err, ferrors.CategorySearch, "commit batch").Build()
	}
	return nil
}

// Search runs a query string query and returns highlighted hits.
func (b *BleveIndex) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"title", "date"}

	res, err := b.index.Search(req)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategorySearch, "search").
			WithContext("query", query).Build()
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score, Fragments: h.Fragments}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		if date, ok := h.Fields["date"].(string); ok {
			hit.Date = date
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count returns the number of indexed documents.
func (b *BleveIndex) Count() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveIndex) Close() error {
	return b.index.Close()
}

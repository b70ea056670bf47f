// Package docindex stores bank policy and FAQ documents in a Bleve
// full-text index and answers keyword queries against it.
package docindex

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

type Hit struct {
	Title   string
	Snippet string
	Source  string
	Score   float64
}

// Index wraps a Bleve index over bank documents. An empty path keeps the
// index in memory, which is what the tests and the demo seeding use.
type Index struct {
	index bleve.Index
}

func New(path string) (*Index, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: index}, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		index, err := bleve.New(path, buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create index at %s: %w", path, err)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index at %s: %w", path, err)
	}
	return &Index{index: index}, nil
}

func buildMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name

	keywordField := bleve.NewKeywordFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("content", textField)
	docMapping.AddFieldMappingsAt("source", keywordField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

func (i *Index) Add(doc Document) error {
	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("document content is empty")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := i.index.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	return nil
}

func (i *Index) Seed(docs []Document) error {
	for _, doc := range docs {
		if err := i.Add(doc); err != nil {
			return err
		}
	}
	return nil
}

func (i *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 5
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = k
	req.Fields = []string{"title", "content", "source"}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		title, _ := h.Fields["title"].(string)
		content, _ := h.Fields["content"].(string)
		source, _ := h.Fields["source"].(string)
		hits = append(hits, Hit{
			Title:   title,
			Snippet: snippet(content, 280),
			Source:  source,
			Score:   h.Score,
		})
	}
	return hits, nil
}

func (i *Index) Close() error {
	return i.index.Close()
}

func snippet(content string, max int) string {
	content = strings.TrimSpace(content)
	if len(content) <= max {
		return content
	}
	cut := content[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

package search

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/campus/internal/content"
	"git.home.luguber.info/inful/campus/internal/listing"
)

// Named is a related entity flattened to its display name.
type Named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Record is the flat search document uploaded for one post.
type Record struct {
	ObjectID string  `json:"objectID"`
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Abstract string  `json:"abstract,omitempty"`
	Date     string  `json:"date"`
	Lang     string  `json:"lang,omitempty"`
	Type     string  `json:"type,omitempty"`
	Authors  []Named `json:"authors"`
	Tags     []Named `json:"tags"`
	// Content is the plain text of the compiled body, empty for previews.
	Content string `json:"content,omitempty"`
}

// RecordFrom flattens a hydrated post.
func RecordFrom(e *content.Entity) (Record, error) {
	post, err := content.Decode[content.Post](e)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ObjectID: post.ID,
		ID:       post.ID,
		Title:    post.Title,
		Abstract: post.Abstract,
		Date:     post.Date,
		Lang:     post.Lang,
		Authors:  make([]Named, len(post.Authors)),
		Tags:     make([]Named, len(post.Tags)),
	}
	if post.Type != nil {
		rec.Type = post.Type.Name
	}
	for i, a := range post.Authors {
		rec.Authors[i] = Named{ID: a.ID, Name: a.FullName()}
	}
	for i, tag := range post.Tags {
		rec.Tags[i] = Named{ID: tag.ID, Name: tag.Name}
	}
	if e.Body != nil {
		rec.Content = PlainText(e.Body.HTML)
	}
	return rec, nil
}

// RecordsFrom flattens posts, keeping their order.
func RecordsFrom(posts []*content.Entity) ([]Record, error) {
	records := make([]Record, len(posts))
	for i, p := range posts {
		rec, err := RecordFrom(p)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}
	return records, nil
}

// BuildRecords resolves every post and maps it to a record, newest first.
// With full set the compiled body text is included.
func BuildRecords(ctx context.Context, r *content.Resolver, full bool) ([]Record, error) {
	mode := content.ModePreview
	if full {
		mode = content.ModeFull
	}
	posts, err := r.All(ctx, content.KindPost, mode)
	if err != nil {
		return nil, err
	}
	listing.SortByDate(posts)
	return RecordsFrom(posts)
}

// PlainText strips markup from compiled HTML and collapses whitespace.
// Script and style contents are dropped.
func PlainText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
			// block boundaries must not glue words together
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawText(tag []byte) bool {
	s := string(tag)
	return s == "script" || s == "style"
}

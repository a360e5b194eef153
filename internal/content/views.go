package content

import (
	"encoding/json"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
	"git.home.luguber.info/inful/campus/internal/markdown"
)

// Person is the typed view of a person entity.
type Person struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Orcid       string `json:"orcid,omitempty"`
	Linkedin    string `json:"linkedin,omitempty"`
}

// FullName joins first and last name.
func (p Person) FullName() string { return FullName(p.FirstName, p.LastName) }

// Tag is the typed view of a tag entity.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Category is the typed view of a category entity.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Host        string `json:"host,omitempty"`
	Image       string `json:"image,omitempty"`
}

// ContentType is one value of the fixed content type enumeration.
type ContentType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Remote describes where an externally published resource lives.
type Remote struct {
	Publisher string `json:"publisher,omitempty"`
	Date      string `json:"date,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Post is the typed view of a post preview.
type Post struct {
	ID            string       `json:"id"`
	UUID          string       `json:"uuid,omitempty"`
	Title         string       `json:"title"`
	ShortTitle    string       `json:"shortTitle,omitempty"`
	Lang          string       `json:"lang,omitempty"`
	Date          string       `json:"date"`
	Version       string       `json:"version,omitempty"`
	Licence       string       `json:"licence,omitempty"`
	FeaturedImage string       `json:"featuredImage,omitempty"`
	Abstract      string       `json:"abstract,omitempty"`
	Domain        string       `json:"domain,omitempty"`
	TargetGroup   string       `json:"targetGroup,omitempty"`
	Authors       []Person     `json:"authors"`
	Contributors  []Person     `json:"contributors"`
	Editors       []Person     `json:"editors"`
	Tags          []Tag        `json:"tags"`
	Categories    []Category   `json:"categories"`
	Type          *ContentType `json:"type,omitempty"`
	Remote        *Remote      `json:"remote,omitempty"`
	Toc           bool         `json:"toc,omitempty"`
}

// Session is one session of an event.
type Session struct {
	Title     string             `json:"title"`
	Speakers  []Person           `json:"speakers"`
	Body      *markdown.Document `json:"body"`
	Synthesis string             `json:"synthesis,omitempty"`
}

// Event is the typed view of an event preview.
type Event struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	ShortTitle string             `json:"shortTitle,omitempty"`
	EventType  string             `json:"eventType,omitempty"`
	Date       string             `json:"date"`
	Abstract   string             `json:"abstract,omitempty"`
	Logo       string             `json:"logo,omitempty"`
	Synthesis  string             `json:"synthesis,omitempty"`
	Authors    []Person           `json:"authors"`
	Tags       []Tag              `json:"tags"`
	Categories []Category         `json:"categories"`
	Type       *ContentType       `json:"type,omitempty"`
	Sessions   []Session          `json:"sessions"`
	About      *markdown.Document `json:"about"`
	Prep       *markdown.Document `json:"prep"`
}

// Collection is the typed view of a curriculum preview.
type Collection struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Abstract  string `json:"abstract,omitempty"`
	Resources []Post `json:"resources"`
}

// Doc is the typed view of a documentation page preview.
type Doc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order,omitempty"`
}

// Decode converts an entity's metadata into a typed view such as Post.
func Decode[T any](e *Entity) (T, error) {
	var out T
	raw, err := json.Marshal(e.Metadata())
	if err != nil {
		return out, ferrors.InternalError("encode entity").WithCause(err).WithContext("id", e.ID).Build()
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, ferrors.ContentError("entity does not match its view").
			WithCause(err).
			WithContext("kind", string(e.Kind)).
			WithContext("id", e.ID).
			Build()
	}
	return out, nil
}

package content

import (
	"errors"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	ferrors "git.home.luguber.info/inful/campus/internal/foundation/errors"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// ParseDate parses the ISO date forms accepted in front matter.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDate(value any) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		if _, ok := ParseDate(v); ok {
			return nil
		}
	}
	return errors.New("must be an ISO date")
}

func isString(value any) error {
	if _, ok := value.(string); !ok && value != nil {
		return errors.New("must be a string")
	}
	return nil
}

func isInteger(value any) error {
	switch value.(type) {
	case int, int64, uint64:
		return nil
	}
	return errors.New("must be an integer")
}

func isContentType(value any) error {
	s, ok := value.(string)
	if !ok {
		return errors.New("must be a string")
	}
	if !slices.Contains(ContentTypeIDs(), NormalizeContentType(s)) {
		return errors.New("must be one of " + strings.Join(ContentTypeIDs(), ", "))
	}
	return nil
}

// validate runs the schema rules against raw front matter.
func (s *Schema) validate(id string, meta map[string]any) error {
	if len(s.Rules) == 0 {
		return nil
	}
	err := validation.Validate(meta, validation.Map(s.Rules...).AllowExtraKeys())
	if err == nil {
		return nil
	}
	b := ferrors.ContentError("invalid front matter").
		WithCause(err).
		WithContext("kind", string(s.Kind)).
		WithContext("id", id)
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for name := range fieldErrs {
			fields = append(fields, name)
		}
		slices.Sort(fields)
		b.WithContext("fields", fields)
	}
	return b.Build()
}

package content

import "strings"

// contentTypes is the fixed content type enumeration.
var contentTypes = []struct{ id, name string }{
	{"audio", "Audio"},
	{"event", "Event"},
	{"slides", "Slides"},
	{"training-module", "Training module"},
	{"video", "Video"},
	{"webinar-recording", "Webinar recording"},
	{"website", "Website"},
	{"pathfinder", "Pathfinder"},
}

// NormalizeContentType maps front matter spellings such as
// "training module" to the identifier "training-module".
func NormalizeContentType(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), " ", "-")
}

func contentTypeBuiltins() map[string]map[string]any {
	out := make(map[string]map[string]any, len(contentTypes))
	for _, ct := range contentTypes {
		out[ct.id] = map[string]any{"name": ct.name}
	}
	return out
}

// ContentTypeIDs returns the identifiers of the enumeration in declaration order.
func ContentTypeIDs() []string {
	ids := make([]string, len(contentTypes))
	for i, ct := range contentTypes {
		ids[i] = ct.id
	}
	return ids
}

// Package frontmatter splits content files into a YAML metadata block and a
// Markdown body, and writes such files back.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter is returned when a document opens a front
// matter block with --- but never closes it.
var ErrMissingClosingDelimiter = errors.New("front matter opened with --- but never closed")

// Style records the newline convention of a document so that Join can
// rebuild it byte for byte.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Document is a parsed content file.
type Document struct {
	Meta map[string]any
	Body []byte
	// HadFrontMatter is false for Markdown files without a --- block.
	HadFrontMatter bool
}

// Split separates a leading --- delimited YAML block from the body.
//
// Without a leading delimiter, had is false and body is the whole input.
func Split(content []byte) (fm []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline

	delim := []byte("---" + nl)
	if !bytes.HasPrefix(content, delim) {
		return nil, content, false, style, nil
	}
	rest := content[len(delim):]

	// Empty block: the closing delimiter follows immediately.
	if bytes.HasPrefix(rest, delim) {
		return []byte{}, rest[len(delim):], true, style, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		// A file that ends right after the closing delimiter has no trailing newline.
		if bytes.HasSuffix(rest, []byte(nl+"---")) {
			end := len(rest) - len("---")
			return rest[:end], []byte{}, true, style, nil
		}
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closing):], true, style, nil
}

// Join is the inverse of Split.
func Join(fm []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	var buf bytes.Buffer
	buf.Grow(len(fm) + len(body) + 2*(3+len(nl)))
	buf.WriteString("---" + nl)
	buf.Write(fm)
	buf.WriteString("---" + nl)
	buf.Write(body)
	return buf.Bytes()
}

// ParseYAML decodes a YAML mapping. Empty input yields an empty map.
func ParseYAML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Parse reads a content file. When metadataOnly is set the whole file is a
// YAML document (people, tags, categories); otherwise it is Markdown with
// optional front matter.
func Parse(content []byte, metadataOnly bool) (Document, error) {
	if metadataOnly {
		meta, err := ParseYAML(content)
		if err != nil {
			return Document{}, err
		}
		return Document{Meta: meta, HadFrontMatter: true}, nil
	}

	fm, body, had, _, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	meta, err := ParseYAML(fm)
	if err != nil {
		return Document{}, err
	}
	return Document{Meta: meta, Body: body, HadFrontMatter: had}, nil
}

func detectStyle(content []byte) Style {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}
	return Style{
		Newline:            nl,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}

package content

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/campus/internal/frontmatter"
)

// Keys that do not change what an entity renders to.
var fingerprintIgnored = map[string]bool{
	mdfp.FingerprintField: true,
	"uuid":                true,
	"lastmod":             true,
}

// Fingerprint hashes front matter and body. The front matter is serialized
// with sorted keys, so key order in the file does not matter.
func Fingerprint(meta map[string]any, body []byte) (string, error) {
	hashed := make(map[string]any, len(meta))
	for k, v := range meta {
		if !fingerprintIgnored[k] {
			hashed[k] = v
		}
	}

	fm := ""
	if len(hashed) > 0 {
		raw, err := frontmatter.SerializeYAML(hashed, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(raw), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

package render

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]+`)

const maxNameLen = 100

// artifactName derives a filesystem-safe PDF name from the URL path: runs of
// non-alphanumeric characters collapse to underscores, an empty path becomes
// "index", and the readable part is truncated to 100 characters. A short hash
// of the full URL keeps truncated or query-only-differing URLs from colliding.
func artifactName(rawURL string) string {
	p := ""
	if u, err := url.Parse(rawURL); err == nil {
		p = strings.Trim(u.Path, "/")
	}
	safe := strings.Trim(nonAlphanumeric.ReplaceAllString(p, "_"), "_")
	if safe == "" {
		safe = "index"
	}
	if len(safe) > maxNameLen {
		safe = safe[:maxNameLen]
	}
	sum := sha1.Sum([]byte(rawURL))
	return fmt.Sprintf("%s_%s.pdf", safe, hex.EncodeToString(sum[:])[:8])
}

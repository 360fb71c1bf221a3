package application

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"

	"github.com/dfryer1193/blogo/blog/domain"
	"github.com/gosimple/slug"
)

var (
	postPathRegex    = regexp.MustCompile(`^posts/\d+-([^/]+)\.md$`)
	imagePathRegex   = regexp.MustCompile(`(?i)^images/.+\.(jpe?g|png|gif|svg|webp|avif)$`)
	orderPrefixRegex = regexp.MustCompile(`^\d+-`)
)

// isPostFile checks if a file path is a post file in the posts/ directory
// Valid format: posts/NNN-title-of-post.md where NNN is one or more digits
func isPostFile(p string) bool {
	return postPathRegex.MatchString(p)
}

func isImageFile(p string) bool {
	return imagePathRegex.MatchString(p)
}

// slugFromPostPath derives the post slug from its file name.
// Example: "posts/001-my-post.md" -> "my-post"
func slugFromPostPath(p string) string {
	name := strings.TrimSuffix(path.Base(p), ".md")
	return makeSlug(orderPrefixRegex.ReplaceAllString(name, ""))
}

// makeSlug turns free text into a slug no longer than domain.MaxSlugLength.
// Underscores separate words like spaces do; slug.Make would keep them.
func makeSlug(s string) string {
	out := slug.Make(strings.ReplaceAll(s, "_", "-"))
	if len(out) > domain.MaxSlugLength {
		out = strings.TrimRight(out[:domain.MaxSlugLength], "-")
	}
	return out
}

func calculateHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

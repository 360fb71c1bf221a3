package domain

import "strings"

// ContentSeparator marks the split point between a post's teaser and the rest of its content.
const ContentSeparator = "----"

// RenderFunc converts authored text into an HTML fragment.
type RenderFunc func(text string) string

// SplitResult holds the rendered teaser and full body derived from a post's content.
type SplitResult struct {
	Description string
	Body        string
}

// SplitContent derives the description and body of a post from its raw content.
//
// Only the leftmost occurrence of ContentSeparator is considered. The body is always the
// content with that one occurrence removed. The description is the rendered text before the
// separator, or empty when there is no separator or when either side of it is empty.
func SplitContent(content string, render RenderFunc) SplitResult {
	prefix, remainder, found := strings.Cut(content, ContentSeparator)
	if !found {
		return SplitResult{Body: render(content)}
	}

	result := SplitResult{Body: render(prefix + remainder)}
	if prefix != "" && remainder != "" {
		result.Description = render(prefix)
	}

	return result
}

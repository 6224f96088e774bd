package session

import (
	"strings"
)

const frontmatterDelim = "---\n"

// splitFrontmatter divides workspace file content into the raw YAML header
// (without delimiters) and the freeform body. ok is false when no complete
// frontmatter block is present, in which case the whole content is body.
func splitFrontmatter(content string) (header, body string, ok bool) {
	if !strings.HasPrefix(content, frontmatterDelim) {
		return "", content, false
	}
	rest := content[len(frontmatterDelim):]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return "", content, false
	}
	return rest[:idx+1], rest[idx+len("\n---\n"):], true
}

// joinFrontmatter reassembles a workspace file from a YAML header and body.
func joinFrontmatter(header, body string) string {
	var b strings.Builder
	b.WriteString(frontmatterDelim)
	b.WriteString(header)
	if !strings.HasSuffix(header, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFrontmatter(t *testing.T) {
	header, body, ok := splitFrontmatter("---\nkey: value\n---\nbody text\n")
	assert.True(t, ok)
	assert.Equal(t, "key: value\n", header)
	assert.Equal(t, "body text\n", body)
}

func TestSplitFrontmatter_NoHeader(t *testing.T) {
	header, body, ok := splitFrontmatter("just notes\n")
	assert.False(t, ok)
	assert.Empty(t, header)
	assert.Equal(t, "just notes\n", body)
}

func TestSplitFrontmatter_Unterminated(t *testing.T) {
	_, body, ok := splitFrontmatter("---\nkey: value\nno terminator")
	assert.False(t, ok)
	assert.Equal(t, "---\nkey: value\nno terminator", body)
}

func TestSplitFrontmatter_BodyWithDashes(t *testing.T) {
	// A horizontal rule in the body must not be mistaken for a second header.
	content := "---\nkey: value\n---\nintro\n\n---\n\noutro\n"
	header, body, ok := splitFrontmatter(content)
	assert.True(t, ok)
	assert.Equal(t, "key: value\n", header)
	assert.Equal(t, "intro\n\n---\n\noutro\n", body)
}

func TestJoinFrontmatter_RoundTrip(t *testing.T) {
	content := joinFrontmatter("key: value\n", "body\n")
	header, body, ok := splitFrontmatter(content)
	assert.True(t, ok)
	assert.Equal(t, "key: value\n", header)
	assert.Equal(t, "body\n", body)
}

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyChainKeepsAll(t *testing.T) {
	c := NewChain()
	assert.True(t, c.Match("any/file.txt", false))
	assert.True(t, c.Allows("any/dir", true))
	assert.True(t, c.Empty())

	var nilChain *Chain
	assert.True(t, nilChain.Allows("x", false))
}

func TestExcludePattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*.log"))

	assert.False(t, c.Match("app.log", false))
	assert.False(t, c.Match("sub/debug.log", false))
	assert.True(t, c.Match("app.txt", false))
	assert.Equal(t, 1, c.Len())
}

func TestFirstMatchWins(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddInclude("important.log"))
	require.NoError(t, c.AddExclude("*.log"))

	assert.True(t, c.Match("important.log", false))
	assert.False(t, c.Match("debug.log", false))

	// Reversed order: the exclude shadows the include.
	c = NewChain()
	require.NoError(t, c.AddExclude("*.log"))
	require.NoError(t, c.AddInclude("important.log"))
	assert.False(t, c.Match("important.log", false))
}

func TestDirOnlyPattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("build/"))

	assert.False(t, c.Match("build", true))
	assert.True(t, c.Match("build", false))
}

func TestAllowsChecksAncestors(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("node_modules/"))

	assert.False(t, c.Allows("node_modules", true))
	assert.False(t, c.Allows("node_modules/pkg/index.js", false))
	assert.False(t, c.Allows("web/node_modules/x", false))
	assert.True(t, c.Allows("web/src/node_modules.txt", false))

	// Match alone looks only at the entry itself.
	assert.True(t, c.Match("node_modules/pkg/index.js", false))
}

func TestAllowsIncludeNeedsParents(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddInclude("*/"))
	require.NoError(t, c.AddInclude("*.go"))
	require.NoError(t, c.AddExclude("*"))

	assert.True(t, c.Allows("internal/engine/engine.go", false))
	assert.True(t, c.Allows("internal", true))
	assert.False(t, c.Allows("internal/README.md", false))
}

func TestAddRejectsEmptyPattern(t *testing.T) {
	c := NewChain()
	assert.Error(t, c.AddExclude(""))
	assert.Error(t, c.AddInclude("/"))
	assert.True(t, c.Empty())
}

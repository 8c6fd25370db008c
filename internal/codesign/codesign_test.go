package codesign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeafSHA256(t *testing.T) {
	chain := []Certificate{{SHA256: "leaf"}, {SHA256: "root"}}
	leaf, ok := LeafSHA256(chain)
	assert.True(t, ok)
	assert.Equal(t, "leaf", leaf)
}

func TestLeafSHA256Empty(t *testing.T) {
	_, ok := LeafSHA256(nil)
	assert.False(t, ok)
}

func TestBootstrapSelfIgnoresResult(t *testing.T) {
	fp := NewFakeProbe()
	fp.Chains["/path/to/santad"] = []Certificate{{SHA256: "abc"}}
	// Must not panic even though the result is discarded.
	BootstrapSelf(fp, "/path/to/santad")
}

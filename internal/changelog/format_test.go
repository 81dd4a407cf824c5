package changelog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEntry_Plain(t *testing.T) {
	doc := Parse("## Unreleased\n\n## [1.2.0] - 2024-03-01\n\n### Added\n- New binding\n\n### Fixed\n- Typo\n")
	require.Len(t, doc.Versions, 2)

	var buf bytes.Buffer
	err := FormatEntry(doc.Versions[1], &buf, FormatOptions{Plain: true, Indent: "> "})
	require.NoError(t, err)

	want := "> v1.2.0 (2024-03-01)\n" +
		">   Added\n" +
		">     - New binding\n" +
		">   Fixed\n" +
		">     - Typo\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatEntry_NonTerminalIsPlain(t *testing.T) {
	doc := Parse("## Unreleased\n- pending\n")

	var buf bytes.Buffer
	require.NoError(t, FormatEntry(doc.Versions[0], &buf, FormatOptions{}))

	assert.Equal(t, "Unreleased\n    - pending\n", buf.String())
}

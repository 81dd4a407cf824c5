package changelog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Sections(t *testing.T) {
	tests := map[string]struct {
		text       string
		wantTitles []string
		wantVers   []string
	}{
		"keep a changelog layout": {
			text: `# Changelog

All notable changes to this project will be documented in this file.

## [Unreleased]

### Added
- Support for the new API

## [1.2.0] - 2024-03-01

### Fixed
- Binding for Form.reset

## [1.1.0] - 2024-01-15
`,
			wantTitles: []string{"Unreleased", "1.2.0 - 2024-03-01", "1.1.0 - 2024-01-15"},
			wantVers:   []string{"", "1.2.0", "1.1.0"},
		},
		"plain headings": {
			text:       "## Unreleased\n\n## 1.2.0\n\n## 1.1.0\n",
			wantTitles: []string{"Unreleased", "1.2.0", "1.1.0"},
			wantVers:   []string{"", "1.2.0", "1.1.0"},
		},
		"v prefix and prerelease": {
			text:       "## Unreleased\n## v2.0.0-beta.1+build.7\n",
			wantTitles: []string{"Unreleased", "v2.0.0-beta.1+build.7"},
			wantVers:   []string{"", "2.0.0-beta.1+build.7"},
		},
		"linked heading": {
			text:       "## [1.0.0](https://example.com/compare/v0.9.0...v1.0.0) - 2023-12-24\n",
			wantTitles: []string{"1.0.0 - 2023-12-24"},
			wantVers:   []string{"1.0.0"},
		},
		"closing hashes are dropped": {
			text:       "## Unreleased ##\n## 0.1.0 ##\n",
			wantTitles: []string{"Unreleased", "0.1.0"},
			wantVers:   []string{"", "0.1.0"},
		},
		"non semver title": {
			text:       "## Unreleased\n## 1.2\n",
			wantTitles: []string{"Unreleased", "1.2"},
			wantVers:   []string{"", ""},
		},
		"level three headings are body": {
			text:       "## Unreleased\n### 9.9.9\n## 1.0.0\n",
			wantTitles: []string{"Unreleased", "1.0.0"},
			wantVers:   []string{"", "1.0.0"},
		},
		"headings inside code fences are body": {
			text:       "## Unreleased\n```md\n## 3.0.0\n```\n~~~\n## 4.0.0\n~~~\n## 1.0.0\n",
			wantTitles: []string{"Unreleased", "1.0.0"},
			wantVers:   []string{"", "1.0.0"},
		},
		"no headings": {
			text:       "# Changelog\n\nNothing here yet.\n",
			wantTitles: []string{},
			wantVers:   []string{},
		},
		"empty document": {
			text:       "",
			wantTitles: []string{},
			wantVers:   []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			doc := Parse(tt.text)

			require.Len(t, doc.Versions, len(tt.wantTitles))
			assert.Equal(t, tt.wantTitles, doc.Titles())
			for i, want := range tt.wantVers {
				assert.Equal(t, want, doc.Versions[i].VersionString(), "section %d", i)
			}
		})
	}
}

func TestParse_LineEndings(t *testing.T) {
	tests := map[string]string{
		"crlf":    "## Unreleased\r\n\r\n## 1.2.0\r\n- fix\r\n## 1.1.0\r\n",
		"cr only": "## Unreleased\r\r## 1.2.0\r- fix\r## 1.1.0\r",
		"mixed":   "## Unreleased\r\n\n## 1.2.0\r- fix\n## 1.1.0\r\n",
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			doc := Parse(text)

			require.Len(t, doc.Versions, 3)
			assert.Equal(t, "Unreleased", doc.Versions[0].Title)
			assert.Equal(t, "1.2.0", doc.Versions[1].Title)
			assert.Equal(t, "- fix", doc.Versions[1].Body)
		})
	}
}

func TestParse_BodyAndDate(t *testing.T) {
	doc := Parse("## [Unreleased]\n\n## [1.2.0] - 2024-03-01\n\n### Fixed\n\n- Binding for Form.reset\n\n")

	require.Len(t, doc.Versions, 2)
	assert.Empty(t, doc.Versions[0].Body)
	assert.Equal(t, "2024-03-01", doc.Versions[1].Date)
	assert.Equal(t, "### Fixed\n\n- Binding for Form.reset", doc.Versions[1].Body)
	assert.False(t, doc.Versions[0].HasVersion())
	assert.True(t, doc.Versions[1].HasVersion())
}

func TestParseVersion(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    string
		wantErr bool
	}{
		"plain":          {input: "1.2.3", want: "1.2.3"},
		"v prefix":       {input: "v1.2.3", want: "1.2.3"},
		"surrounding ws": {input: " 1.2.3 ", want: "1.2.3"},
		"prerelease":     {input: "1.0.0-rc.1", want: "1.0.0-rc.1"},
		"two parts":      {input: "1.2", wantErr: true},
		"leading zero":   {input: "01.2.3", wantErr: true},
		"word":           {input: "Unreleased", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/glues/Foo/CHANGELOG.md", []byte("## Unreleased\n## 1.0.0\n"), 0o644))

	doc, err := Load(fs, "/glues/Foo/CHANGELOG.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"Unreleased", "1.0.0"}, doc.Titles())

	_, err = Load(fs, "/glues/Missing/CHANGELOG.md")
	assert.ErrorContains(t, err, "reading changelog")
}

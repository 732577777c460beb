package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMeta struct {
	Title  string    `yaml:"title"`
	Date   time.Time `yaml:"date"`
	Tags   []string  `yaml:"tags"`
	Weight int       `yaml:"weight"`
	Draft  bool      `yaml:"draft"`
}

func TestDecode_WeaklyTypedYAML(t *testing.T) {
	fields, err := ParseYAML([]byte("title: Intro\ndate: \"2024-03-01\"\ntags: go\nweight: \"2\"\ndraft: true\n"))
	require.NoError(t, err)

	var meta testMeta
	require.NoError(t, Decode(fields, &meta))
	require.Equal(t, "Intro", meta.Title)
	require.Equal(t, 2024, meta.Date.Year())
	require.Equal(t, time.March, meta.Date.Month())
	require.Equal(t, []string{"go"}, meta.Tags)
	require.Equal(t, 2, meta.Weight)
	require.True(t, meta.Draft)
}

func TestDecode_TOMLLocalDate(t *testing.T) {
	fields, err := ParseTOML([]byte("date = 2023-12-24\n"))
	require.NoError(t, err)

	var meta testMeta
	require.NoError(t, Decode(fields, &meta))
	require.Equal(t, 24, meta.Date.Day())
}

func TestDecode_InvalidDate(t *testing.T) {
	var meta testMeta
	require.Error(t, Decode(map[string]any{"date": "not a date"}, &meta))
}

package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/ghcount/internal/domain"
	"github.com/naka-gawa/ghcount/internal/language"
)

func TestParse(t *testing.T) {
	javaOnly, err := language.NewFilter(language.Default(), []string{"Java"})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		raw      string
		filter   language.Filter
		expected map[string]int
		errMsg   string
	}{
		{
			name:     "rows without header followed by SUM",
			raw:      "Java,206,4812,8572,18479\nSUM,206,4812,8572,18479\n",
			expected: map[string]int{"Java": 18479},
		},
		{
			name: "cloc csv with header and banner column",
			raw: `files,language,blank,comment,code,"github.com/AlDanial/cloc v 1.98  T=0.05 s"
10,Go,120,40,900
3,Markdown,10,0,50
13,SUM,130,40,950
`,
			expected: map[string]int{"Go": 900, "Markdown": 50},
		},
		{
			name:     "filter keeps allowed languages",
			raw:      "Java,2,1,1,10\nGo,1,1,1,5\nSUM,3,2,2,15\n",
			filter:   javaOnly,
			expected: map[string]int{"Java": 10},
		},
		{
			name: "json",
			raw: `{"header":{"cloc_version":"1.98"},
"Go":{"nFiles":2,"blank":3,"comment":4,"code":50},
"Python":{"nFiles":1,"blank":0,"comment":0,"code":7},
"SUM":{"nFiles":3,"blank":3,"comment":4,"code":57}}`,
			expected: map[string]int{"Go": 50, "Python": 7},
		},
		{
			name: "fixed-width table",
			raw: `github.com/AlDanial/cloc v 1.98  T=0.02 s (355.4 files/s, 40012.3 lines/s)
-------------------------------------------------------------------------------
Language                     files          blank        comment           code
-------------------------------------------------------------------------------
Java                           206           4812           8572          18479
C/C++ Header                     4             10             20            300
-------------------------------------------------------------------------------
SUM:                           210           4822           8592          18779
-------------------------------------------------------------------------------
`,
			expected: map[string]int{"Java": 18479, "C/C++ Header": 300},
		},
		{name: "empty output", raw: "  \n", errMsg: "empty report"},
		{name: "only SUM", raw: "SUM,1,1,1,1\n", errMsg: "no language rows"},
		{name: "non-numeric code", raw: "Java,1,2,3,lots\n", errMsg: "invalid count"},
		{name: "short row", raw: "Java,1,2\n", errMsg: "no column"},
		{name: "broken json", raw: "{\"Go\": [}", errMsg: "counting backend error"},
		{name: "table without header", raw: "nothing to see here\n", errMsg: "no Language header"},
		{name: "table malformed row", raw: "Language files blank comment code\nGo 1 2 x 4\n", errMsg: "malformed row"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Parse([]byte(tc.raw), tc.filter)
			if tc.errMsg != "" {
				assert.ErrorIs(t, err, domain.ErrCountingBackend)
				assert.ErrorContains(t, err, tc.errMsg)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestParseReport_KeepsColumns(t *testing.T) {
	rows, err := ParseReport([]byte("Java,206,4812,8572,18479\nSUM,206,4812,8572,18479\n"))
	require.NoError(t, err)
	assert.Equal(t, []domain.LanguageRow{
		{Language: "Java", Files: 206, Blank: 4812, Comment: 8572, Code: 18479},
	}, rows)
}

func TestParseByFile(t *testing.T) {
	raw := `language,filename,blank,comment,code,"github.com/AlDanial/cloc v 1.98"
Go,./pkg/a.go,2,1,10
Go,./pkg/a_test.go,1,0,5
SUM,,3,1,15
`
	rows, err := ParseByFile([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []FileRow{
		{Language: "Go", Path: "./pkg/a.go", Blank: 2, Comment: 1, Code: 10},
		{Language: "Go", Path: "./pkg/a_test.go", Blank: 1, Comment: 0, Code: 5},
	}, rows)

	_, err = ParseByFile([]byte(""))
	assert.ErrorIs(t, err, domain.ErrCountingBackend)

	_, err = ParseByFile([]byte("files,language,blank,comment,code\n1,Go,1,1,1\n"))
	assert.ErrorContains(t, err, "no filename column")
}

func TestFilterRows(t *testing.T) {
	rows := []domain.LanguageRow{
		{Language: "C", Files: 2, Code: 40},
		{Language: "C/C++ Header", Files: 1, Code: 8},
		{Language: "Go", Files: 3, Code: 90},
	}

	cOnly, err := language.NewFilter(language.Default(), []string{"c"})
	require.NoError(t, err)

	assert.Equal(t, rows[:2], FilterRows(rows, cOnly), "aliases follow their language")
	assert.Equal(t, rows, FilterRows(rows, language.Filter{}))

	rustOnly, err := language.NewFilter(language.Default(), []string{"Rust"})
	require.NoError(t, err)
	assert.Empty(t, FilterRows(rows, rustOnly))
}

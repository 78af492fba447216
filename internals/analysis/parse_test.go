package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	want := Result{Summary: "S", KeyPoints: []string{"a", "b"}}

	tests := []struct {
		name string
		raw  string
	}{
		{"bare", `{"summary":"S","key_points":["a","b"]}`},
		{"json fence", "```json\n{\"summary\":\"S\",\"key_points\":[\"a\",\"b\"]}\n```"},
		{"untagged fence", "```\n{\"summary\":\"S\",\"key_points\":[\"a\",\"b\"]}\n```"},
		{"padded fence", "  \n```JSON\n  {\"summary\": \"S\", \"key_points\": [\"a\", \"b\"]}  \n```\n\n"},
		{"single line fence", "```{\"summary\":\"S\",\"key_points\":[\"a\",\"b\"]}```"},
		{"single line tagged fence", "```json {\"summary\":\"S\",\"key_points\":[\"a\",\"b\"]}```"},
		{"tag glued to body", "```json{\"summary\":\"S\",\"key_points\":[\"a\",\"b\"]}```"},
		{"crlf fence", "```json\r\n{\"summary\":\"S\",\"key_points\":[\"a\",\"b\"]}\r\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestParseEmptyKeyPoints(t *testing.T) {
	got, err := Parse(`{"summary":"Nothing notable.","key_points":[]}`)
	require.NoError(t, err)
	require.Equal(t, "Nothing notable.", got.Summary)
	require.Empty(t, got.KeyPoints)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing key_points", `{"summary":"S"}`},
		{"missing summary", `{"key_points":["a"]}`},
		{"summary wrong type", `{"summary":1,"key_points":["a"]}`},
		{"key_points wrong type", `{"summary":"S","key_points":"a"}`},
		{"key_points item wrong type", `{"summary":"S","key_points":["a",2]}`},
		{"extra key", `{"summary":"S","key_points":[],"confidence":0.9}`},
		{"not an object", `["S"]`},
		{"invalid json", `{"summary":"S",`},
		{"prose", "Here is the summary you asked for."},
		{"empty", "   "},
		{"empty fence", "```json\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestStripFence(t *testing.T) {
	require.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, stripFence(`{"a":1}`))
	require.Equal(t, "{\n\"a\":1}", stripFence("```{\n\"a\":1}```"))
	require.Equal(t, `{"a":1}`, stripFence("```json {\"a\":1}```"))
}

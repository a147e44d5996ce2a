package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "  Welcome Dinner ", want: "Welcome Dinner"},
		{name: "ampersand", input: "Tom & Jerry", want: "Tom & Jerry"},
		{name: "tags stripped", input: "<b>Beach</b> party", want: "Beach party"},
		{name: "script removed", input: "<script>alert(1)</script>Hike", want: "Hike"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, Text(tt.input))
		})
	}

	require.Nil(t, TextPtr(nil))
	require.Equal(t, "x", *TextPtr(strPtr(" <i>x</i> ")))
}

func TestRichText(t *testing.T) {
	t.Parallel()

	out := RichText(`<p onclick="steal()">Hello <strong>guests</strong></p><script>alert(1)</script>`)
	require.Contains(t, out, "<strong>guests</strong>")
	require.NotContains(t, out, "onclick")
	require.NotContains(t, out, "<script>")

	link := RichText(`<a href="javascript:alert(1)">bad</a><a href="https://example.com">ok</a>`)
	require.NotContains(t, link, "javascript:")
	require.Contains(t, link, "nofollow")

	require.Nil(t, RichTextPtr(nil))
}

func strPtr(s string) *string { return &s }

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double comma", "1girl,, beautiful", "1girl, beautiful"},
		{"spaced comma run", "a , , ,b", "a, b"},
		{"orphan commas", ",1girl,", "1girl"},
		{"leading comma after empty substitution", ", red dress, smiling", "red dress, smiling"},
		{"trailing comma and space", "red dress, ", "red dress"},
		{"space before comma", "red dress ,smiling", "red dress, smiling"},
		{"blank line runs", "a\n\n\n\nb", "a\n\nb"},
		{"line whitespace", "  a, b  \n\t c", "a, b\nc"},
		{"empty", "", ""},
		{"only commas", " , ,, ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, in := range []string{
		"1girl,, beautiful",
		", , a ,b,, c ,",
		"portrait of a woman,\n\n\n\n, soft light ,",
		"  a\n\n\nb ,  ",
		"no commas at all",
	} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

package tagslug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"React / Next.js!", "react-next-js"},
		{"TypeScript", "typescript"},
		{"機械学習", ""},
		{"Go言語入門", "go"},
		{"snake_case_tag", "snake_case_tag"},
		{"  spaces  ", "spaces"},
		{"already-slugged", "already-slugged"},
		{"a--b", "a-b"},
		{"---", ""},
		{"", ""},
		{"C++", "c"},
		{"Vue.js 3", "vue-js-3"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Make(tt.in), "Make(%q)", tt.in)
	}
}

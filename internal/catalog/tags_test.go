package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTags(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"compound", "Pulseras, Para-Parejas", []string{"pulseras", "para-parejas", "para", "parejas"}},
		{"whitespace compound", "Acero  Inoxidable", []string{"acero inoxidable", "acero", "inoxidable"}},
		{"dedup keeps first", "aretes, Aretes, plata-aretes", []string{"aretes", "plata-aretes", "plata"}},
		{"blank entries", " , ,", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExpandTags(tc.raw))
		})
	}
}

func TestExpandTagListIsStable(t *testing.T) {
	once := ExpandTagList([]string{"Collares", "Dije-Corazón"})
	assert.Equal(t, once, ExpandTagList(once))
}

package langmeta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "pt_br", want: "pt-BR"},
		{in: " EN-us ", want: "en-US"},
		{in: "zh-hans-cn", want: "zh-hans-cn"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, canonicalize(tc.in), tc.in)
	}
}

func TestResolve(t *testing.T) {
	t.Run("lower-case master tag", func(t *testing.T) {
		got := Resolve("de-de")
		assert.Contains(t, got.Name, "Deutsch")
		assert.Equal(t, "\U0001F1E9\U0001F1EA", got.Flag)
	})

	t.Run("underscore variant", func(t *testing.T) {
		got := Resolve("pt_BR")
		assert.Contains(t, strings.ToLower(got.Name), "portugu")
		assert.Equal(t, "\U0001F1E7\U0001F1F7", got.Flag)
	})

	t.Run("region inferred from language", func(t *testing.T) {
		got := Resolve("fr")
		assert.Contains(t, strings.ToLower(got.Name), "français")
		assert.Equal(t, "\U0001F1EB\U0001F1F7", got.Flag)
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		assert.Equal(t, "zz-ZZ", got.Name)
		assert.Empty(t, got.Flag)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Resolve(" ").Flag)
	})
}

func TestFlag(t *testing.T) {
	assert.Equal(t, "\U0001F1EC\U0001F1E7", Flag(language.MustParse("en-GB")))
	assert.Empty(t, Flag(language.MustParse("es-419")), "no flag for numeric regions")
}

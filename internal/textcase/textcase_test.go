package textcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Style
	}{
		{name: "empty", text: "", want: Undefined},
		{name: "blank", text: "  \t", want: Undefined},
		{name: "invalid utf8", text: "\xff\xfe", want: Undefined},
		{name: "upper", text: "GOLD", want: Uppercase},
		{name: "upper with spaces and digits", text: " 5 GOLD ", want: Uppercase},
		{name: "single capital", text: "A", want: Uppercase},
		{name: "lower", text: "you have ", want: Lowercase},
		{name: "lower leading digit", text: "5 gold", want: Lowercase},
		{name: "title single word", text: "Hello", want: Titlecase},
		{name: "title words", text: "The Holy Roman Empire", want: Titlecase},
		{name: "title with leading space", text: " Hello ", want: Titlecase},
		{name: "sentence", text: "Hello world", want: Mixed},
		{name: "camel", text: "McDonald", want: Mixed},
		{name: "no letters", text: "42 ", want: Mixed},
		{name: "accented upper", text: "ÉLAN", want: Uppercase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestApply(t *testing.T) {
	assert.Equal(t, "OLÁ", Apply(Uppercase, "olá"))
	assert.Equal(t, "olá mundo", Apply(Lowercase, "Olá Mundo"))
	assert.Equal(t, "Olá mundo", Apply(Titlecase, "olá MUNDO"))
	assert.Equal(t, " Olá ", Apply(Titlecase, " olá "))
	assert.Equal(t, "olá MUNDO", Apply(Mixed, "olá MUNDO"))
	assert.Equal(t, "olá MUNDO", Apply(Undefined, "olá MUNDO"))
}

func TestApply_TitlecaseSkipsLeadingDigits(t *testing.T) {
	assert.Equal(t, "5 Ouro", Apply(Titlecase, "5 ouro"))
}

func TestStyle_String(t *testing.T) {
	assert.Equal(t, "uppercase", Uppercase.String())
	assert.Equal(t, "titlecase", Titlecase.String())
	assert.Equal(t, "undefined", Style(99).String())
}

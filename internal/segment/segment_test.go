package segment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/pdxtran/internal/segment"
	"github.com/valpere/pdxtran/internal/textcase"
)

type want struct {
	text      string
	protected bool
}

func texts(spans []segment.Span) []want {
	out := make([]want, len(spans))
	for i, s := range spans {
		out[i] = want{text: s.Text, protected: s.Protected}
	}
	return out
}

func TestSegment_Example(t *testing.T) {
	spans := segment.Segment("Hello $PLAYER$ you have -5 gold\n")

	assert.Equal(t, []want{
		{"Hello ", false},
		{"$PLAYER$", true},
		{" you have ", false},
		{"-", true},
		{"5 gold", false},
		{"\n", true},
	}, texts(spans))

	require.Len(t, spans, 6)
	assert.Equal(t, segment.Variable, spans[1].Kind)
	assert.Equal(t, segment.Hyphen, spans[3].Kind)
	assert.Equal(t, segment.LineBreak, spans[5].Kind)
	assert.True(t, spans[0].TrailingSpace)
	assert.False(t, spans[0].LeadingSpace)
	assert.True(t, spans[2].LeadingSpace)
	assert.True(t, spans[2].TrailingSpace)
	assert.Equal(t, textcase.Titlecase, spans[0].Casing)
	assert.Equal(t, textcase.Lowercase, spans[4].Casing)
}

func TestSegment_Empty(t *testing.T) {
	assert.Empty(t, segment.Segment(""))
}

func TestSegment_Markers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []want
		kind segment.Kind
	}{
		{
			name: "bracket",
			text: "Rule [GetTitle('k_france').GetName] now",
			want: []want{{"Rule ", false}, {"[GetTitle('k_france').GetName]", true}, {" now", false}},
			kind: segment.Bracket,
		},
		{
			name: "tag",
			text: "#bold Warning#! Read",
			want: []want{{"#bold Warning#", true}, {"! Read", false}},
			kind: segment.Tag,
		},
		{
			name: "escape",
			text: `First line\nSecond line`,
			want: []want{{"First line", false}, {`\n`, true}, {"Second line", false}},
			kind: segment.Escape,
		},
		{
			name: "variable precedes hyphen",
			text: "Gain $VALUE|=-0$ prestige",
			want: []want{{"Gain ", false}, {"$VALUE|=-0$", true}, {" prestige", false}},
			kind: segment.Variable,
		},
		{
			name: "adjacent markers",
			text: "$A$[B]#C#",
			want: []want{{"$A$", true}, {"[B]", true}, {"#C#", true}},
			kind: segment.Variable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := segment.Segment(tt.text)
			assert.Equal(t, tt.want, texts(spans))

			var kinds []segment.Kind
			for _, s := range spans {
				if s.Protected {
					kinds = append(kinds, s.Kind)
				}
			}
			require.NotEmpty(t, kinds)
			assert.Equal(t, tt.kind, kinds[0])
		})
	}
}

func TestSegment_LineBreaksInsideText(t *testing.T) {
	spans := segment.Segment("one\ntwo [X] three\nfour")

	assert.Equal(t, []want{
		{"one", false},
		{"\n", true},
		{"two ", false},
		{"[X]", true},
		{" three", false},
		{"\n", true},
		{"four", false},
	}, texts(spans))
}

func TestSegment_UnclosedMarkerIsProtectedByPrefix(t *testing.T) {
	spans := segment.Segment("pay -$ 5 gold")

	assert.Equal(t, []want{
		{"pay ", false},
		{"-", true},
		{"$ 5 gold", true},
	}, texts(spans))
	assert.Equal(t, segment.Text, spans[2].Kind)
}

func TestSegment_BackslashPrefix(t *testing.T) {
	spans := segment.Segment(`\t indented`)

	require.Len(t, spans, 1)
	assert.True(t, spans[0].Protected)
}

func TestSegment_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"Hello $PLAYER$ you have -5 gold\n",
		"#T Title#\\n[ROOT.Char.GetName] - $X$ and $Y",
		"--- [a][b] ## $$ \n\n",
		"[unclosed $ and # and -",
		"Grüße, $NAME$! Ça va?",
	}

	for _, in := range inputs {
		assert.Equal(t, in, segment.Join(segment.Segment(in)), "input %q", in)
	}
}

func TestSegment_ProtectedSpansHaveNoCasing(t *testing.T) {
	for _, s := range segment.Segment("$UPPER$ lower") {
		if s.Protected {
			assert.Equal(t, textcase.Undefined, s.Casing)
		}
	}
}

package sqlgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenTypeLattice(t *testing.T) {
	assert.True(t, KeywordDML.Is(Keyword))
	assert.True(t, KeywordDML.Is(Root))
	assert.False(t, KeywordDML.Is(KeywordDDL))
	assert.True(t, Newline.Is(Whitespace))
	assert.Equal(t, "Keyword.DML", KeywordDML.String())
}

func TestNewTokenNormalizesKeywords(t *testing.T) {
	tok := NewToken(Keyword, "select")
	assert.True(t, tok.IsKeyword())
	assert.Equal(t, "SELECT", tok.Normalized)

	name := NewToken(Name, "MyTable")
	assert.Equal(t, "MyTable", name.Normalized, "non-keyword values are left as-is")
}

func TestTokenMatch(t *testing.T) {
	tok := NewToken(KeywordDML, "Select")
	assert.True(t, tok.Match(KeywordDML, "SELECT"))
	assert.True(t, tok.Match(KeywordDML, "select"), "keyword comparisons are case-insensitive")
	assert.False(t, tok.Match(KeywordDDL, "SELECT"))

	name := NewToken(Name, "Foo")
	assert.True(t, name.Match(Name, "Foo"))
	assert.False(t, name.Match(Name, "foo"), "non-keyword comparisons are case-sensitive")
}

func TestLexRoundTrip(t *testing.T) {
	src := "SELECT  a.b::text  FROM foo -- trailing\n"
	toks := Lex(src)
	require.NotEmpty(t, toks)
	var got []byte
	for _, tok := range toks {
		got = append(got, tok.Value...)
	}
	assert.Equal(t, src, string(got))
}

func TestLexMergesPhrases(t *testing.T) {
	toks := Lex("CREATE OR REPLACE FUNCTION")
	require.NotEmpty(t, toks)
	assert.True(t, toks[0].Match(KeywordDDL, "CREATE OR REPLACE"))
}

func TestLexForIn(t *testing.T) {
	toks := Lex("FOR x IN")
	require.NotEmpty(t, toks)
	assert.Equal(t, ForIn, toks[0].Ttype)
	assert.Equal(t, "FOR x IN", toks[0].Value)
}

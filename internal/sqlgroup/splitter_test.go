package sqlgroup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitNestedFunction(t *testing.T) {
	src := "CREATE FUNCTION a(x VARCHAR(20)) RETURNS VARCHAR(20) BEGIN DECLARE y VARCHAR(20); " +
		"IF (1 = 1) THEN SET x = y; END IF; RETURN x; END; SELECT * FROM a.b;"
	stmts := Split(Lex(src))
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasSuffix(stmts[0].Text(), "END;"), "the body-closing semicolon stays with its CREATE")
	assert.Contains(t, stmts[1].Text(), "SELECT")
}

func TestSplitStatementPerSemicolon(t *testing.T) {
	src := "SELECT 1; SELECT 2; SELECT 3;"
	stmts := Split(Lex(src))
	require.Len(t, stmts, 3)
	var joined string
	for _, s := range stmts {
		joined += s.Text()
	}
	assert.Equal(t, src, joined)
}

// A CASE expression opens and closes a nesting frame, but it must not cut
// the surrounding statement in two.
func TestSplitCaseInsideSelect(t *testing.T) {
	src := "SELECT CASE WHEN 1 THEN 2 END FROM t; SELECT 3;"
	stmts := Split(Lex(src))
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].Text(), "END FROM t;")
}

func TestSplitPackageSpec(t *testing.T) {
	src := "CREATE OR REPLACE PACKAGE pkg IS FUNCTION f(x NUMBER) RETURN NUMBER; PROCEDURE p(y NUMBER); END; SELECT 1;"
	stmts := Split(Lex(src))
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasSuffix(stmts[0].Text(), "END;"))
}

func TestSplitBodylessCreate(t *testing.T) {
	src := "CREATE INDEX CONCURRENTLY myindex ON mytable(col1); SELECT 1;"
	stmts := Split(Lex(src))
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].Text(), "myindex")
}

func TestSplitLoneComment(t *testing.T) {
	stmts := Split(Lex("-- just a comment"))
	require.Len(t, stmts, 1)
	require.Len(t, stmts[0].Children, 1)
	assert.Equal(t, CommentSingle, stmts[0].Children[0].TType())
}

func TestSplitUnbalancedClosersClamp(t *testing.T) {
	assert.NotPanics(t, func() {
		stmts := Split(Lex("END; END; SELECT 1;"))
		assert.NotEmpty(t, stmts)
	})
}

func TestSplitEmptyInput(t *testing.T) {
	assert.Nil(t, Split(Lex("")))
}

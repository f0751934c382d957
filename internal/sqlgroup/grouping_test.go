package sqlgroup

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseOne lexes, splits, and groups src, requiring it to be exactly one
// top-level statement.
func parseOne(t *testing.T, src string) *TokenList {
	t.Helper()
	stmts := Split(Lex(src))
	require.Len(t, stmts, 1, "expected a single statement for %q", src)
	return Group(stmts[0])
}

// invariantSamples exercises every grouping pass at least once: qualified
// names, typecasts, aliases, a stray WHERE inside parens, a CTE, a leading
// comment, a function call, and a full CREATE FUNCTION body with nested
// BEGIN/IF.
var invariantSamples = []string{
	`select "x"."y"::text as "z" from foo`,
	`(where 1)`,
	`WITH foo AS (SELECT 1,2,3) SELECT * FROM foo;`,
	"-- comment\ninsert into foo",
	`CREATE INDEX CONCURRENTLY myindex ON mytable(col1);`,
	`CASE WHEN x > 1 THEN 'a' ELSE 'b' END`,
	`foo(a, b)`,
	`SELECT id, name FROM (SELECT id, name FROM bar) as foo`,
	`SELECT 1 UNION SELECT 2 UNION ALL SELECT 3;`,
	`CREATE FUNCTION a(x VARCHAR(20)) RETURNS VARCHAR(20) BEGIN DECLARE y VARCHAR(20); ` +
		`IF (1 = 1) THEN SET x = y; END IF; RETURN x; END;`,
	`CREATE OR REPLACE FUNCTION get_total(p_num IN NUMBER) RETURN NUMBER IS v_total NUMBER; ` +
		`BEGIN v_total := p_num * 2; RETURN v_total; EXCEPTION WHEN no_data THEN RETURN 0; END;`,
	`CREATE OR REPLACE FUNCTION f RETURN NUMBER IS CURSOR c1 IS SELECT id FROM t; BEGIN OPEN c1; END;`,
	`CREATE OR REPLACE PACKAGE pkg IS FUNCTION f(x NUMBER) RETURN NUMBER; PROCEDURE p(y NUMBER); END;`,
	`CREATE OR REPLACE FUNCTION f RETURN NUMBER IS BEGIN FOR i IN 1 .. 10 LOOP NULL; END LOOP; RETURN 1; END;`,
	`CREATE OR REPLACE FUNCTION f RETURN NUMBER IS BEGIN WHILE x > 0 LOOP x := x - 1; END LOOP; RETURN 1; END;`,
}

// ---- invariant 1: round-trip ----

func TestGroupRoundTrip(t *testing.T) {
	for _, src := range invariantSamples {
		stmt := parseOne(t, src)
		assert.Equal(t, src, stmt.Text(), "round-trip broke for %q", src)
	}
}

// ---- invariant 2: parent consistency ----

func checkParents(t *testing.T, g *TokenList) {
	t.Helper()
	for _, c := range g.Children {
		assert.Same(t, g, c.Parent(), "child %q has the wrong parent", c.Text())
		if sub, ok := c.(*TokenList); ok {
			checkParents(t, sub)
		}
	}
}

func TestGroupParentConsistency(t *testing.T) {
	for _, src := range invariantSamples {
		stmt := parseOne(t, src)
		checkParents(t, stmt)
	}
}

// ---- invariant 3: balanced nests ----

func assertEdges(t *testing.T, g *TokenList, openType *TokenType, openVal, closeVal string) {
	t.Helper()
	require.NotEmpty(t, g.Children)
	first, last := g.Children[0], g.Children[len(g.Children)-1]
	assert.True(t, first.Match(openType, openVal), "%s: first child should be %q, got %q", g.Variant, openVal, first.Text())
	assert.True(t, last.Match(Keyword, closeVal) || last.Match(Punctuation, closeVal),
		"%s: last child should be %q, got %q", g.Variant, closeVal, last.Text())
}

func checkBalanced(t *testing.T, n Node) {
	t.Helper()
	g, ok := n.(*TokenList)
	if !ok {
		return
	}
	switch g.Variant {
	case VParenthesis:
		assertEdges(t, g, Punctuation, "(", ")")
	case VSquareBrackets:
		assertEdges(t, g, Punctuation, "[", "]")
	case VCase:
		require.NotEmpty(t, g.Children)
		first, last := g.Children[0], g.Children[len(g.Children)-1]
		assert.True(t, first.Match(Keyword, "CASE"))
		assert.True(t, last.Match(Keyword, "END") || last.Match(Keyword, "END CASE"))
	case VIf:
		require.NotEmpty(t, g.Children)
		assert.True(t, g.Children[0].Match(Keyword, "IF"))
		assert.True(t, g.Children[len(g.Children)-1].Match(Keyword, "END IF"))
	case VBegin:
		require.NotEmpty(t, g.Children)
		assert.True(t, g.Children[0].Match(Keyword, "BEGIN"))
		assert.True(t, g.Children[len(g.Children)-1].Match(Keyword, "END"))
	case VFor:
		require.NotEmpty(t, g.Children)
		first := g.Children[0]
		assert.True(t, first.TType() == ForIn || first.Match(Keyword, "LOOP"))
		assert.True(t, g.Children[len(g.Children)-1].Match(Keyword, "END LOOP"))
	}
	for _, c := range g.Children {
		checkBalanced(t, c)
	}
}

func TestGroupBalancedNests(t *testing.T) {
	for _, src := range invariantSamples {
		stmt := parseOne(t, src)
		checkBalanced(t, stmt)
	}
}

// ---- invariant 4: idempotent grouping ----

func shape(n Node) string {
	if g, ok := n.(*TokenList); ok {
		parts := make([]string, len(g.Children))
		for i, c := range g.Children {
			parts[i] = shape(c)
		}
		return fmt.Sprintf("%d[%s]", int(g.Variant), strings.Join(parts, ","))
	}
	tok := n.(*Token)
	return fmt.Sprintf("%s:%q", tok.Ttype.String(), tok.Value)
}

func TestGroupIdempotent(t *testing.T) {
	for _, src := range invariantSamples {
		stmt := parseOne(t, src)
		before := shape(stmt)
		Group(stmt)
		after := shape(stmt)
		assert.Equal(t, before, after, "a second Group() pass changed the tree for %q", src)
	}
}

// ---- invariant 5: split + join (see also splitter_test.go) ----

func TestGroupSplitJoinThenGroup(t *testing.T) {
	src := "SELECT 1; SELECT 2; SELECT 3;"
	stmts := Split(Lex(src))
	var joined string
	for _, s := range stmts {
		Group(s)
		joined += s.Text()
	}
	assert.Equal(t, src, joined)
}

// ---- scenario 4: stray WHERE in parens ----

func TestGroupStrayWhereInParens(t *testing.T) {
	stmt := parseOne(t, "(where 1)")
	require.Len(t, stmt.Children, 1)
	paren, ok := stmt.Children[0].(*TokenList)
	require.True(t, ok)
	assert.Equal(t, VParenthesis, paren.Variant)
	require.Len(t, paren.Children, 3, "WHERE must not swallow the closing )")
	assert.True(t, paren.Children[0].Match(Punctuation, "("))
	assert.True(t, paren.Children[2].Match(Punctuation, ")"))
	where, ok := paren.Children[1].(*TokenList)
	require.True(t, ok)
	assert.Equal(t, VWhere, where.Variant)
}

// ---- scenario 6: comment then keyword ----

func TestGroupCommentThenKeyword(t *testing.T) {
	stmt := parseOne(t, "-- comment\ninsert into foo")
	assert.Equal(t, InsertType, stmt.GetType())
}

// ---- boundary: CREATE INDEX CONCURRENTLY tokenizes CONCURRENTLY as a
// plain Keyword and myindex as an Identifier ----

func TestGroupCreateIndexConcurrently(t *testing.T) {
	toks := Lex("CREATE INDEX CONCURRENTLY myindex ON mytable(col1);")
	var concurrently *Token
	for _, tok := range toks {
		if tok.Normalized == "CONCURRENTLY" {
			concurrently = tok
		}
	}
	require.NotNil(t, concurrently)
	assert.Equal(t, Keyword, concurrently.Ttype)

	stmt := parseOne(t, "CREATE INDEX CONCURRENTLY myindex ON mytable(col1);")
	var found *Token
	for _, leaf := range stmt.Flatten() {
		if leaf.Value == "myindex" {
			found = leaf
		}
	}
	require.NotNil(t, found, "myindex should appear in the flattened leaf stream")
	assert.Equal(t, Name, found.Ttype, "myindex is a bare name, not a keyword")
}

// ---- function call parameter extraction ----

func firstSublistOfVariant(tl *TokenList, v Variant) *TokenList {
	for _, s := range tl.Sublists() {
		if s.Variant == v {
			return s
		}
		if found := firstSublistOfVariant(s, v); found != nil {
			return found
		}
	}
	return nil
}

func TestGetParametersMultiArg(t *testing.T) {
	stmt := parseOne(t, "foo(a, b)")
	fn := firstSublistOfVariant(stmt, VFunction)
	require.NotNil(t, fn)
	params := fn.GetParameters()
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].Text())
	assert.Equal(t, "b", params[1].Text())
}

// A lone argument still becomes a FunctionParam slot of its own.
func TestGetParametersSingleArg(t *testing.T) {
	bare := parseOne(t, "foo(a)")
	fn := firstSublistOfVariant(bare, VFunction)
	require.NotNil(t, fn)
	params := fn.GetParameters()
	require.Len(t, params, 1)
	assert.Equal(t, "a", params[0].Text())

	qualified := parseOne(t, "foo(a.b)")
	fn = firstSublistOfVariant(qualified, VFunction)
	require.NotNil(t, fn)
	params = fn.GetParameters()
	require.Len(t, params, 1)
	assert.Equal(t, "a.b", params[0].Text())
}

func TestGetParametersNoArgs(t *testing.T) {
	stmt := parseOne(t, "foo()")
	fn := firstSublistOfVariant(stmt, VFunction)
	require.NotNil(t, fn)
	assert.Nil(t, fn.GetParameters())
}

// ---- CASE branches ----

func TestGetCases(t *testing.T) {
	stmt := parseOne(t, "CASE WHEN x > 1 THEN 'a' ELSE 'b' END")
	c := firstSublistOfVariant(stmt, VCase)
	require.NotNil(t, c)
	branches := c.GetCases()
	require.Len(t, branches, 2)

	require.NotEmpty(t, branches[0].Condition)
	var sawComparison bool
	for _, n := range branches[0].Condition {
		if g, ok := n.(*TokenList); ok && g.Variant == VComparison {
			sawComparison = true
		}
	}
	assert.True(t, sawComparison, "first branch condition should contain the x > 1 comparison")
	assert.True(t, containsText(branches[0].Value, "'a'"))

	assert.Nil(t, branches[1].Condition)
	assert.True(t, containsText(branches[1].Value, "'b'"))
}

func containsText(nodes []Node, text string) bool {
	for _, n := range nodes {
		if n.Text() == text {
			return true
		}
	}
	return false
}

// ---- scenario 2: subselect with identifier lists ----

func TestGroupSubselectIdentifierList(t *testing.T) {
	stmt := parseOne(t, "SELECT id, name FROM (SELECT id, name FROM bar) as foo")
	require.Len(t, stmt.Children, 7)

	il, ok := stmt.Children[2].(*TokenList)
	require.True(t, ok)
	assert.Equal(t, VIdentifierList, il.Variant)

	alias, ok := stmt.Children[6].(*TokenList)
	require.True(t, ok)
	assert.Equal(t, VIdentifier, alias.Variant)
	assert.Equal(t, "foo", alias.GetName())

	inner := firstSublistOfVariant(alias, VSelect)
	require.NotNil(t, inner, "the parenthesized subquery should group as a Select")
	assert.NotNil(t, firstSublistOfVariant(inner, VIdentifierList),
		"the subquery keeps its own IdentifierList")
}

// ---- stored-program blocks ----

func TestGroupFunctionBlock(t *testing.T) {
	stmt := parseOne(t, `CREATE OR REPLACE FUNCTION get_total(p_num IN NUMBER) RETURN NUMBER IS v_total NUMBER; `+
		`BEGIN v_total := p_num * 2; RETURN v_total; EXCEPTION WHEN no_data THEN RETURN 0; END;`)

	block := firstSublistOfVariant(stmt, VFunctionBlock)
	require.NotNil(t, block)

	heading := firstSublistOfVariant(block, VFunctionHeading)
	require.NotNil(t, heading)
	rt := firstSublistOfVariant(heading, VReturnType)
	require.NotNil(t, rt)
	assert.Equal(t, "RETURN NUMBER", rt.Text())

	params := heading.GetParameters()
	require.Len(t, params, 1)
	assert.Equal(t, "p_num IN NUMBER", params[0].Text())

	ds := firstSublistOfVariant(block, VDeclareSection)
	require.NotNil(t, ds)
	vars := ds.DeclaredVariables()
	require.Len(t, vars, 1)
	dt, ok := vars[0].(*TokenList)
	require.True(t, ok)
	assert.Equal(t, VDataType, dt.Variant)
	assert.Equal(t, "v_total NUMBER", dt.Text())

	begin := firstSublistOfVariant(block, VBegin)
	require.NotNil(t, begin)
	assert.NotNil(t, firstSublistOfVariant(begin, VAssignment))
	assert.NotNil(t, firstSublistOfVariant(begin, VOperation))

	exc := firstSublistOfVariant(begin, VExceptions)
	require.NotNil(t, exc)
	assert.True(t, exc.Children[0].Match(Keyword, "EXCEPTION"))
	assert.True(t, begin.Children[len(begin.Children)-1].Match(Keyword, "END"),
		"the block-closing END stays outside the Exceptions group")
}

func TestGroupCursorDef(t *testing.T) {
	stmt := parseOne(t, `CREATE OR REPLACE FUNCTION f RETURN NUMBER IS CURSOR c1 IS SELECT id FROM t; BEGIN OPEN c1; END;`)

	cur := firstSublistOfVariant(stmt, VCursorDef)
	require.NotNil(t, cur)
	assert.True(t, cur.Children[0].Match(Keyword, "CURSOR"))
	assert.NotNil(t, firstSublistOfVariant(cur, VSelect))

	ds := firstSublistOfVariant(stmt, VDeclareSection)
	require.NotNil(t, ds)
	assert.NotNil(t, firstSublistOfVariant(ds, VCursorDef), "the cursor declaration lives in the declare section")

	begin := firstSublistOfVariant(stmt, VBegin)
	require.NotNil(t, begin)
	open := firstSublistOfVariant(begin, VOpen)
	require.NotNil(t, open)
	assert.True(t, open.Children[0].Match(Keyword, "OPEN"))
	assert.True(t, open.Children[len(open.Children)-1].Match(Punctuation, ";"))
}

func TestGroupPackage(t *testing.T) {
	stmt := parseOne(t, `CREATE OR REPLACE PACKAGE pkg IS FUNCTION f(x NUMBER) RETURN NUMBER; PROCEDURE p(y NUMBER); END;`)

	pkg := firstSublistOfVariant(stmt, VPackage)
	require.NotNil(t, pkg)

	heading := firstSublistOfVariant(pkg, VPackageHeading)
	require.NotNil(t, heading)
	assert.True(t, heading.Children[0].Match(KeywordDDL, "CREATE OR REPLACE"))

	fh := firstSublistOfVariant(pkg, VFunctionHeading)
	require.NotNil(t, fh)
	assert.NotNil(t, firstSublistOfVariant(fh, VReturnType))

	ph := firstSublistOfVariant(pkg, VProcedureHeading)
	require.NotNil(t, ph)
	assert.True(t, ph.Children[0].Match(Keyword, "PROCEDURE"))
}

func TestGroupForLoops(t *testing.T) {
	forIn := parseOne(t, `CREATE OR REPLACE FUNCTION f RETURN NUMBER IS BEGIN FOR i IN 1 .. 10 LOOP NULL; END LOOP; RETURN 1; END;`)
	loop := firstSublistOfVariant(forIn, VFor)
	require.NotNil(t, loop)
	assert.Equal(t, ForIn, loop.Children[0].TType())
	assert.True(t, loop.Children[len(loop.Children)-1].Match(Keyword, "END LOOP"))

	while := parseOne(t, `CREATE OR REPLACE FUNCTION f RETURN NUMBER IS BEGIN WHILE x > 0 LOOP x := x - 1; END LOOP; RETURN 1; END;`)
	loop = firstSublistOfVariant(while, VFor)
	require.NotNil(t, loop)
	assert.True(t, loop.Children[0].Match(Keyword, "LOOP"), "a bare LOOP opens when no FOR..IN is pending")
}

// ---- comparison accessors ----

func TestComparisonLeftRightOperator(t *testing.T) {
	stmt := parseOne(t, "x > 1")
	cmp := firstSublistOfVariant(stmt, VComparison)
	require.NotNil(t, cmp)
	assert.Equal(t, "x", cmp.Left().Text())
	assert.Equal(t, "1", cmp.Right().Text())
	assert.Equal(t, ">", cmp.OperatorToken().Text())
}

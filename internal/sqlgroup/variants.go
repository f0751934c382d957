package sqlgroup

// Variant tags a TokenList with the syntactic construct it represents.
// VGroup is the untagged case (used only by the align_comments pass to
// glue a trailing comment onto whatever precedes it).
type Variant int

const (
	VGroup Variant = iota
	VStatement
	VIdentifier
	VIdentifierList
	VParenthesis
	VSquareBrackets
	VOpenLoopTag
	VCase
	VIf
	VFor
	VBegin
	VExit
	VExitCondition
	VOpen
	VSelect
	VDMLOperation
	VWhere
	VUnion
	VPackage
	VPackageHeading
	VFunctionHeading
	VProcedureHeading
	VReturnType
	VCursorDef
	VExceptions
	VNotFound
	VFunction
	VFunctionParam
	VDataType
	VDeclareSection
	VAssignment
	VComparison
	VOperation
	VComment
	VFunctionBlock
	VProcedureBlock
	// VTransaction has no grouping pass wired into the pipeline (see
	// DESIGN.md). The tag exists so code that type-switches over Variant
	// stays exhaustive even though Group() never produces it.
	VTransaction
)

var variantNames = map[Variant]string{
	VGroup:           "TokenList",
	VStatement:       "Statement",
	VIdentifier:      "Identifier",
	VIdentifierList:  "IdentifierList",
	VParenthesis:     "Parenthesis",
	VSquareBrackets:  "SquareBrackets",
	VOpenLoopTag:     "OpenLoopTag",
	VCase:            "Case",
	VIf:              "If",
	VFor:             "For",
	VBegin:           "Begin",
	VExit:            "Exit",
	VExitCondition:   "Condition",
	VOpen:            "Open",
	VSelect:          "Select",
	VDMLOperation:    "DML_Operation",
	VWhere:           "Where",
	VUnion:           "Union",
	VPackage:         "Package",
	VPackageHeading:  "PackageHeading",
	VFunctionHeading: "FunctionHeading",
	VProcedureHeading: "ProcedureHeading",
	VReturnType:      "ReturnType",
	VCursorDef:       "CursorDef",
	VExceptions:      "Exceptions",
	VNotFound:        "NotFound",
	VFunction:        "Function",
	VFunctionParam:   "FunctionParam",
	VDataType:        "DataType",
	VDeclareSection:  "DeclareSection",
	VAssignment:      "Assignment",
	VComparison:      "Comparison",
	VOperation:       "Operation",
	VComment:         "Comment",
	VFunctionBlock:   "FunctionBlock",
	VProcedureBlock:  "ProcedureBlock",
	VTransaction:     "Transaction",
}

func (v Variant) String() string {
	if n, ok := variantNames[v]; ok {
		return n
	}
	return "Unknown"
}

// descriptor bundles the static open/close/middle/divider sentinels a
// variant is recognized by. Passes with a bespoke shape (Select, For,
// function/procedure headings, Package, Exceptions) consult these plus
// extra logic in grouping.go.
type descriptor struct {
	open      []MatchSpec
	close     []MatchSpec
	middle    []MatchSpec
	divider   []MatchSpec
	next      []MatchSpec // PackageHeading.M_NEXT
	separator []MatchSpec // FunctionParam / DeclareSection
}

func spec(t *TokenType, values ...string) MatchSpec { return MatchSpec{Type: t, Values: values} }

var descriptors = map[Variant]descriptor{
	VParenthesis:    {open: []MatchSpec{spec(Punctuation, "(")}, close: []MatchSpec{spec(Punctuation, ")")}},
	VSquareBrackets: {open: []MatchSpec{spec(Punctuation, "[")}, close: []MatchSpec{spec(Punctuation, "]")}},
	VOpenLoopTag:    {open: []MatchSpec{spec(OperatorComparison, "<<")}, close: []MatchSpec{spec(OperatorComparison, ">>")}},
	VCase:           {open: []MatchSpec{spec(Keyword, "CASE")}, close: []MatchSpec{spec(Keyword, "END", "END CASE")}},
	VIf:             {open: []MatchSpec{spec(Keyword, "IF")}, close: []MatchSpec{spec(Keyword, "END IF")}},
	VFor: {
		// Open is handled specially in groupFor: a ForIn-typed token opens
		// unconditionally, a bare LOOP keyword opens only when not already
		// inside a For. Listed here for documentation only.
		open:  []MatchSpec{{Type: ForIn}, spec(Keyword, "LOOP")},
		close: []MatchSpec{spec(Keyword, "END LOOP")},
	},
	VBegin: {open: []MatchSpec{spec(Keyword, "BEGIN")}, close: []MatchSpec{spec(Keyword, "END")}},
	VExit:  {open: []MatchSpec{spec(Keyword, "EXIT")}, close: []MatchSpec{spec(Punctuation, ";")}},
	VOpen:  {open: []MatchSpec{spec(Keyword, "OPEN")}, close: []MatchSpec{spec(Punctuation, ";")}},
	VSelect: {
		open: []MatchSpec{spec(KeywordDML, "SELECT")},
		close: []MatchSpec{
			spec(Punctuation, ";"),
			spec(Keyword, "UNION"),
			spec(Keyword, "UNION ALL"),
		},
	},
	VDMLOperation: {open: []MatchSpec{spec(KeywordDML, "INSERT", "UPDATE", "DELETE")}, close: []MatchSpec{spec(Punctuation, ";")}},
	VWhere: {
		open: []MatchSpec{spec(Keyword, "WHERE")},
		close: []MatchSpec{
			spec(Keyword, "ORDER", "GROUP", "LIMIT", "UNION", "EXCEPT", "HAVING",
				"RETURNING", "INTO", "FOR UPDATE"),
		},
	},
	VUnion:          {divider: []MatchSpec{spec(Keyword, "UNION", "UNION ALL")}},
	VPackageHeading: {open: []MatchSpec{spec(KeywordDDL, "CREATE OR REPLACE")}, next: []MatchSpec{spec(Keyword, "PACKAGE")}, close: []MatchSpec{spec(Keyword, "IS", "AS")}},
	VFunctionHeading: {
		open:  []MatchSpec{spec(Keyword, "FUNCTION")},
		close: []MatchSpec{spec(Keyword, "IS", "AS"), spec(Punctuation, ";"), spec(Punctuation, ",")},
	},
	VProcedureHeading: {open: []MatchSpec{spec(Keyword, "PROCEDURE")}},
	VReturnType:       {open: []MatchSpec{spec(Keyword, "RETURN")}},
	VCursorDef:        {open: []MatchSpec{spec(Keyword, "CURSOR")}, middle: []MatchSpec{spec(Keyword, "IS")}},
	VExceptions:       {open: []MatchSpec{spec(Keyword, "EXCEPTION")}, close: []MatchSpec{spec(Keyword, "END")}},
	VNotFound: {
		open:  []MatchSpec{spec(Operator, "%")},
		close: []MatchSpec{spec(Keyword, "FOUND"), spec(Keyword, "NOTFOUND"), spec(Keyword, "ROWCOUNT")},
	},
	VFunctionParam:  {separator: []MatchSpec{spec(Punctuation, ",")}},
	VDeclareSection: {open: []MatchSpec{spec(Keyword, "IS", "AS")}, separator: []MatchSpec{spec(Punctuation, ";")}},
	VTransaction:    {close: []MatchSpec{spec(KeywordDML, "COMMIT", "ROLLBACK", "ROLLBACK TO")}},
}

// ---- Accessor methods ----
// These operate generically on *TokenList; which ones are meaningful
// depends on the receiver's Variant.

// GetAlias returns the alias for an Identifier, or "" if none.
//
// Two forms are recognized: "name AS alias" looks for the AS keyword and
// takes the first name after it. "name alias" (no AS) treats any
// non-trivial tail following whitespace as the alias once the group has
// more than two children — this over-matches for bare arithmetic
// expressions like "a + b" (no real alias present).
func (tl *TokenList) GetAlias() string {
	kwIdx, kw := tl.TokenNextBy(-1, nil, []MatchSpec{spec(Keyword, "AS")}, nil)
	if kw != nil {
		return tl.getFirstName(kwIdx+1, false, true)
	}
	_, ws := tl.TokenNextBy(-1, nil, nil, []*TokenType{Whitespace})
	if len(tl.Children) > 2 && ws != nil {
		return tl.getFirstName(0, true, false)
	}
	return ""
}

func (tl *TokenList) HasAlias() bool { return tl.GetAlias() != "" }

// GetName returns the alias if present, else the real name.
func (tl *TokenList) GetName() string {
	if a := tl.GetAlias(); a != "" {
		return a
	}
	return tl.GetRealName()
}

// GetRealName returns the object name: for "a.b" that is "b".
func (tl *TokenList) GetRealName() string {
	dotIdx, _ := tl.TokenNextBy(-1, nil, []MatchSpec{spec(Punctuation, ".")}, nil)
	return tl.getFirstName(dotIdx, false, false)
}

// GetParentName returns the qualifier before the first dot, e.g. "a" in
// "a.b", or "" if there is none.
func (tl *TokenList) GetParentName() string {
	dotIdx, _ := tl.TokenNextBy(-1, nil, []MatchSpec{spec(Punctuation, ".")}, nil)
	if dotIdx < 0 {
		return ""
	}
	_, prev := tl.TokenPrev(dotIdx, true, false)
	if prev == nil {
		return ""
	}
	return removeQuotes(prev.Text())
}

// GetTypecast returns the text following "::", or "" if absent.
func (tl *TokenList) GetTypecast() string {
	mIdx, marker := tl.TokenNextBy(-1, nil, []MatchSpec{spec(Punctuation, "::")}, nil)
	if marker == nil {
		return ""
	}
	_, next := tl.TokenNext(mIdx, false, false)
	if next == nil {
		return ""
	}
	return next.Text()
}

// GetOrdering returns "ASC"/"DESC" (normalized) or "" if the identifier
// carries no explicit ordering.
func (tl *TokenList) GetOrdering() string {
	_, ord := tl.TokenNextBy(-1, nil, nil, []*TokenType{KeywordOrder})
	if ord == nil {
		return ""
	}
	if t, ok := ord.(*Token); ok {
		return t.Normalized
	}
	return ""
}

// GetArrayIndices returns the contents (braces excluded) of each
// SquareBrackets child, in source order.
func (tl *TokenList) GetArrayIndices() [][]Node {
	var out [][]Node
	for _, c := range tl.Children {
		if g, ok := c.(*TokenList); ok && g.Variant == VSquareBrackets {
			if len(g.Children) > 2 {
				out = append(out, g.Children[1:len(g.Children)-1])
			} else {
				out = append(out, nil)
			}
		}
	}
	return out
}

// getFirstName scans tl.Children[idx:] (or all children if idx<0),
// forward or in reverse, for the first token carrying a name: Name,
// Wildcard, String.Symbol (and Keyword too when keywords is true). A
// nested Identifier/Function defers to its own GetName/name.
func (tl *TokenList) getFirstName(idx int, reverse bool, keywords bool) string {
	children := tl.Children
	if idx > 0 {
		children = children[min(idx, len(children)):]
	}
	order := make([]Node, len(children))
	copy(order, children)
	if reverse {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	for _, n := range order {
		tt := n.TType()
		if tt == Name || tt == Wildcard || tt == StringSymbol || (keywords && tt != nil && tt.Is(Keyword)) {
			return removeQuotes(n.Text())
		}
		if g, ok := n.(*TokenList); ok {
			switch g.Variant {
			case VIdentifier:
				return g.GetName()
			case VFunction:
				return g.FunctionName()
			}
		}
	}
	return ""
}

func removeQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
		return s[1 : len(s)-1]
	}
	return s
}

// GetType returns the statement's leading DML/DDL keyword, normalized, or
// UnknownType if the statement doesn't open with one. WITH (Keyword.CTE)
// is special-cased: it looks past the CTE identifier(s) for the DML verb
// that actually follows.
func (tl *TokenList) GetType() StatementType {
	first := tl.TokenFirst(true, true)
	if first == nil {
		return UnknownType
	}
	if t, ok := first.(*Token); ok {
		tt := t.TType()
		if tt == KeywordDML || tt == KeywordDDL {
			return StatementType(t.Normalized)
		}
		if tt == KeywordCTE {
			fidx := tl.TokenIndex(first, 0)
			tidx, next := tl.TokenNext(fidx, true, false)
			if g, ok := next.(*TokenList); ok && (g.Variant == VIdentifier || g.Variant == VIdentifierList) {
				_, dml := tl.TokenNext(tidx, true, false)
				if normalized, ok := leadingDML(dml); ok {
					return StatementType(normalized)
				}
			}
		}
		return UnknownType
	}
	// first is a group: groupSelect/groupDML/groupPackage wrap starting
	// AT the leading DML/DDL keyword (through the closing ';'), so a
	// plain "SELECT ... ;" or "INSERT ... ;" statement has that keyword
	// buried as the first child of a Select/DML_Operation group (or of the
	// PackageHeading inside a Package) rather than sitting bare at the top
	// level. leadingDML descends through such wrappers to find it.
	if normalized, ok := leadingDML(first); ok {
		return StatementType(normalized)
	}
	return UnknownType
}

// leadingDML reports the normalized DML/DDL keyword n opens with: n
// itself if it is one, or (recursively) the leading keyword of a group
// such as the Select/DML_Operation/PackageHeading a statement's body
// gets wrapped into once grouping completes. Without this, get_type
// would see only the wrapping group (which carries no ttype of its
// own) and never find the keyword underneath it.
func leadingDML(n Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if t, ok := n.(*Token); ok {
		if tt := t.TType(); tt == KeywordDML || tt == KeywordDDL {
			return t.Normalized, true
		}
		return "", false
	}
	if g, ok := n.(*TokenList); ok {
		return leadingDML(g.TokenFirst(true, true))
	}
	return "", false
}

// StatementType is the closed set of values Statement.GetType can
// return: an upper-cased DML/DDL keyword, or UnknownType.
type StatementType string

const (
	UnknownType StatementType = "UNKNOWN"
	SelectType  StatementType = "SELECT"
	InsertType  StatementType = "INSERT"
	UpdateType  StatementType = "UPDATE"
	DeleteType  StatementType = "DELETE"
	CreateType  StatementType = "CREATE"
	DropType    StatementType = "DROP"
	AlterType   StatementType = "ALTER"
)

// FunctionName returns the function/procedure-call name: its first
// non-comment child's text.
func (tl *TokenList) FunctionName() string {
	if f := tl.TokenFirst(false, true); f != nil {
		return f.Text()
	}
	return ""
}

// GetParameters returns the call arguments of a Function: the contents of
// an IdentifierList if present, or a single-element slice for a lone
// argument, or nil for a no-arg call. On a FunctionHeading or
// ProcedureHeading it delegates to the nested Function carrying the
// parameter list.
func (tl *TokenList) GetParameters() []Node {
	if tl.Variant == VFunctionHeading || tl.Variant == VProcedureHeading {
		if _, fn := tl.TokenNextBy(-1, []Variant{VFunction}, nil, nil); fn != nil {
			return fn.(*TokenList).GetParameters()
		}
		return nil
	}
	if len(tl.Children) == 0 {
		return nil
	}
	last, ok := tl.Children[len(tl.Children)-1].(*TokenList)
	if !ok || last.Variant != VParenthesis {
		return nil
	}
	inner := last.groupableTokens()
	for _, tok := range inner {
		if g, ok := tok.(*TokenList); ok && g.Variant == VIdentifierList {
			return g.GetIdentifiers()
		}
		if isIdentifierLike(tok) {
			return []Node{tok}
		}
	}
	return nil
}

func isIdentifierLike(n Node) bool {
	g, ok := n.(*TokenList)
	if !ok {
		return n.TType() != nil && (n.TType().Is(Number) || n.TType().Is(String))
	}
	switch g.Variant {
	case VFunction, VIdentifier, VFunctionParam:
		return true
	}
	return false
}

// GetIdentifiers returns the comma-separated members of an IdentifierList,
// skipping whitespace and the separating commas themselves.
func (tl *TokenList) GetIdentifiers() []Node {
	var out []Node
	for _, c := range tl.Children {
		if c.IsWhitespace() || c.Match(Punctuation, ",") {
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsWildcard reports whether an Identifier contains a wildcard (`*`).
func (tl *TokenList) IsWildcard() bool {
	_, w := tl.TokenNextBy(-1, nil, nil, []*TokenType{Wildcard})
	return w != nil
}

// CaseBranch is one WHEN/THEN pair (or the trailing ELSE, Condition nil)
// of a Case group.
type CaseBranch struct {
	Condition []Node
	Value     []Node
}

// GetCases returns the WHEN/THEN branches of a Case group in order, with a
// trailing ELSE branch (nil Condition) if present.
func (tl *TokenList) GetCases() []CaseBranch {
	const (
		modeNone = iota
		modeCondition
		modeValue
	)
	var ret []CaseBranch
	mode := modeCondition
	for _, tok := range tl.Children {
		if tok.IsWhitespace() || isComment(tok) {
			continue
		}
		switch {
		case tok.Match(Keyword, "CASE"):
			continue
		case tok.Match(Keyword, "WHEN"):
			ret = append(ret, CaseBranch{})
			mode = modeCondition
			continue
		case tok.Match(Keyword, "THEN"):
			mode = modeValue
			continue
		case tok.Match(Keyword, "ELSE"):
			ret = append(ret, CaseBranch{Condition: nil})
			mode = modeValue
			continue
		case tok.Match(Keyword, "END"):
			mode = modeNone
			continue
		}
		if mode != modeNone && len(ret) == 0 {
			ret = append(ret, CaseBranch{})
		}
		switch mode {
		case modeCondition:
			ret[len(ret)-1].Condition = append(ret[len(ret)-1].Condition, tok)
		case modeValue:
			ret[len(ret)-1].Value = append(ret[len(ret)-1].Value, tok)
		}
	}
	return ret
}

// Left and Right return the boundary children of an Assignment or
// Operation group (its first and last non-comment tokens).
func (tl *TokenList) Left() Node  { return tl.TokenFirst(false, true) }
func (tl *TokenList) Right() Node { return tl.TokenLast(false, true) }

// OperatorToken returns the Operator-typed child of an Operation group.
func (tl *TokenList) OperatorToken() Node {
	_, op := tl.TokenNextBy(-1, nil, nil, []*TokenType{Operator})
	return op
}

// DeclaredVariables returns a DeclareSection's non-trivial children: the
// DataType run for each declared variable, separators excluded.
func (tl *TokenList) DeclaredVariables() []Node {
	var out []Node
	for _, c := range tl.Children {
		if c.IsWhitespace() || c.Match(Punctuation, ";") || isComment(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// GroupVariables partitions a DeclareSection's children on ";" into one
// DataType group per declared variable; the separating ";" stays outside
// each group.
func (tl *TokenList) GroupVariables() {
	seps := descriptors[VDeclareSection].separator
	_, stkn := tl.TokenNext(-1, true, true)
	for stkn != nil {
		start := tl.TokenIndex(stkn, 0)
		if isVariant(stkn, VDataType) {
			_, stkn = tl.TokenNext(start, true, true)
			continue
		}
		sepIdx, sep := tl.TokenNextBy(start-1, nil, seps, nil)
		if sep == nil {
			return
		}
		if lidx, _ := tl.TokenPrev(sepIdx, true, true); lidx >= start {
			tl.GroupTokens(VDataType, start, lidx, true, false)
		}
		_, stkn = tl.TokenNext(tl.TokenIndex(sep, 0), true, true)
	}
}

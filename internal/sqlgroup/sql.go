package sqlgroup

// Node is implemented by both Token (a leaf) and *TokenList (an interior
// group). Grouping passes work against Node throughout so the same scan
// logic applies whether a direct child is a bare token or an
// already-grouped subtree.
type Node interface {
	IsGroup() bool
	IsWhitespace() bool
	Parent() *TokenList
	setParent(*TokenList)
	// Match reports whether a leaf token matches (ttype, values); groups
	// never match since they carry no ttype of their own.
	Match(ttype *TokenType, values ...string) bool
	TType() *TokenType
	Text() string
	Flatten() []*Token
}

func (t *Token) TType() *TokenType { return t.Ttype }
func (t *Token) Text() string      { return t.Value }

// TokenList is an interior tree node: an ordered, contiguous span of
// children tagged with a Variant. Parentage is re-established on every
// structural edit (GroupTokens, InsertBefore, InsertAfter, Pop) so
// Node.Parent always reflects current tree shape.
type TokenList struct {
	Variant  Variant
	Children []Node
	parent   *TokenList
}

// NewTokenList groups children under variant, re-parenting them.
func NewTokenList(variant Variant, children []Node) *TokenList {
	tl := &TokenList{Variant: variant, Children: children}
	for _, c := range children {
		c.setParent(tl)
	}
	return tl
}

func (tl *TokenList) IsGroup() bool                       { return true }
func (tl *TokenList) IsWhitespace() bool                  { return false }
func (tl *TokenList) Parent() *TokenList                  { return tl.parent }
func (tl *TokenList) setParent(p *TokenList)               { tl.parent = p }
func (tl *TokenList) TType() *TokenType                   { return nil }
func (tl *TokenList) Match(*TokenType, ...string) bool     { return false }

// Text concatenates the flattened leaf values, the group's "source text".
func (tl *TokenList) Text() string {
	var b []byte
	for _, tok := range tl.Flatten() {
		b = append(b, tok.Value...)
	}
	return string(b)
}

// Flatten yields every leaf Token under tl, depth-first, in source order.
func (tl *TokenList) Flatten() []*Token {
	var out []*Token
	for _, c := range tl.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}

// Sublists iterates only the grouped direct children, skipping bare
// tokens.
func (tl *TokenList) Sublists() []*TokenList {
	var out []*TokenList
	for _, c := range tl.Children {
		if g, ok := c.(*TokenList); ok {
			out = append(out, g)
		}
	}
	return out
}

// groupableTokens is the span close-token fallbacks search within: for
// Parenthesis and SquareBrackets this excludes the bracket tokens
// themselves.
func (tl *TokenList) groupableTokens() []Node {
	switch tl.Variant {
	case VParenthesis, VSquareBrackets:
		if len(tl.Children) <= 2 {
			return nil
		}
		return tl.Children[1 : len(tl.Children)-1]
	default:
		return tl.Children
	}
}

// Pop removes and returns the child at index (default: last, like
// Python's list.pop(-1)).
func (tl *TokenList) Pop(index int) Node {
	if index < 0 {
		index += len(tl.Children)
	}
	n := tl.Children[index]
	tl.Children = append(tl.Children[:index], tl.Children[index+1:]...)
	n.setParent(nil)
	return n
}

func wsSkipper(skipWS, skipCM bool) func(Node) bool {
	return func(n Node) bool {
		if skipWS && n.IsWhitespace() {
			return false
		}
		if skipCM && isComment(n) {
			return false
		}
		return true
	}
}

func isComment(n Node) bool {
	if g, ok := n.(*TokenList); ok {
		return g.Variant == VComment
	}
	return n.TType().Is(Comment)
}

// tokenMatching scans children in [start,end) (or backward from start-2 if
// reverse) for the first child satisfying any func in funcs. Returns
// (-1, nil) if none match — the Go analogue of Python's (None, None).
func (tl *TokenList) tokenMatching(funcs []func(Node) bool, start, end int, reverse bool) (int, Node) {
	if reverse {
		for idx := start - 2; idx >= 0; idx-- {
			tok := tl.Children[idx]
			for _, f := range funcs {
				if f(tok) {
					return idx, tok
				}
			}
		}
		return -1, nil
	}
	if end < 0 || end > len(tl.Children) {
		end = len(tl.Children)
	}
	if start < 0 {
		return -1, nil
	}
	for idx := start; idx < end; idx++ {
		tok := tl.Children[idx]
		for _, f := range funcs {
			if f(tok) {
				return idx, tok
			}
		}
	}
	return -1, nil
}

// TokenFirst returns the first child, optionally skipping whitespace
// and/or comments.
func (tl *TokenList) TokenFirst(skipWS, skipCM bool) Node {
	_, n := tl.tokenMatching([]func(Node) bool{wsSkipper(skipWS, skipCM)}, 0, -1, false)
	return n
}

// TokenLast returns the last child, optionally skipping whitespace
// and/or comments.
func (tl *TokenList) TokenLast(skipWS, skipCM bool) Node {
	_, n := tl.tokenMatching([]func(Node) bool{wsSkipper(skipWS, skipCM)}, len(tl.Children)+1, -1, true)
	return n
}

// MatchSpec is a (type, values) pair as used by Match and imt.
type MatchSpec struct {
	Type   *TokenType
	Values []string
}

// imt ("is one of") unions three kinds of membership test: tag-variant
// membership (i), (type,values) match specs (m), and token-type lattice
// membership (t).
func imt(n Node, variants []Variant, specs []MatchSpec, types []*TokenType) bool {
	if n == nil {
		return false
	}
	if g, ok := n.(*TokenList); ok {
		for _, v := range variants {
			if g.Variant == v {
				return true
			}
		}
	}
	for _, s := range specs {
		if n.Match(s.Type, s.Values...) {
			return true
		}
	}
	if tt := n.TType(); tt != nil {
		for _, t := range types {
			if tt.Is(t) {
				return true
			}
		}
	}
	return false
}

// TokenNextBy scans forward from idx+1 for a child matching any of
// variants/specs/types (imt semantics). idx=-1 starts from the beginning.
func (tl *TokenList) TokenNextBy(idx int, variants []Variant, specs []MatchSpec, types []*TokenType) (int, Node) {
	f := func(n Node) bool { return imt(n, variants, specs, types) }
	return tl.tokenMatching([]func(Node) bool{f}, idx+1, -1, false)
}

// TokenNotMatching returns the first child at or after idx for which at
// least one of funcs does not hold.
func (tl *TokenList) TokenNotMatching(idx int, funcs ...func(Node) bool) (int, Node) {
	neg := make([]func(Node) bool, len(funcs))
	for i, f := range funcs {
		f := f
		neg[i] = func(n Node) bool { return !f(n) }
	}
	return tl.tokenMatching(neg, idx, -1, false)
}

// TokenNext returns the next child after idx, honoring skipWS/skipCM.
// idx=-1 means "before the first child".
func (tl *TokenList) TokenNext(idx int, skipWS, skipCM bool) (int, Node) {
	return tl.tokenNext(idx, skipWS, skipCM, false)
}

// TokenPrev returns the previous child before idx, honoring skipWS/skipCM.
func (tl *TokenList) TokenPrev(idx int, skipWS, skipCM bool) (int, Node) {
	return tl.tokenNext(idx, skipWS, skipCM, true)
}

func (tl *TokenList) tokenNext(idx int, skipWS, skipCM bool, reverse bool) (int, Node) {
	idx++
	return tl.tokenMatching([]func(Node) bool{wsSkipper(skipWS, skipCM)}, idx, -1, reverse)
}

// TokenIndex returns the index of tok among the children starting at
// start.
func (tl *TokenList) TokenIndex(tok Node, start int) int {
	for i := start; i < len(tl.Children); i++ {
		if tl.Children[i] == tok {
			return i
		}
	}
	return -1
}

// GroupTokens replaces children[start:end+includeEnd] with a single group
// of grp. If extend is true and children[start] is already of variant
// grp, the span is appended to that existing group instead of wrapping it
// again — this is how adjacent same-type groups (Union, IdentifierList,
// generic comment-gluing) grow incrementally across passes.
func (tl *TokenList) GroupTokens(grp Variant, start, end int, includeEnd bool, extend bool) *TokenList {
	endIdx := end
	if includeEnd {
		endIdx++
	}
	first := tl.Children[start]

	if extend {
		if g, ok := first.(*TokenList); ok && g.Variant == grp {
			sub := tl.Children[start+1 : endIdx]
			g.Children = append(g.Children, sub...)
			// re-parent before compacting tl.Children: sub aliases that
			// backing array and is overwritten by the shift below
			for _, c := range sub {
				c.setParent(g)
			}
			tl.Children = append(tl.Children[:start+1], tl.Children[endIdx:]...)
			return g
		}
	}

	sub := tl.Children[start:endIdx]
	subCopy := make([]Node, len(sub))
	copy(subCopy, sub)
	g := NewTokenList(grp, subCopy)
	rest := make([]Node, 0, len(tl.Children)-len(sub)+1)
	rest = append(rest, tl.Children[:start]...)
	rest = append(rest, g)
	rest = append(rest, tl.Children[endIdx:]...)
	tl.Children = rest
	g.parent = tl
	return g
}

// InsertBefore inserts tok immediately before the child at index where.
func (tl *TokenList) InsertBefore(where int, tok Node) {
	tok.setParent(tl)
	tl.Children = append(tl.Children, nil)
	copy(tl.Children[where+1:], tl.Children[where:])
	tl.Children[where] = tok
}

// InsertAfter inserts tok after the child at where, immediately before the
// next child following it (the next non-whitespace child when skipWS), or
// at the end if there is none.
func (tl *TokenList) InsertAfter(where int, tok Node, skipWS bool) {
	nidx, next := tl.TokenNext(where, skipWS, false)
	tok.setParent(tl)
	if next == nil {
		tl.Children = append(tl.Children, tok)
		return
	}
	tl.Children = append(tl.Children, nil)
	copy(tl.Children[nidx+1:], tl.Children[nidx:])
	tl.Children[nidx] = tok
}

package sqlgroup

// Group runs the fixed, order-sensitive pipeline of grouping passes over
// a split Statement, turning its flat children into a tree of typed
// groups. The result of pass k is the input to pass k+1; the passes are
// not commutative, so the order below is load-bearing. Never errors: a
// pass that can't recognize a span simply leaves it ungrouped.
//
// Transaction grouping (COMMIT/ROLLBACK) is deliberately not wired into
// this pipeline.
func Group(stmt *TokenList) *TokenList {
	groupComments(stmt)
	groupPackage(stmt)
	groupBrackets(stmt)
	groupParenthesis(stmt)

	groupDML(stmt)
	groupSelect(stmt)
	groupCase(stmt)
	groupOpenLoopTag(stmt)
	groupIf(stmt)
	groupFor(stmt)
	groupBegin(stmt)
	groupExit(stmt)

	groupProcedureHeading(stmt)
	groupFunctionHeading(stmt)
	groupFunctionReturnType(stmt)

	groupFunctions(stmt)
	groupWhere(stmt)

	groupUnion(stmt)

	groupPeriod(stmt)
	groupArrays(stmt)
	groupIdentifier(stmt)
	groupOrder(stmt)
	groupTypecasts(stmt)
	groupOperator(stmt)
	groupComparison(stmt)
	groupAs(stmt)
	groupAliased(stmt)
	groupAssignment(stmt)

	groupAlignComments(stmt)
	groupFunctionParams(stmt)
	groupIdentifierList(stmt)

	flatterStatementClass(stmt)
	flatterIdentifierClass(stmt)

	groupCursorDef(stmt)
	groupProcedureBlock(stmt)
	groupFunctionBlock(stmt)
	groupDeclareSection(stmt)
	groupExceptions(stmt)
	groupOpen(stmt)

	return stmt
}

// ---- shared scan helpers ----

func matchAny(n Node, specs []MatchSpec) bool {
	for _, s := range specs {
		if n.Match(s.Type, s.Values...) {
			return true
		}
	}
	return false
}

func isVariant(n Node, v Variant) bool {
	g, ok := n.(*TokenList)
	return ok && g.Variant == v
}

// recurseApply applies fn to every descendant TokenList before tl itself
// (children before parent), skipping descent into groups whose variant is
// in exclude.
func recurseApply(tl *TokenList, exclude []Variant, fn func(*TokenList)) {
	for _, c := range tl.Sublists() {
		skip := false
		for _, v := range exclude {
			if c.Variant == v {
				skip = true
				break
			}
		}
		if !skip {
			recurseApply(c, exclude, fn)
		}
	}
	fn(tl)
}

// groupBracketedGeneric is the bracketed-matcher primitive shared by the
// open/close passes: one linear scan with a stack of pending open
// indices. Unmatched closers are skipped, not fatal.
func groupBracketedGeneric(tl *TokenList, variant Variant) {
	d := descriptors[variant]
	var stack []int
	for i := 0; i < len(tl.Children); i++ {
		c := tl.Children[i]
		switch {
		case matchAny(c, d.open):
			stack = append(stack, i)
		case matchAny(c, d.close):
			if len(stack) > 0 {
				openIdx := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				tl.GroupTokens(variant, openIdx, i, true, false)
				i = openIdx
			}
		}
	}
}

// groupJoin is the middle-joined matcher primitive: for each
// child satisfying match, require a valid previous and next sibling, then
// group the span post returns (by default [prev, next]) as variant. next
// may be nil; validNext and post are responsible for handling that.
func groupJoin(tl *TokenList, variant Variant, match, validPrev, validNext func(Node) bool,
	post func(tl *TokenList, pidx, tidx, nidx int) (int, int), extend bool) {
	idx := -1
	for {
		tidx := -1
		for i := idx + 1; i < len(tl.Children); i++ {
			if match(tl.Children[i]) {
				tidx = i
				break
			}
		}
		if tidx < 0 {
			return
		}
		nidx, next := tl.TokenNext(tidx, true, false)
		if validNext != nil && !validNext(next) {
			idx = tidx
			continue
		}
		pidx, prev := tl.TokenPrev(tidx, true, false)
		if prev == nil || (validPrev != nil && !validPrev(prev)) {
			idx = tidx
			continue
		}
		from, to := pidx, nidx
		if post != nil {
			from, to = post(tl, pidx, tidx, nidx)
		} else if next == nil {
			idx = tidx
			continue
		}
		tl.GroupTokens(variant, from, to, true, extend)
		idx = from
	}
}

// groupTrailing groups [prev, match] when match has a valid previous
// sibling, without requiring anything about what follows.
func groupTrailing(tl *TokenList, variant Variant, match, validPrev func(Node) bool, extend bool) {
	idx := -1
	for {
		tidx := -1
		for i := idx + 1; i < len(tl.Children); i++ {
			if match(tl.Children[i]) {
				tidx = i
				break
			}
		}
		if tidx < 0 {
			return
		}
		pidx, prev := tl.TokenPrev(tidx, true, false)
		if prev == nil || (validPrev != nil && !validPrev(prev)) {
			idx = tidx
			continue
		}
		tl.GroupTokens(variant, pidx, tidx, true, extend)
		idx = pidx
	}
}

// partitionBySeparator groups runs of children in [start, index-of(end))
// delimited by seps into variant, including the trailing run up to (but
// excluding) end. Runs are trimmed of surrounding whitespace and
// comments. end is tracked by identity since grouping shrinks the
// children slice as it goes.
func partitionBySeparator(tl *TokenList, variant Variant, seps []MatchSpec, start int, end Node) {
	for {
		endIdx := tl.TokenIndex(end, 0)
		sidx, stok := tl.TokenNext(start-1, true, true)
		if stok == nil || sidx >= endIdx {
			return
		}
		start = sidx
		sepIdx, sep := tl.TokenNextBy(start-1, nil, seps, nil)
		if sep == nil || sepIdx >= endIdx {
			if lidx, _ := tl.TokenPrev(endIdx, true, true); lidx >= start {
				tl.GroupTokens(variant, start, lidx, true, false)
			}
			return
		}
		if lidx, _ := tl.TokenPrev(sepIdx, true, true); lidx >= start {
			tl.GroupTokens(variant, start, lidx, true, false)
		}
		start = tl.TokenIndex(sep, 0) + 1
	}
}

// ---- pass 1: comments ----

func groupComments(stmt *TokenList) {
	recurseApply(stmt, []Variant{VComment}, groupCommentsOnce)
}

func groupCommentsOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		if !isComment(tl.Children[i]) {
			i++
			continue
		}
		j := i
		for j+1 < len(tl.Children) && (isComment(tl.Children[j+1]) || tl.Children[j+1].IsWhitespace()) {
			j++
		}
		for j > i && tl.Children[j].IsWhitespace() {
			j--
		}
		if j > i {
			tl.GroupTokens(VComment, i, j, true, false)
		}
		i++
	}
}

// ---- pass 2: package ----

func groupPackage(stmt *TokenList) {
	recurseApply(stmt, []Variant{VPackage, VPackageHeading}, groupPackageOnce)
}

func groupPackageOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		if tl.Children[i].Match(KeywordDDL, "CREATE OR REPLACE") {
			start := i
			d := descriptors[VPackageHeading]
			pidx, pkgTok := tl.TokenNextBy(i, nil, d.next, nil)
			if pkgTok != nil {
				kidx, closeTok := tl.TokenNextBy(pidx, nil, d.close, nil)
				if closeTok != nil {
					heading := tl.GroupTokens(VPackageHeading, start, kidx, true, false)
					hIdx := tl.TokenIndex(heading, 0)
					tl.GroupTokens(VPackage, hIdx, len(tl.Children)-1, true, false)
					i = hIdx
				}
			}
		}
		i++
	}
}

// ---- pass 3: brackets, parenthesis ----

func groupBrackets(stmt *TokenList) {
	recurseApply(stmt, []Variant{VSquareBrackets}, func(t *TokenList) { groupBracketedGeneric(t, VSquareBrackets) })
}

func groupParenthesis(stmt *TokenList) {
	recurseApply(stmt, []Variant{VParenthesis}, func(t *TokenList) { groupBracketedGeneric(t, VParenthesis) })
}

// ---- pass 4: dml, select, case, openlooptag, if, for, begin, exit ----

func groupDML(stmt *TokenList) {
	recurseApply(stmt, []Variant{VDMLOperation}, func(t *TokenList) { groupBracketedGeneric(t, VDMLOperation) })
}

func groupSelect(stmt *TokenList) {
	recurseApply(stmt, []Variant{VSelect}, groupSelectOnce)
}

func groupSelectOnce(tl *TokenList) {
	var stack []int
	for i := 0; i < len(tl.Children); i++ {
		c := tl.Children[i]
		switch {
		case c.Match(KeywordDML, "SELECT"):
			stack = append(stack, i)
		case len(stack) > 0 && (c.Match(Punctuation, ";") || c.Match(Keyword, "UNION") || c.Match(Keyword, "UNION ALL")):
			openIdx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			closeIdx := i
			if c.Match(Keyword, "UNION") || c.Match(Keyword, "UNION ALL") {
				pidx, prev := tl.TokenPrev(i, true, true)
				if prev != nil {
					closeIdx = pidx
				} else {
					closeIdx = i - 1
				}
			}
			if closeIdx >= openIdx {
				tl.GroupTokens(VSelect, openIdx, closeIdx, true, false)
				i = openIdx
			}
		}
	}
	if len(stack) == 1 && tl.Variant == VParenthesis && len(tl.Children) >= 2 {
		openIdx := stack[0]
		closeIdx := len(tl.Children) - 2
		if closeIdx >= openIdx {
			tl.GroupTokens(VSelect, openIdx, closeIdx, true, false)
		}
	}
}

func groupCase(stmt *TokenList) {
	recurseApply(stmt, []Variant{VCase}, func(t *TokenList) { groupBracketedGeneric(t, VCase) })
}

func groupOpenLoopTag(stmt *TokenList) {
	recurseApply(stmt, []Variant{VOpenLoopTag}, func(t *TokenList) { groupBracketedGeneric(t, VOpenLoopTag) })
}

func groupIf(stmt *TokenList) {
	recurseApply(stmt, []Variant{VIf}, func(t *TokenList) { groupBracketedGeneric(t, VIf) })
}

func groupFor(stmt *TokenList) {
	recurseApply(stmt, []Variant{VFor}, groupForOnce)
}

// groupForOnce recognizes both `FOR x IN ... LOOP ... END LOOP` (a ForIn
// token opens unconditionally) and bare `LOOP ... END LOOP` (LOOP opens
// only when not already inside a For at this scan level).
func groupForOnce(tl *TokenList) {
	var stack []int
	inFor := false
	for i := 0; i < len(tl.Children); i++ {
		c := tl.Children[i]
		switch {
		case c.TType() == ForIn:
			inFor = true
			stack = append(stack, i)
		case c.Match(Keyword, "LOOP"):
			if inFor {
				// the LOOP keyword belonging to an open FOR x IN header
				inFor = false
			} else {
				stack = append(stack, i)
			}
		case c.Match(Keyword, "END LOOP"):
			if len(stack) > 0 {
				openIdx := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				tl.GroupTokens(VFor, openIdx, i, true, false)
				i = openIdx
			}
		}
	}
}

func groupBegin(stmt *TokenList) {
	recurseApply(stmt, []Variant{VBegin}, func(t *TokenList) { groupBracketedGeneric(t, VBegin) })
}

func groupExit(stmt *TokenList) {
	recurseApply(stmt, []Variant{VExit}, func(t *TokenList) { groupBracketedGeneric(t, VExit) })
}

// ---- pass 5: procedure_heading, function_heading, function_return_type ----

func groupProcedureHeading(stmt *TokenList) {
	recurseApply(stmt, []Variant{VProcedureHeading}, groupProcedureHeadingOnce)
}

func groupProcedureHeadingOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		if tl.Children[i].Match(Keyword, "PROCEDURE") {
			nidx, next := tl.TokenNext(i, true, true)
			if next != nil && next.TType() == Name {
				n2idx, next2 := tl.TokenNext(nidx, true, false)
				switch {
				case isVariant(next2, VParenthesis):
					tl.GroupTokens(VProcedureHeading, i, n2idx, true, false)
				case next2 != nil && next2.Match(Keyword, "IS", "AS"):
					tl.GroupTokens(VProcedureHeading, i, nidx, true, false)
				}
			}
		}
		i++
	}
}

func groupFunctionHeading(stmt *TokenList) {
	recurseApply(stmt, []Variant{VFunctionHeading}, groupFunctionHeadingOnce)
}

func groupFunctionHeadingOnce(tl *TokenList) {
	d := descriptors[VFunctionHeading]
	i := 0
	for i < len(tl.Children) {
		if tl.Children[i].Match(Keyword, "FUNCTION") {
			start := i
			idx, next := tl.TokenNext(i, true, false)
			if next == nil {
				return
			}
			if next.TType() == Name {
				if pidx, pnext := tl.TokenNext(idx, true, false); pnext != nil && isVariant(pnext, VParenthesis) {
					idx = pidx
				}
			}
			closeIdx, closeTok := tl.TokenNextBy(idx, nil, d.close, nil)
			if closeTok != nil {
				// the heading stops just before its closer so the block
				// pass still sees the IS/AS that follows it
				tl.GroupTokens(VFunctionHeading, start, closeIdx-1, true, false)
				i = start
			}
		}
		i++
	}
}

func groupFunctionReturnType(stmt *TokenList) {
	recurseApply(stmt, []Variant{VReturnType}, groupFunctionReturnTypeOnce)
}

// groupFunctionReturnTypeOnce groups RETURN plus the type that follows it
// inside a FunctionHeading. RETURN statements in a body are left alone.
func groupFunctionReturnTypeOnce(tl *TokenList) {
	if tl.Variant != VFunctionHeading {
		return
	}
	i := 0
	for i < len(tl.Children) {
		if tl.Children[i].Match(Keyword, "RETURN") {
			if nidx, next := tl.TokenNext(i, true, false); next != nil {
				tl.GroupTokens(VReturnType, i, nidx, true, false)
			}
		}
		i++
	}
}

// ---- pass 6: functions, where ----

func groupFunctions(stmt *TokenList) {
	recurseApply(stmt, []Variant{VFunction}, groupFunctionsOnce)
}

func groupFunctionsOnce(tl *TokenList) {
	for i := 0; i < len(tl.Children); i++ {
		c := tl.Children[i]
		if c.TType() == Name {
			if nidx, next := tl.TokenNext(i, true, false); next != nil && isVariant(next, VParenthesis) {
				tl.GroupTokens(VFunction, i, nidx, true, false)
			}
		}
	}
}

// groupWhere has its own shape (neither the bracketed matcher nor the
// middle-joined matcher): a WHERE never has a mandatory close token. When
// none of its close keywords (ORDER, GROUP, LIMIT, ...) shows up before
// the end of the enclosing list, WHERE swallows everything up to (but
// never past) the last groupable token of that list — so a WHERE inside a
// Parenthesis stops before the closing ")", which groupableTokens already
// excludes.
func groupWhere(stmt *TokenList) {
	recurseApply(stmt, []Variant{VWhere}, groupWhereOnce)
}

func groupWhereOnce(tl *TokenList) {
	d := descriptors[VWhere]
	tidx, tok := tl.TokenNextBy(-1, nil, d.open, nil)
	for tok != nil {
		eidx, end := tl.TokenNextBy(tidx, nil, d.close, nil)
		var endIdx int
		if end != nil {
			endIdx = eidx - 1
		} else {
			gt := tl.groupableTokens()
			if len(gt) == 0 {
				return
			}
			endIdx = tl.TokenIndex(gt[len(gt)-1], 0)
		}
		if endIdx < tidx {
			return
		}
		grp := tl.GroupTokens(VWhere, tidx, endIdx, true, false)
		tidx, tok = tl.TokenNextBy(tl.TokenIndex(grp, 0), nil, d.open, nil)
	}
}

// ---- pass 7: union ----

func groupUnion(stmt *TokenList) {
	recurseApply(stmt, []Variant{VUnion}, groupUnionOnce)
}

func isSelectLike(n Node) bool {
	return isVariant(n, VSelect) || isVariant(n, VUnion)
}

func groupUnionOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		c := tl.Children[i]
		if c.Match(Keyword, "UNION") || c.Match(Keyword, "UNION ALL") {
			pidx, prev := tl.TokenPrev(i, true, true)
			nidx, next := tl.TokenNext(i, true, true)
			if prev != nil && next != nil {
				grp := tl.GroupTokens(VUnion, pidx, nidx, true, isVariant(prev, VUnion))
				i = tl.TokenIndex(grp, 0) + 1
				continue
			}
		}
		i++
	}
}

// ---- pass 8: period, arrays, identifier, order, typecasts, operator, comparison, as, aliased, assignment ----

func groupPeriod(stmt *TokenList) {
	validPrev := func(n Node) bool {
		if g, ok := n.(*TokenList); ok {
			switch g.Variant {
			case VSquareBrackets, VIdentifier, VFunction:
				return true
			}
			return false
		}
		tt := n.TType()
		return tt == Name || tt == StringSymbol
	}
	// the qualified tail joins only when it names something; otherwise
	// the identifier ends at the dot itself
	post := func(tl *TokenList, pidx, tidx, nidx int) (int, int) {
		if nidx >= 0 {
			next := tl.Children[nidx]
			if g, ok := next.(*TokenList); ok {
				if g.Variant == VSquareBrackets || g.Variant == VFunction {
					return pidx, nidx
				}
			} else if tt := next.TType(); tt == Name || tt == StringSymbol || tt == Wildcard {
				return pidx, nidx
			}
		}
		return pidx, tidx
	}
	recurseApply(stmt, []Variant{VIdentifier}, func(t *TokenList) {
		groupJoin(t, VIdentifier, func(n Node) bool { return n.Match(Punctuation, ".") }, validPrev, nil, post, true)
	})
}

func groupArrays(stmt *TokenList) {
	recurseApply(stmt, []Variant{VIdentifier}, groupArraysOnce)
}

func groupArraysOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		c := tl.Children[i]
		if isVariant(c, VSquareBrackets) {
			pidx, prev := tl.TokenPrev(i, true, false)
			if prev != nil && (prev.TType() == Name || prev.TType() == StringSymbol ||
				isVariant(prev, VIdentifier) || isVariant(prev, VFunction) || isVariant(prev, VSquareBrackets)) {
				tl.GroupTokens(VIdentifier, pidx, i, true, true)
				i = pidx
				continue
			}
		}
		i++
	}
}

func groupIdentifier(stmt *TokenList) {
	recurseApply(stmt, []Variant{VIdentifier}, groupIdentifierOnce)
}

func groupIdentifierOnce(tl *TokenList) {
	for i := 0; i < len(tl.Children); i++ {
		c := tl.Children[i]
		if c.TType() == Name || c.TType() == StringSymbol {
			tl.GroupTokens(VIdentifier, i, i, true, false)
		}
	}
}

func groupOrder(stmt *TokenList) {
	recurseApply(stmt, []Variant{VIdentifier}, func(t *TokenList) {
		groupTrailing(t, VIdentifier,
			func(n Node) bool { return n.TType() == KeywordOrder },
			func(n Node) bool {
				return isVariant(n, VIdentifier) || (n.TType() != nil && n.TType().Is(Number))
			},
			true)
	})
}

func groupTypecasts(stmt *TokenList) {
	nonNil := func(n Node) bool { return n != nil }
	recurseApply(stmt, []Variant{VIdentifier}, func(t *TokenList) {
		groupJoin(t, VIdentifier, func(n Node) bool { return n.Match(Punctuation, "::") }, nil, nonNil, nil, true)
	})
}

// operandLike covers the shapes an arithmetic operand can take once the
// identifier passes have run.
func operandLike(n Node) bool {
	if n == nil {
		return false
	}
	if g, ok := n.(*TokenList); ok {
		switch g.Variant {
		case VSquareBrackets, VParenthesis, VFunction, VIdentifier, VOperation:
			return true
		}
		return false
	}
	tt := n.TType()
	return tt.Is(Number) || tt.Is(String) || tt.Is(Name)
}

func groupOperator(stmt *TokenList) {
	match := func(n Node) bool { return n.TType() == Operator || n.TType() == Wildcard }
	// a Wildcard between operands is multiplication: retag it so the
	// Operation reads uniformly downstream
	post := func(tl *TokenList, pidx, tidx, nidx int) (int, int) {
		if t, ok := tl.Children[tidx].(*Token); ok {
			t.Ttype = Operator
		}
		return pidx, nidx
	}
	recurseApply(stmt, []Variant{VOperation}, func(t *TokenList) {
		groupJoin(t, VOperation, match, operandLike, operandLike, post, false)
	})
}

func groupComparison(stmt *TokenList) {
	valid := func(n Node) bool {
		if n == nil {
			return false
		}
		if g, ok := n.(*TokenList); ok {
			switch g.Variant {
			case VParenthesis, VFunction, VIdentifier, VOperation:
				return true
			}
			return false
		}
		tt := n.TType()
		return tt.Is(Number) || tt.Is(String) || tt.Is(Name) || tt.Is(Keyword)
	}
	recurseApply(stmt, []Variant{VComparison}, func(t *TokenList) {
		groupJoin(t, VComparison, func(n Node) bool { return n.TType() == OperatorComparison }, valid, valid, nil, false)
	})
}

func groupAs(stmt *TokenList) {
	recurseApply(stmt, []Variant{VIdentifier}, groupAsOnce)
}

func groupAsOnce(tl *TokenList) {
	groupJoin(tl, VIdentifier,
		func(n Node) bool { return n.Match(Keyword, "AS") },
		func(n Node) bool {
			if tt := n.TType(); tt != nil && tt.Is(Keyword) && !n.Match(Keyword, "NULL") {
				return false
			}
			return !isVariant(n, VFunctionHeading)
		},
		func(n Node) bool { return n != nil && n.TType() != KeywordDML && n.TType() != KeywordDDL },
		nil,
		true)
}

func groupAliased(stmt *TokenList) {
	recurseApply(stmt, []Variant{VIdentifier}, groupAliasedOnce)
}

func isAliasableLeft(n Node) bool {
	if tt := n.TType(); tt != nil && tt.Is(Number) {
		return true
	}
	switch {
	case isVariant(n, VParenthesis), isVariant(n, VFunction), isVariant(n, VCase),
		isVariant(n, VIdentifier), isVariant(n, VOperation), isVariant(n, VComparison):
		return true
	}
	return false
}

func groupAliasedOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		c := tl.Children[i]
		if isAliasableLeft(c) {
			nidx, next := tl.TokenNext(i, true, false)
			if isVariant(next, VIdentifier) {
				tl.GroupTokens(VIdentifier, i, nidx, true, true)
				continue
			}
		}
		i++
	}
}

func groupAssignment(stmt *TokenList) {
	nonNil := func(n Node) bool { return n != nil }
	// the right-hand side runs to just before the statement-ending ';'
	post := func(tl *TokenList, pidx, tidx, nidx int) (int, int) {
		if sidx, semi := tl.TokenNextBy(nidx, nil, []MatchSpec{spec(Punctuation, ";")}, nil); semi != nil {
			return pidx, sidx - 1
		}
		return pidx, nidx
	}
	recurseApply(stmt, []Variant{VAssignment}, func(t *TokenList) {
		groupJoin(t, VAssignment, func(n Node) bool { return n.TType() == Assignment }, nonNil, nonNil, post, true)
	})
}

// ---- pass 9: align_comments, function_params, identifier_list ----

func groupAlignComments(stmt *TokenList) {
	recurseApply(stmt, []Variant{VGroup}, groupAlignCommentsOnce)
}

// groupAlignCommentsOnce glues a trailing comment onto the group that
// precedes it. Bare tokens before a comment are left alone.
func groupAlignCommentsOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		c := tl.Children[i]
		if isComment(c) {
			pidx, prev := tl.TokenPrev(i, true, false)
			if _, ok := prev.(*TokenList); ok {
				tl.GroupTokens(VGroup, pidx, i, true, true)
				i = pidx
				continue
			}
		}
		i++
	}
}

func groupFunctionParams(stmt *TokenList) {
	recurseApply(stmt, nil, groupFunctionParamsOnce)
}

func groupFunctionParamsOnce(tl *TokenList) {
	if tl.Variant != VParenthesis || tl.parent == nil || tl.parent.Variant != VFunction {
		return
	}
	if len(tl.Children) < 3 {
		return
	}
	for _, c := range tl.Children {
		if isVariant(c, VFunctionParam) {
			return
		}
		if g, ok := c.(*TokenList); ok && g.Variant == VIdentifierList {
			for _, cc := range g.Children {
				if isVariant(cc, VFunctionParam) {
					return
				}
			}
		}
	}
	partitionBySeparator(tl, VFunctionParam, descriptors[VFunctionParam].separator, 1, tl.Children[len(tl.Children)-1])
}

func groupIdentifierList(stmt *TokenList) {
	recurseApply(stmt, []Variant{VIdentifierList}, groupIdentifierListOnce)
}

func isIdentifierListItem(n Node) bool {
	if tt := n.TType(); tt != nil {
		if tt.Is(Number) || tt.Is(String) || tt == Name || tt.Is(Keyword) || tt.Is(Comment) || tt == Wildcard {
			return true
		}
	}
	switch {
	case isVariant(n, VFunction), isVariant(n, VCase), isVariant(n, VIdentifier),
		isVariant(n, VComparison), isVariant(n, VIdentifierList), isVariant(n, VOperation),
		isVariant(n, VFunctionParam):
		return true
	}
	return false
}

func groupIdentifierListOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		c := tl.Children[i]
		if c.Match(Punctuation, ",") {
			pidx, prev := tl.TokenPrev(i, true, false)
			nidx, next := tl.TokenNext(i, true, false)
			if prev != nil && next != nil && isIdentifierListItem(prev) && isIdentifierListItem(next) {
				tl.GroupTokens(VIdentifierList, pidx, nidx, true, true)
				i = pidx
				continue
			}
		}
		i++
	}
}

// ---- pass 10: flatter_statement_class, flatter_identifier_class ----

func flattenSingleChild(tl *TokenList, variant Variant) {
	if tl.Variant != variant || len(tl.Children) != 1 || tl.parent == nil {
		return
	}
	p := tl.parent
	idx := p.TokenIndex(tl, 0)
	if idx < 0 {
		return
	}
	child := tl.Children[0]
	child.setParent(p)
	p.Children[idx] = child
}

func flatterStatementClass(stmt *TokenList) {
	recurseApply(stmt, nil, func(t *TokenList) { flattenSingleChild(t, VStatement) })
}

func flatterIdentifierClass(stmt *TokenList) {
	recurseApply(stmt, nil, func(t *TokenList) { flattenSingleChild(t, VIdentifier) })
}

// ---- pass 11: cursor_def, procedure_block, function_block, declare_section, exceptions, open ----

func groupCursorDef(stmt *TokenList) {
	recurseApply(stmt, []Variant{VCursorDef}, groupCursorDefOnce)
}

func groupCursorDefOnce(tl *TokenList) {
	i := 0
	for i < len(tl.Children) {
		if tl.Children[i].Match(Keyword, "CURSOR") {
			nidx, next := tl.TokenNext(i, true, false)
			if next != nil && (next.TType() == Name || isVariant(next, VFunction)) {
				isIdx, isTok := tl.TokenNextBy(nidx, nil, []MatchSpec{spec(Keyword, "IS")}, nil)
				if isTok != nil {
					if sidx, sel := tl.TokenNext(isIdx, true, true); isSelectLike(sel) {
						tl.GroupTokens(VCursorDef, i, sidx, true, false)
					}
				}
			}
		}
		i++
	}
}

// groupBlockGeneric wraps [headingStart...end] as blockVariant, where end
// is the Begin group itself, an "END name" trailer, or the ";" closing
// the block. Headings are processed last-first so a nested declaration's
// block is wrapped (burying its Begin) before the enclosing heading
// searches for its own Begin.
func groupBlockGeneric(tl *TokenList, headingVariant, blockVariant Variant) {
	for i := len(tl.Children) - 1; i >= 0; i-- {
		if !isVariant(tl.Children[i], headingVariant) {
			continue
		}
		nidx, next := tl.TokenNext(i, true, true)
		if next == nil || !next.Match(Keyword, "IS", "AS") {
			continue
		}
		bidx, beginGrp := tl.TokenNextBy(nidx, []Variant{VBegin}, nil, nil)
		if beginGrp == nil {
			continue
		}
		end := bidx
		if nidx2, n2 := tl.TokenNext(end, true, false); n2 != nil && n2.TType() == Name {
			end = nidx2
		}
		if sidx, semi := tl.TokenNext(end, true, false); semi != nil && semi.Match(Punctuation, ";") {
			end = sidx
		}
		tl.GroupTokens(blockVariant, i, end, true, false)
	}
}

func groupProcedureBlock(stmt *TokenList) {
	recurseApply(stmt, []Variant{VProcedureBlock}, func(t *TokenList) {
		groupBlockGeneric(t, VProcedureHeading, VProcedureBlock)
	})
}

func groupFunctionBlock(stmt *TokenList) {
	recurseApply(stmt, []Variant{VFunctionBlock}, func(t *TokenList) {
		groupBlockGeneric(t, VFunctionHeading, VFunctionBlock)
	})
}

func groupDeclareSection(stmt *TokenList) {
	recurseApply(stmt, []Variant{VDeclareSection}, groupDeclareSectionOnce)
}

func groupDeclareSectionOnce(tl *TokenList) {
	if tl.Variant != VFunctionBlock && tl.Variant != VProcedureBlock {
		return
	}
	isIdx, isTok := tl.TokenNextBy(-1, nil, []MatchSpec{spec(Keyword, "IS", "AS")}, nil)
	if isTok == nil {
		return
	}
	bidx, beginGrp := tl.TokenNextBy(isIdx, []Variant{VBegin}, nil, nil)
	if beginGrp == nil {
		return
	}
	midIdx, mid := tl.TokenNext(isIdx, true, false)
	if mid == nil || isVariant(mid, VDeclareSection) || midIdx >= bidx {
		return
	}
	start, end := isIdx+1, bidx-1
	if end < start {
		return
	}
	ds := tl.GroupTokens(VDeclareSection, start, end, true, false)
	ds.GroupVariables()
}

func groupExceptions(stmt *TokenList) {
	recurseApply(stmt, []Variant{VExceptions}, groupExceptionsOnce)
}

func groupExceptionsOnce(tl *TokenList) {
	excIdx := -1
	i := 0
	for i < len(tl.Children) {
		c := tl.Children[i]
		switch {
		case c.Match(Keyword, "EXCEPTION"):
			excIdx = i
		case excIdx >= 0 && c.Match(Keyword, "END"):
			eidx, _ := tl.TokenPrev(i, true, true)
			if eidx >= excIdx {
				tl.GroupTokens(VExceptions, excIdx, eidx, true, false)
				i = excIdx + 1
				excIdx = -1
				continue
			}
		}
		i++
	}
}

func groupOpen(stmt *TokenList) {
	recurseApply(stmt, []Variant{VOpen}, func(t *TokenList) { groupBracketedGeneric(t, VOpen) })
}

package weft

import (
	"strings"

	"github.com/weftdb/weft/pkg/parse"
)

// Parse turns specification text into its IR, desugaring path and
// existential conditions into steps as it converts. The surface form of each
// condition is preserved alongside the steps for the canonical printer.
func Parse(text string) (*Specification, error) {
	ast, err := parse.Parse(text)
	if err != nil {
		return nil, &parseError{err}
	}
	return convertSpecification(ast)
}

// ParseSteps turns flat step description text (the persisted feed and rule
// format) into a step sequence.
func ParseSteps(text string) ([]Step, error) {
	ast, err := parse.ParseSteps(text)
	if err != nil {
		return nil, &parseError{err}
	}
	return convertStepList(ast)
}

func convertSpecification(ast *parse.Specification) (*Specification, error) {
	spec := &Specification{}
	sc := map[string]string{}
	for _, g := range ast.Givens {
		if _, ok := sc[g.Label]; ok {
			return nil, &duplicateLabel{g.Label}
		}
		sc[g.Label] = g.Type
		spec.Given = append(spec.Given, Label{Name: g.Label, Type: g.Type})
	}
	anchor := spec.Given[0]
	matches, last, err := convertMatches(ast.Matches, sc, anchor)
	if err != nil {
		return nil, err
	}
	spec.Matches = matches
	if ast.Projection != nil {
		proj, err := convertProjection(ast.Projection, sc, last)
		if err != nil {
			return nil, err
		}
		spec.Projection = proj
	}
	return spec, nil
}

// convertMatches converts a chain of matches. Each match anchors on the
// label bound immediately before it; the final label is returned so
// projections can chain onward from it.
func convertMatches(ms []*parse.Match, sc map[string]string, anchor Label) ([]Match, Label, error) {
	var out []Match
	for _, m := range ms {
		match, err := convertMatch(m, sc, anchor)
		if err != nil {
			return nil, Label{}, err
		}
		out = append(out, match)
		anchor = match.Unknown
	}
	return out, anchor, nil
}

func convertMatch(m *parse.Match, sc map[string]string, anchor Label) (Match, error) {
	if _, ok := sc[m.Label]; ok {
		return Match{}, &duplicateLabel{m.Label}
	}
	unknown := Label{Name: m.Label, Type: m.Type}
	sc[m.Label] = m.Type

	// cur is the fact the walk has reached so far; existential conditions
	// anchor on it, not on the match's final fact.
	cur := anchor
	var conds []MatchCondition
	var steps []Step
	seenPath := false
	for _, c := range m.Conditions {
		if c.Path != nil {
			if seenPath {
				return Match{}, &multiplePathConditions{m.Label}
			}
			seenPath = true
			cond, pathSteps, err := desugarPath(c.Path, unknown, anchor)
			if err != nil {
				return Match{}, err
			}
			conds = append(conds, cond)
			steps = append(steps, pathSteps...)
			cur = unknown
			continue
		}
		nestedScope := copyScope(sc)
		nestedMatches, _, err := convertMatches(c.Existential.Matches, nestedScope, cur)
		if err != nil {
			return Match{}, err
		}
		conds = append(conds, ExistentialClause{
			Negated: c.Existential.Negated,
			Matches: nestedMatches,
		})
		op := Exists
		if c.Existential.Negated {
			op = NotExists
		}
		steps = append(steps, ExistentialCondition{Operator: op, Steps: flattenSteps(nestedMatches)})
	}
	if !seenPath {
		return Match{}, &missingPathCondition{m.Label}
	}
	return Match{Unknown: unknown, Conditions: conds, Steps: steps}, nil
}

// desugarPath turns `unknownPath = anchorPath` into steps. The anchor side
// descends via predecessor joins; the unknown side, walked in reverse,
// ascends via successor joins. Each successor join lands on the fact typed
// by the previous segment's annotation, ending at the unknown itself.
func desugarPath(p *parse.PathCondition, unknown Label, anchor Label) (PathCondition, []Step, error) {
	cond := PathCondition{Left: convertPath(p.Left), Right: convertPath(p.Right)}
	var uSide, aSide PathExpression
	switch {
	case cond.Left.Label == unknown.Name:
		uSide, aSide = cond.Left, cond.Right
	case cond.Right.Label == unknown.Name:
		uSide, aSide = cond.Right, cond.Left
	default:
		return PathCondition{}, nil, &pathWithoutUnknown{unknown.Name}
	}
	if aSide.Label != anchor.Name {
		return PathCondition{}, nil, &badAnchor{Got: aSide.Label, Want: anchor.Name}
	}

	var steps []Step
	for _, seg := range aSide.Segments {
		steps = append(steps, Join{Direction: Predecessor, Role: seg.Role})
		if seg.Type != "" {
			steps = append(steps, PropertyCondition{Value: seg.Type})
		}
	}
	segs := uSide.Segments
	for i := len(segs) - 1; i >= 0; i-- {
		steps = append(steps, Join{Direction: Successor, Role: segs[i].Role})
		landing := unknown.Type
		if i > 0 {
			landing = segs[i-1].Type
		}
		if landing != "" {
			steps = append(steps, PropertyCondition{Value: landing})
		}
	}
	return cond, steps, nil
}

func convertPath(p *parse.Path) PathExpression {
	out := PathExpression{Label: p.Label}
	for _, seg := range p.Segments {
		out.Segments = append(out.Segments, PathSegment{Role: seg.Role, Type: seg.Type})
	}
	return out
}

func convertProjection(p *parse.Projection, sc map[string]string, anchor Label) (*Projection, error) {
	proj := &Projection{}
	seen := map[string]bool{}
	for _, e := range p.Entries {
		if seen[e.Name] {
			return nil, &duplicateProperty{e.Name}
		}
		seen[e.Name] = true
		if e.Spec == nil {
			if _, ok := sc[e.Ref]; !ok {
				return nil, &unknownLabel{e.Ref}
			}
			proj.Entries = append(proj.Entries, ProjectionEntry{Name: e.Name, Ref: e.Ref})
			continue
		}
		// Sibling branches get independent scopes: one branch's unknowns are
		// not visible to the next.
		nestedScope := copyScope(sc)
		nested := &Specification{Given: []Label{anchor}}
		matches, last, err := convertMatches(e.Spec.Matches, nestedScope, anchor)
		if err != nil {
			return nil, err
		}
		nested.Matches = matches
		if e.Spec.Projection != nil {
			nestedProj, err := convertProjection(e.Spec.Projection, nestedScope, last)
			if err != nil {
				return nil, err
			}
			nested.Projection = nestedProj
		}
		proj.Entries = append(proj.Entries, ProjectionEntry{Name: e.Name, Spec: nested})
	}
	return proj, nil
}

func flattenSteps(matches []Match) []Step {
	var out []Step
	for _, m := range matches {
		out = append(out, m.Steps...)
	}
	return out
}

func copyScope(sc map[string]string) map[string]string {
	out := make(map[string]string, len(sc))
	for k, v := range sc {
		out[k] = v
	}
	return out
}

func convertStepList(list *parse.StepList) ([]Step, error) {
	var out []Step
	for _, st := range list.Steps {
		switch {
		case st.Type != nil:
			out = append(out, PropertyCondition{Value: *st.Type})
		case st.Exists != nil:
			inner, err := convertStepList(st.Exists)
			if err != nil {
				return nil, err
			}
			out = append(out, ExistentialCondition{Operator: Exists, Steps: inner})
		case st.NotExists != nil:
			inner, err := convertStepList(st.NotExists)
			if err != nil {
				return nil, err
			}
			out = append(out, ExistentialCondition{Operator: NotExists, Steps: inner})
		case st.Join != nil:
			join, err := convertJoinText(st.Join)
			if err != nil {
				return nil, err
			}
			out = append(out, join)
		}
	}
	return out, nil
}

func convertJoinText(j *parse.JoinText) (Join, error) {
	dot := strings.Index(j.Path, ".")
	if dot < 0 {
		return Join{}, &malformedDescription{j.Path}
	}
	role := j.Path[dot+1:]
	if role == "" {
		return Join{}, &malformedDescription{j.Path}
	}
	switch j.Path[:dot] {
	case "P":
		return Join{Direction: Predecessor, Role: role, TargetType: j.Target}, nil
	case "S":
		return Join{Direction: Successor, Role: role, TargetType: j.Target}, nil
	}
	return Join{}, &malformedDescription{j.Path}
}

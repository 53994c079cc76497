package weft

// Label is a named, typed fact variable: a given or a match's unknown.
type Label struct {
	Name string
	Type string
}

// Specification is the parsed form of the specification language: typed
// starting points, a chain of matches, and an optional projection. It is
// immutable once parsed; feeds and SQL are derived from it, never written
// back into it.
type Specification struct {
	Given      []Label
	Matches    []Match
	Projection *Projection
}

// Match binds a new unknown to the fact reached by walking its steps from
// the previously bound label. Conditions hold the surface form as written
// (used by the canonical printer); Steps hold the desugared form the feed
// builder and SQL compiler consume. The two are built together by the parser
// and describe the same traversal.
type Match struct {
	Unknown    Label
	Conditions []MatchCondition
	Steps      []Step
}

// MatchCondition is a closed union over PathCondition and ExistentialClause.
type MatchCondition interface {
	matchCondition()
}

// PathCondition equates two paths, one descending from the match's unknown
// and one from its anchor. Left and Right preserve the source ordering.
type PathCondition struct {
	Left  PathExpression
	Right PathExpression
}

func (PathCondition) matchCondition() {}

// PathExpression descends from a label through predecessor roles.
type PathExpression struct {
	Label    string
	Segments []PathSegment
}

// PathSegment is one `->role: Type` hop; Type is empty when the annotation
// was omitted.
type PathSegment struct {
	Role string
	Type string
}

// ExistentialClause is the surface form of an existential condition: the
// nested matches as written, before flattening into steps.
type ExistentialClause struct {
	Negated bool
	Matches []Match
}

func (ExistentialClause) matchCondition() {}

// Projection maps property names to projected values. Entry order is
// source order and is preserved in feed enumeration.
type Projection struct {
	Entries []ProjectionEntry
}

// ProjectionEntry is either a hash reference to a bound label (Ref) or a
// nested specification (Spec); exactly one is set.
type ProjectionEntry struct {
	Name string
	Ref  string
	Spec *Specification
}

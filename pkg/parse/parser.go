package parse

import (
	"github.com/alecthomas/participle"
	"github.com/alecthomas/participle/lexer"
)

var (
	specLexer = lexer.Unquote(
		lexer.Must(
			lexer.Regexp(`(\s+)`+
				`|(?P<Ident>[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*)`+
				`|(?P<String>'[^']*'|"[^"]*")`+
				`|(?P<Operators>->|=>|[\[\](){}:,=#!])`,
			),
		),
		"String",
	)
	specParser = participle.MustBuild(&Specification{}, specLexer)
	stepParser = participle.MustBuild(&StepList{}, specLexer)
)

type Specification struct {
	Givens     []*Given    `"(" @@ { "," @@ } ")"`
	Matches    []*Match    `"{" { @@ } "}"`
	Projection *Projection `[ "=>" @@ ]`
}

type Given struct {
	Label string `@Ident ":"`
	Type  string `@Ident`
}

type Match struct {
	Label      string       `@Ident ":"`
	Type       string       `@Ident`
	Conditions []*Condition `"[" { @@ } "]"`
}

type Condition struct {
	Existential *Existential   `  @@`
	Path        *PathCondition `| @@`
}

// Both branches open with a required token; a leading optional would commit
// this alternative before anything is consumed, and a condition starting
// with any other identifier could never fall through to Path.
type Existential struct {
	Negated bool     `( @"!" "E" | "E" )`
	Matches []*Match `"{" { @@ } "}"`
}

type PathCondition struct {
	Left  *Path `@@ "="`
	Right *Path `@@`
}

type Path struct {
	Label    string     `@Ident`
	Segments []*Segment `{ @@ }`
}

type Segment struct {
	Role string `"->" @Ident`
	Type string `[ ":" @Ident ]`
}

type Projection struct {
	Entries []*ProjectionEntry `"{" { @@ } "}"`
}

type ProjectionEntry struct {
	Name string   `@Ident "="`
	Ref  string   `( "#" @Ident`
	Spec *SubSpec `| @@ )`
}

type SubSpec struct {
	Matches    []*Match    `"{" { @@ } "}"`
	Projection *Projection `[ "=>" @@ ]`
}

// StepList is the flat description format used for persisted feeds and rule
// sets: `P.role S.child F.type="My.Type" N(S.deleted F.type="My.Deleted")`.
// The lexer folds `P.role` into a single dotted identifier; Parse splits it
// back apart.
type StepList struct {
	Steps []*StepText `{ @@ }`
}

type StepText struct {
	Type      *string   `  "F.type" "=" @String`
	Exists    *StepList `| "E" "(" @@ ")"`
	NotExists *StepList `| "N" "(" @@ ")"`
	Join      *JoinText `| @@`
}

type JoinText struct {
	Path   string `@Ident`
	Target string `[ ":" @Ident ]`
}

// Parse parses specification text.
func Parse(text string) (*Specification, error) {
	result := &Specification{}
	err := specParser.ParseString(text, result)
	return result, err
}

// ParseSteps parses flat step description text.
func ParseSteps(text string) (*StepList, error) {
	result := &StepList{}
	err := stepParser.ParseString(text, result)
	return result, err
}

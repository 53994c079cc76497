package weft

import (
	"bytes"
	"fmt"
)

// Direction says which way a join walks an edge.
type Direction int

const (
	Predecessor Direction = iota
	Successor
)

func (d Direction) String() string {
	if d == Predecessor {
		return "P"
	}
	return "S"
}

// Step is a closed union over Join, PropertyCondition, and
// ExistentialCondition. Every traversal switches exhaustively over these
// three; there is no fourth kind.
type Step interface {
	step()
	describe(buf *bytes.Buffer)
}

// Join follows the edge labeled Role from the current fact to its successor
// or predecessor. TargetType pins the landing fact's type inline; when it is
// empty, the landing type comes from a following PropertyCondition.
type Join struct {
	Direction  Direction
	Role       string
	TargetType string
}

func (Join) step() {}

func (j Join) describe(buf *bytes.Buffer) {
	buf.WriteString(j.Direction.String())
	buf.WriteByte('.')
	buf.WriteString(j.Role)
	if j.TargetType != "" {
		buf.WriteByte(':')
		buf.WriteString(j.TargetType)
	}
}

// PropertyCondition asserts the type of the fact most recently reached. The
// fact type is the only property the store indexes, so there is no property
// name field.
type PropertyCondition struct {
	Value string
}

func (PropertyCondition) step() {}

func (p PropertyCondition) describe(buf *bytes.Buffer) {
	fmt.Fprintf(buf, `F.type=%#v`, p.Value)
}

// Operator distinguishes positive from negative existential conditions.
type Operator int

const (
	Exists Operator = iota
	NotExists
)

// ExistentialCondition asserts that the fact reached immediately before the
// condition can (Exists) or cannot (NotExists) reach a witness via Steps.
type ExistentialCondition struct {
	Operator Operator
	Steps    []Step
}

func (ExistentialCondition) step() {}

func (e ExistentialCondition) describe(buf *bytes.Buffer) {
	if e.Operator == Exists {
		buf.WriteString("E(")
	} else {
		buf.WriteString("N(")
	}
	describeInto(buf, e.Steps)
	buf.WriteByte(')')
}

// DescribeSteps renders a step sequence in the flat description format used
// for persisted feed and rule descriptions: `P.role`, `S.role`,
// `S.role:Type`, `F.type="Type"`, `E(...)`, `N(...)`, space-separated.
// ParseSteps inverts it.
func DescribeSteps(steps []Step) string {
	buf := bytes.NewBufferString("")
	describeInto(buf, steps)
	return buf.String()
}

func describeInto(buf *bytes.Buffer, steps []Step) {
	for idx, step := range steps {
		if idx > 0 {
			buf.WriteByte(' ')
		}
		step.describe(buf)
	}
}

// appendStep extends a step sequence without aliasing the original backing
// array. Feed construction shares prefixes freely, so plain append would let
// sibling feeds overwrite each other's tails.
func appendStep(steps []Step, step Step) []Step {
	next := make([]Step, len(steps)+1)
	copy(next, steps)
	next[len(steps)] = step
	return next
}

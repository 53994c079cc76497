package weft

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/weftdb/weft/pkg/util"
)

// Format prints the specification back in its grammar with normalized
// spacing: `label: Type`, one condition per line, 4-space indentation.
// Parsing the output yields the same IR, so the printed form is stable
// under reparsing. This text is a depended-upon contract: persisted rule
// descriptions are stored in it.
func (s *Specification) Format() string {
	ib := util.NewIndentBuffer("    ")
	formatSpec(ib, s, formatGiven(s.Given)+" ")
	return strings.TrimSuffix(ib.String(), "\n")
}

func formatGiven(given []Label) string {
	buf := bytes.NewBufferString("(")
	for idx, g := range given {
		if idx > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(buf, "%s: %s", g.Name, g.Type)
	}
	buf.WriteString(")")
	return buf.String()
}

// formatSpec prints head, then the match block, then the projection if one
// is present. head is either the given list (top level) or `name = `
// (nested projection entry), and already ends with a space.
func formatSpec(ib *util.IndentBuffer, s *Specification, head string) {
	if len(s.Matches) == 0 {
		if s.Projection == nil {
			ib.Printlnf("%s{}", head)
			return
		}
		ib.Printlnf("%s{} => {", head)
	} else {
		ib.Printlnf("%s{", head)
		ib.Indent()
		for _, m := range s.Matches {
			formatMatch(ib, m)
		}
		ib.Dedent()
		if s.Projection == nil {
			ib.Printlnf("}")
			return
		}
		ib.Printlnf("} => {")
	}
	ib.Indent()
	for _, e := range s.Projection.Entries {
		if e.Spec != nil {
			formatSpec(ib, e.Spec, e.Name+" = ")
		} else {
			ib.Printlnf("%s = #%s", e.Name, e.Ref)
		}
	}
	ib.Dedent()
	ib.Printlnf("}")
}

func formatMatch(ib *util.IndentBuffer, m Match) {
	if len(m.Conditions) == 0 {
		ib.Printlnf("%s: %s []", m.Unknown.Name, m.Unknown.Type)
		return
	}
	ib.Printlnf("%s: %s [", m.Unknown.Name, m.Unknown.Type)
	ib.Indent()
	for _, c := range m.Conditions {
		switch c := c.(type) {
		case PathCondition:
			ib.Printlnf("%s = %s", formatPath(c.Left), formatPath(c.Right))
		case ExistentialClause:
			neg := ""
			if c.Negated {
				neg = "!"
			}
			ib.Printlnf("%sE {", neg)
			ib.Indent()
			for _, nested := range c.Matches {
				formatMatch(ib, nested)
			}
			ib.Dedent()
			ib.Printlnf("}")
		}
	}
	ib.Dedent()
	ib.Printlnf("]")
}

func formatPath(p PathExpression) string {
	buf := bytes.NewBufferString(p.Label)
	for _, seg := range p.Segments {
		buf.WriteString("->")
		buf.WriteString(seg.Role)
		if seg.Type != "" {
			buf.WriteString(": ")
			buf.WriteString(seg.Type)
		}
	}
	return buf.String()
}

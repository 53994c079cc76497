package weft

import (
	"bytes"
	"fmt"
	"strings"
)

// FactReference identifies a fact by type and content hash. The hash comes
// from the hashing collaborator and is stable for identical canonical
// content; this package never computes or validates one.
type FactReference struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
}

const schemaName = "public"

// SqlQuery is one compiled feed query. All literal values are positional
// parameters, ordered: type id of the start, hash of the start, then each
// role id in the order its join was compiled. When Empty is set the feed is
// known at compile time to match no rows: there is no SQL body, and callers
// must skip execution rather than treat it as a failure.
type SqlQuery struct {
	Sql        string
	Parameters []interface{}
	PathLength int
	Empty      bool
}

// SqlFromSteps compiles a flat step sequence, starting at start, into one
// parameterized SQL statement against the fact/edge schema. It returns
// (nil, nil) only for an empty step list (an identity specification, nothing
// to compile). Unknown types and roles collapse to Empty per the rules in
// the package documentation; a role referenced before its anchor's type has
// been established is a fatal missing-type error.
func SqlFromSteps(start FactReference, steps []Step, types TypeMap, roles RoleMap) (*SqlQuery, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	typeID, ok := types.FactTypeID(start.Type)
	if !ok {
		return &SqlQuery{Empty: true}, nil
	}
	b := &sqlBuilder{
		types:    types,
		roles:    roles,
		nextEdge: 1,
		nextFact: 2,
		params:   []interface{}{typeID, start.Hash},
	}
	frame := &sqlFrame{}
	state := walkState{anchor: "f1.fact_id", typeName: start.Type, materialized: true}
	state, empty, err := b.walk(state, steps, frame)
	if err != nil {
		return nil, err
	}
	if empty {
		return &SqlQuery{Empty: true}, nil
	}
	if state.pending != nil {
		return nil, &missingType{Type: state.pending.fromType, Role: state.pending.role}
	}
	// The final fact is the unknown being bound; it must be selectable even
	// when the last join pinned its type inline.
	if !state.materialized {
		b.materialize(&state, frame)
	}

	buf := bytes.NewBufferString("SELECT ")
	if len(b.hashes) == 0 {
		buf.WriteString("1")
	} else {
		buf.WriteString(strings.Join(b.hashes, ", "))
	}
	fmt.Fprintf(buf, " FROM %s.fact f1", schemaName)
	for _, j := range frame.joins {
		buf.WriteByte(' ')
		buf.WriteString(j)
	}
	buf.WriteString(" WHERE f1.fact_type_id = $1 AND f1.hash = $2")
	for _, c := range frame.clauses {
		buf.WriteString(" AND ")
		buf.WriteString(c)
	}
	return &SqlQuery{
		Sql:        buf.String(),
		Parameters: b.params,
		PathLength: b.pathLength,
	}, nil
}

type sqlBuilder struct {
	types TypeMap
	roles RoleMap

	nextEdge   int
	nextFact   int
	params     []interface{}
	hashes     []string
	pathLength int
}

// walkState is the state machine threaded through the step fold. anchor is
// the SQL expression for the current fact's id (a fact alias column or a
// shared edge endpoint); typeName is the pinned type of the current fact, ""
// when not yet established; pending is a successor join's role parameter
// waiting for the landing type; materialized says whether the current fact
// has its own fact alias. provType/provRole name the segment through which
// an unpinned fact was reached, for missing-type errors.
type walkState struct {
	anchor       string
	typeName     string
	materialized bool
	pending      *pendingRole
	provType     string
	provRole     string
}

type pendingRole struct {
	slot     int
	role     string
	fromType string
}

// sqlFrame collects the clauses of one query level: the top-level statement
// or one existential subquery.
type sqlFrame struct {
	sub      bool
	fromEdge string   // subquery only: the first edge, placed in FROM
	where    []string // subquery only: that edge's anchor and role conditions
	joins    []string
	clauses  []string // rendered existential clauses, in source order
}

func (b *sqlBuilder) walk(state walkState, steps []Step, frame *sqlFrame) (walkState, bool, error) {
	for _, step := range steps {
		switch step := step.(type) {
		case Join:
			next, empty, err := b.join(state, step, frame)
			if err != nil || empty {
				return next, empty, err
			}
			state = next
		case PropertyCondition:
			next, empty := b.propertyCondition(state, step, frame)
			if empty {
				return next, true, nil
			}
			state = next
		case ExistentialCondition:
			empty, err := b.existential(state, step, frame)
			if err != nil {
				return state, false, err
			}
			if empty {
				return state, true, nil
			}
		}
	}
	return state, false, nil
}

func (b *sqlBuilder) join(state walkState, j Join, frame *sqlFrame) (walkState, bool, error) {
	if state.pending != nil {
		return state, false, &missingType{Type: state.pending.fromType, Role: state.pending.role}
	}
	edge := fmt.Sprintf("e%d", b.nextEdge)
	b.nextEdge++
	slot := b.reserveParam()

	var anchorCond, far string
	if j.Direction == Successor {
		anchorCond = fmt.Sprintf("%s.predecessor_fact_id = %s", edge, state.anchor)
		far = edge + ".successor_fact_id"
	} else {
		anchorCond = fmt.Sprintf("%s.successor_fact_id = %s", edge, state.anchor)
		far = edge + ".predecessor_fact_id"
	}
	roleCond := fmt.Sprintf("%s.role_id = $%d", edge, slot)

	next := walkState{anchor: far}
	switch {
	case j.Direction == Predecessor:
		// The role is declared on the fact being left.
		if state.typeName == "" {
			return state, false, &missingType{Type: state.provType, Role: state.provRole}
		}
		id, ok := b.roleID(state.typeName, j.Role)
		if !ok {
			return state, true, nil
		}
		b.params[slot-1] = id
		next.typeName = j.TargetType
	case j.TargetType != "":
		// Successor join with an inline landing type: the role is declared
		// on the landing fact. No fact alias is needed; the next join can
		// pivot on this edge's shared endpoint.
		id, ok := b.roleID(j.TargetType, j.Role)
		if !ok {
			return state, true, nil
		}
		b.params[slot-1] = id
		next.typeName = j.TargetType
	default:
		// Successor join waiting for a following type condition to close
		// out the role.
		next.pending = &pendingRole{slot: slot, role: j.Role, fromType: state.typeName}
	}
	if next.typeName == "" {
		next.provType = state.typeName
		next.provRole = j.Role
	}
	b.addEdge(frame, edge, anchorCond, roleCond)
	return next, false, nil
}

func (b *sqlBuilder) propertyCondition(state walkState, p PropertyCondition, frame *sqlFrame) (walkState, bool) {
	if state.pending != nil {
		id, ok := b.roleID(p.Value, state.pending.role)
		if !ok {
			return state, true
		}
		b.params[state.pending.slot-1] = id
		state.pending = nil
	} else if _, ok := b.types.FactTypeID(p.Value); !ok {
		return state, true
	}
	state.typeName = p.Value
	state.provType, state.provRole = "", ""
	if !frame.sub && !state.materialized {
		b.materialize(&state, frame)
	}
	return state, false
}

func (b *sqlBuilder) existential(state walkState, ex ExistentialCondition, frame *sqlFrame) (bool, error) {
	snap := b.snapshot()
	subFrame := &sqlFrame{sub: true}
	subState := walkState{
		anchor:       state.anchor,
		typeName:     state.typeName,
		materialized: true,
		provType:     state.provType,
		provRole:     state.provRole,
	}
	end, subEmpty, err := b.walk(subState, ex.Steps, subFrame)
	if err != nil {
		return false, err
	}
	if !subEmpty && end.pending != nil {
		return false, &missingType{Type: end.pending.fromType, Role: end.pending.role}
	}
	if subEmpty {
		b.restore(snap)
		if ex.Operator == Exists {
			// A witness that can never exist can never satisfy a positive
			// existence requirement: the whole feed is empty.
			return true, nil
		}
		// NOT EXISTS over a witness that can never exist is trivially
		// satisfied: elide the clause entirely.
		return false, nil
	}
	frame.clauses = append(frame.clauses, renderSub(ex.Operator, subFrame))
	return false, nil
}

func (b *sqlBuilder) materialize(state *walkState, frame *sqlFrame) {
	fact := fmt.Sprintf("f%d", b.nextFact)
	frame.joins = append(frame.joins, fmt.Sprintf(
		"JOIN %s.fact %s ON %s.fact_id = %s", schemaName, fact, fact, state.anchor,
	))
	b.hashes = append(b.hashes, fmt.Sprintf("%s.hash as hash%d", fact, b.nextFact))
	b.nextFact++
	b.pathLength++
	state.anchor = fact + ".fact_id"
	state.materialized = true
}

func (b *sqlBuilder) addEdge(frame *sqlFrame, edge, anchorCond, roleCond string) {
	if frame.sub && frame.fromEdge == "" {
		frame.fromEdge = edge
		frame.where = []string{anchorCond, roleCond}
		return
	}
	frame.joins = append(frame.joins, fmt.Sprintf(
		"JOIN %s.edge %s ON %s AND %s", schemaName, edge, anchorCond, roleCond,
	))
}

func renderSub(op Operator, frame *sqlFrame) string {
	buf := bytes.NewBufferString("")
	if op == Exists {
		buf.WriteString("EXISTS (SELECT 1")
	} else {
		buf.WriteString("NOT EXISTS (SELECT 1")
	}
	if frame.fromEdge != "" {
		fmt.Fprintf(buf, " FROM %s.edge %s", schemaName, frame.fromEdge)
		for _, j := range frame.joins {
			buf.WriteByte(' ')
			buf.WriteString(j)
		}
	}
	conds := append(append([]string{}, frame.where...), frame.clauses...)
	if len(conds) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(conds, " AND "))
	}
	buf.WriteByte(')')
	return buf.String()
}

func (b *sqlBuilder) roleID(typeName, role string) (int, bool) {
	tid, ok := b.types.FactTypeID(typeName)
	if !ok {
		return 0, false
	}
	return b.roles.RoleID(tid, role)
}

func (b *sqlBuilder) reserveParam() int {
	b.params = append(b.params, nil)
	return len(b.params)
}

type builderSnapshot struct {
	nextEdge int
	nextFact int
	nParams  int
}

func (b *sqlBuilder) snapshot() builderSnapshot {
	return builderSnapshot{nextEdge: b.nextEdge, nextFact: b.nextFact, nParams: len(b.params)}
}

// restore backs out the aliases and parameter slots of an elided subquery so
// the surviving clauses stay densely numbered.
func (b *sqlBuilder) restore(snap builderSnapshot) {
	b.nextEdge = snap.nextEdge
	b.nextFact = snap.nextFact
	b.params = b.params[:snap.nParams]
}

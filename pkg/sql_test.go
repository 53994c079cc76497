package weft

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/weftdb/weft/pkg/util"
)

// testRegistries interns a small blog schema. Type ids follow first-seen
// order: Site=1, Post=2, Comment=3, Deleted=4, Restored=5, Author=6. Role
// ids likewise: Post.site=1, Comment.post=2, Comment.author=3,
// Deleted.post=4, Restored.deleted=5.
func testRegistries() (TypeMap, RoleMap) {
	types := NewTypeMap()
	roles := NewRoleMap()
	declare := func(name string, rs ...string) {
		var id int
		types, id = types.WithFactType(name)
		for _, r := range rs {
			roles, _ = roles.WithRole(id, r)
		}
	}
	declare("Site")
	declare("Post", "site")
	declare("Comment", "post", "author")
	declare("Deleted", "post")
	declare("Restored", "deleted")
	declare("Author")
	return types, roles
}

func TestSqlFromSteps(t *testing.T) {
	types, roles := testRegistries()

	cases := []struct {
		startType  string
		steps      string
		sql        string
		params     []interface{}
		pathLength int
		empty      bool
		err        string
	}{
		// Successor join with an inline type: the final fact still gets an
		// alias so its hash is selectable.
		{
			startType:  "Site",
			steps:      `S.site:Post`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
			params:     []interface{}{1, "abc", 1},
			pathLength: 1,
		},
		// Trailing type condition compiles to the same query.
		{
			startType:  "Site",
			steps:      `S.site F.type="Post"`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
			params:     []interface{}{1, "abc", 1},
			pathLength: 1,
		},
		// The inline-typed intermediate fact is never materialized; the
		// second edge pivots directly on the first edge's endpoint.
		{
			startType:  "Site",
			steps:      `S.site:Post S.post F.type="Comment"`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.edge e2 ON e2.predecessor_fact_id = e1.successor_fact_id AND e2.role_id = $4 JOIN public.fact f2 ON f2.fact_id = e2.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
			params:     []interface{}{1, "abc", 1, 2},
			pathLength: 1,
		},
		// Predecessor walk materializes each typed hop.
		{
			startType:  "Comment",
			steps:      `P.post F.type="Post" P.site F.type="Site"`,
			sql:        `SELECT f2.hash as hash2, f3.hash as hash3 FROM public.fact f1 JOIN public.edge e1 ON e1.successor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.predecessor_fact_id JOIN public.edge e2 ON e2.successor_fact_id = f2.fact_id AND e2.role_id = $4 JOIN public.fact f3 ON f3.fact_id = e2.predecessor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
			params:     []interface{}{3, "abc", 2, 1},
			pathLength: 2,
		},
		{
			startType:  "Site",
			steps:      `S.site:Post N(S.post:Deleted)`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2 AND NOT EXISTS (SELECT 1 FROM public.edge e2 WHERE e2.predecessor_fact_id = e1.successor_fact_id AND e2.role_id = $4)`,
			params:     []interface{}{1, "abc", 1, 4},
			pathLength: 1,
		},
		{
			startType:  "Site",
			steps:      `S.site:Post E(S.post:Deleted)`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2 AND EXISTS (SELECT 1 FROM public.edge e2 WHERE e2.predecessor_fact_id = e1.successor_fact_id AND e2.role_id = $4)`,
			params:     []interface{}{1, "abc", 1, 4},
			pathLength: 1,
		},
		// Nested existentials render as nested subqueries; aliases and
		// parameters keep counting across levels.
		{
			startType:  "Site",
			steps:      `S.site:Post N(S.post:Deleted N(S.deleted:Restored))`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2 AND NOT EXISTS (SELECT 1 FROM public.edge e2 WHERE e2.predecessor_fact_id = e1.successor_fact_id AND e2.role_id = $4 AND NOT EXISTS (SELECT 1 FROM public.edge e3 WHERE e3.predecessor_fact_id = e2.successor_fact_id AND e3.role_id = $5))`,
			params:     []interface{}{1, "abc", 1, 4, 5},
			pathLength: 1,
		},
		// A multi-edge subquery puts its first edge in FROM and the rest in
		// JOINs; subqueries never materialize fact aliases.
		{
			startType:  "Site",
			steps:      `S.site:Post S.post:Comment P.author F.type="Author" N(S.site:Post)`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.edge e2 ON e2.predecessor_fact_id = e1.successor_fact_id AND e2.role_id = $4 JOIN public.edge e3 ON e3.successor_fact_id = e2.successor_fact_id AND e3.role_id = $5 JOIN public.fact f2 ON f2.fact_id = e3.predecessor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2 AND NOT EXISTS (SELECT 1 FROM public.edge e4 WHERE e4.predecessor_fact_id = f2.fact_id AND e4.role_id = $6)`,
			params:     []interface{}{1, "abc", 1, 2, 3, 1},
			pathLength: 1,
		},
		// Zig-zag: the direction change at the second join pivots on the
		// first edge's shared endpoint; only the typed landings at the type
		// conditions become fact aliases.
		{
			startType:  "Site",
			steps:      `S.site:Post P.site F.type="Site" S.site:Post S.post F.type="Comment"`,
			sql:        `SELECT f2.hash as hash2, f3.hash as hash3 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.edge e2 ON e2.successor_fact_id = e1.successor_fact_id AND e2.role_id = $4 JOIN public.fact f2 ON f2.fact_id = e2.predecessor_fact_id JOIN public.edge e3 ON e3.predecessor_fact_id = f2.fact_id AND e3.role_id = $5 JOIN public.edge e4 ON e4.predecessor_fact_id = e3.successor_fact_id AND e4.role_id = $6 JOIN public.fact f3 ON f3.fact_id = e4.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
			params:     []interface{}{1, "abc", 1, 1, 1, 2},
			pathLength: 2,
		},
		// Unknown start type.
		{
			startType: "Nope",
			steps:     `S.site:Post`,
			empty:     true,
		},
		// Unknown role.
		{
			startType: "Site",
			steps:     `S.site:Post S.nope:Comment`,
			empty:     true,
		},
		// A negative existential over an impossible witness is trivially
		// satisfied; the clause and its reserved parameter are backed out.
		{
			startType:  "Site",
			steps:      `S.site:Post N(S.nope:Comment)`,
			sql:        `SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
			params:     []interface{}{1, "abc", 1},
			pathLength: 1,
		},
		// A positive existential over an impossible witness empties the feed.
		{
			startType: "Site",
			steps:     `S.site:Post E(S.nope:Comment)`,
			empty:     true,
		},
		{
			startType: "Comment",
			steps:     `P.post P.site`,
			err:       "missing type of Comment.post",
		},
		{
			startType: "Site",
			steps:     `S.site`,
			err:       "missing type of Site.site",
		},
	}

	for idx, testCase := range cases {
		t.Run(fmt.Sprintf("case_%d", idx), func(t *testing.T) {
			steps, err := ParseSteps(testCase.steps)
			if err != nil {
				t.Fatalf("case %d: parse error: %v", idx, err)
			}
			start := FactReference{Type: testCase.startType, Hash: "abc"}
			query, err := SqlFromSteps(start, steps, types, roles)
			if util.AssertError(t, idx, testCase.err, err) {
				return
			}
			if query.Empty != testCase.empty {
				t.Fatalf("case %d: expected empty=%v; got %v", idx, testCase.empty, query.Empty)
			}
			if testCase.empty {
				return
			}
			if query.Sql != testCase.sql {
				t.Fatalf("STEPS:\n\n%s\n\nEXPECTED:\n\n%s\n\nGOT:\n\n%s\n\n", testCase.steps, testCase.sql, query.Sql)
			}
			if !reflect.DeepEqual(query.Parameters, testCase.params) {
				t.Fatalf("case %d: expected params %v; got %v", idx, testCase.params, query.Parameters)
			}
			if query.PathLength != testCase.pathLength {
				t.Fatalf("case %d: expected path length %d; got %d", idx, testCase.pathLength, query.PathLength)
			}
		})
	}
}

func TestSqlFromStepsNoSteps(t *testing.T) {
	types, roles := testRegistries()
	query, err := SqlFromSteps(FactReference{Type: "Site", Hash: "abc"}, nil, types, roles)
	if err != nil {
		t.Fatal(err)
	}
	if query != nil {
		t.Fatalf("expected no query for an empty step list; got %#v", query)
	}
}

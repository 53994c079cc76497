package weft

import (
	"testing"

	"github.com/weftdb/weft/pkg/util"
)

func TestDescribeSteps(t *testing.T) {
	steps := []Step{
		Join{Direction: Successor, Role: "site", TargetType: "Post"},
		Join{Direction: Predecessor, Role: "author"},
		PropertyCondition{Value: "Author"},
		ExistentialCondition{
			Operator: NotExists,
			Steps: []Step{
				Join{Direction: Successor, Role: "post"},
				PropertyCondition{Value: "Deleted"},
			},
		},
	}
	expected := `S.site:Post P.author F.type="Author" N(S.post F.type="Deleted")`
	if described := DescribeSteps(steps); described != expected {
		t.Fatalf("expected %#v; got %#v", expected, described)
	}
}

func TestParseStepsRoundTrip(t *testing.T) {
	cases := []struct {
		in  string
		err string
	}{
		{`P.post`, ""},
		{`S.site:Post`, ""},
		{`F.type="Post"`, ""},
		{`S.site F.type="Post" S.post F.type="Comment"`, ""},
		{`S.site F.type="Post" N(S.post F.type="Deleted")`, ""},
		{`S.site:Post E(S.post:Published N(S.published:Retracted))`, ""},
		{`X.foo`, "malformed step description: X.foo"},
		{`post`, "malformed step description: post"},
	}

	for idx, testCase := range cases {
		steps, err := ParseSteps(testCase.in)
		if util.AssertError(t, idx, testCase.err, err) {
			continue
		}
		if described := DescribeSteps(steps); described != testCase.in {
			t.Fatalf("case %d: expected %#v; got %#v", idx, testCase.in, described)
		}
	}
}

func TestAppendStep(t *testing.T) {
	prefix := appendStep(nil, Join{Direction: Successor, Role: "site"})
	a := appendStep(prefix, PropertyCondition{Value: "Post"})
	b := appendStep(prefix, PropertyCondition{Value: "Comment"})
	if described := DescribeSteps(a); described != `S.site F.type="Post"` {
		t.Fatalf("unexpected steps: %s", described)
	}
	if described := DescribeSteps(b); described != `S.site F.type="Comment"` {
		t.Fatalf("shared prefix was clobbered: %s", described)
	}
}

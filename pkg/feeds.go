package weft

import "fmt"

// Feed is a flattened, projection-free specification: one given and a flat
// step sequence, directly compilable to one SQL statement. It is the unit of
// SQL compilation and of incremental bookmarking.
type Feed struct {
	Given Label
	Steps []Step
}

// Describe renders the feed's stable textual identity.
func (f Feed) Describe() string {
	return fmt.Sprintf("(%s: %s) %s", f.Given.Name, f.Given.Type, DescribeSteps(f.Steps))
}

// BuildFeeds decomposes a specification into the ordered list of flat feeds
// sufficient to drive incremental re-evaluation. It walks the projection
// tree depth-first, carrying a cumulative step prefix from the root; it is
// total over well-formed IR and never fails.
func BuildFeeds(spec *Specification) []Feed {
	if len(spec.Given) == 0 {
		return nil
	}
	var out []Feed
	buildFeeds(spec, spec.Given[0], nil, &out)
	return out
}

func buildFeeds(spec *Specification, given Label, prefix []Step, out *[]Feed) {
	cumulative := prefix
	for _, m := range spec.Matches {
		for _, step := range m.Steps {
			// Each existential condition contributes a witness feed before
			// the match's own feed: creation or retraction of the witnessing
			// facts must trigger re-evaluation of the parent.
			if ex, ok := step.(ExistentialCondition); ok {
				witnessFeeds(given, cumulative, ex, out)
			}
			cumulative = appendStep(cumulative, step)
		}
	}
	if len(spec.Matches) > 0 {
		*out = append(*out, Feed{Given: given, Steps: cumulative})
	}
	if spec.Projection == nil {
		return
	}
	// Sibling entries each start from the same cumulative prefix; they do
	// not see each other's steps.
	for _, e := range spec.Projection.Entries {
		if e.Spec != nil {
			buildFeeds(e.Spec, given, cumulative, out)
		}
	}
}

// witnessFeeds emits the feed that watches an existential condition's
// witnessing facts: the prefix plus the condition's steps with the wrapper
// dropped. Existentials nested inside the condition contribute their own
// witness feeds first, through this same procedure.
func witnessFeeds(given Label, prefix []Step, ex ExistentialCondition, out *[]Feed) {
	steps := prefix
	for _, step := range ex.Steps {
		if inner, ok := step.(ExistentialCondition); ok {
			witnessFeeds(given, steps, inner, out)
		}
		steps = appendStep(steps, step)
	}
	*out = append(*out, Feed{Given: given, Steps: steps})
}

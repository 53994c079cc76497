package weft

import (
	"testing"
)

func TestServerCompile(t *testing.T) {
	tsr := runSimpleTestScript(t, []simpleTestCase{
		// Declare the blog schema.
		{factType: "Site"},
		{factType: "Post", roles: []string{"site"}},
		{factType: "Comment", roles: []string{"post", "author"}},
		{factType: "Deleted", roles: []string{"post"}},
		{
			spec:  `(site: Site) { post: Post [ post->site: Site = site ] }`,
			start: &FactReference{Type: "Site", Hash: "abc"},
			sql: []string{
				`SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
			},
		},
		// An existential compiles to a witness feed followed by the guarded
		// feed.
		{
			spec: `(site: Site) {
				post: Post [
					post->site: Site = site
					!E {
						deleted: Deleted [ deleted->post: Post = post ]
					}
				]
			}`,
			start: &FactReference{Type: "Site", Hash: "abc"},
			sql: []string{
				`SELECT f2.hash as hash2, f3.hash as hash3 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id JOIN public.edge e2 ON e2.predecessor_fact_id = f2.fact_id AND e2.role_id = $4 JOIN public.fact f3 ON f3.fact_id = e2.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2`,
				`SELECT f2.hash as hash2 FROM public.fact f1 JOIN public.edge e1 ON e1.predecessor_fact_id = f1.fact_id AND e1.role_id = $3 JOIN public.fact f2 ON f2.fact_id = e1.successor_fact_id WHERE f1.fact_type_id = $1 AND f1.hash = $2 AND NOT EXISTS (SELECT 1 FROM public.edge e2 WHERE e2.predecessor_fact_id = f2.fact_id AND e2.role_id = $4)`,
			},
		},
		{
			spec:  `(site: Site) { post: Post [ post->site: Site = site ] }`,
			start: &FactReference{Type: "Post", Hash: "abc"},
			error: "specification given is Site but start reference is Post",
		},
		// An unannotated intermediate hop leaves a role with no declaring
		// type.
		{
			spec:  `(site: Site) { comment: Comment [ comment->post->site = site ] }`,
			start: &FactReference{Type: "Site", Hash: "abc"},
			error: "missing type of Site.site",
		},
	})
	defer tsr.Close()

	// Feed ids returned by compilation drive the bookmark API.
	feeds, err := tsr.client.Feeds(
		`(site: Site) { post: Post [ post->site: Site = site ] }`,
		FactReference{Type: "Site", Hash: "abc"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(feeds) != 1 {
		t.Fatalf("expected 1 feed; got %d", len(feeds))
	}
	feedID := feeds[0].FeedID

	bookmark, err := tsr.client.Bookmark(feedID)
	if err != nil {
		t.Fatal(err)
	}
	if bookmark != "" {
		t.Fatalf(`expected zero bookmark; got "%s"`, bookmark)
	}

	if err := tsr.client.SetBookmark(feedID, "42"); err != nil {
		t.Fatal(err)
	}
	bookmark, err = tsr.client.Bookmark(feedID)
	if err != nil {
		t.Fatal(err)
	}
	if bookmark != "42" {
		t.Fatalf(`expected bookmark "42"; got "%s"`, bookmark)
	}

	if _, err := tsr.client.Bookmark("nope"); err == nil || err.Error() != "unknown feed: nope" {
		t.Fatalf("expected unknown feed error; got %v", err)
	}
}

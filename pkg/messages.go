package weft

// Request is one message from a client. Action selects the operation;
// the other fields are read per-action. An empty ID is assigned by the
// server so every response can be correlated.
type Request struct {
	ID     string `json:"id"`
	Action string `json:"action"`

	// declare
	FactType string   `json:"factType,omitempty"`
	Roles    []string `json:"roles,omitempty"`

	// feeds
	Specification string         `json:"specification,omitempty"`
	Start         *FactReference `json:"start,omitempty"`

	// bookmark / set_bookmark
	FeedID   string `json:"feedId,omitempty"`
	Bookmark string `json:"bookmark,omitempty"`
}

const (
	actionDeclare     = "declare"
	actionFeeds       = "feeds"
	actionBookmark    = "bookmark"
	actionSetBookmark = "set_bookmark"
)

type Response struct {
	ID       string       `json:"id"`
	Error    string       `json:"error,omitempty"`
	Ack      string       `json:"ack,omitempty"`
	Feeds    []FeedResult `json:"feeds,omitempty"`
	Bookmark string       `json:"bookmark,omitempty"`
}

// FeedResult is one compiled feed as sent to the client. An Empty feed has
// no SQL body; the client must skip it rather than execute anything.
type FeedResult struct {
	FeedID      string        `json:"feedId"`
	Description string        `json:"description"`
	Sql         string        `json:"sql,omitempty"`
	Parameters  []interface{} `json:"parameters,omitempty"`
	PathLength  int           `json:"pathLength"`
	Empty       bool          `json:"empty,omitempty"`
}

package weft

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/weftdb/weft/pkg/util"
)

func NewTestServer() (*Server, *Client, string, error) {
	dir, err := ioutil.TempDir("", "")
	if err != nil {
		return nil, nil, "", err
	}

	port := freeport.GetPort()

	server := NewServer(dir+"/test.data", "localhost", port)
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	// The listener comes up on the serve goroutine; retry the dial until it
	// accepts.
	url := fmt.Sprintf("ws://localhost:%d/ws", port)
	var client *Client
	for attempt := 0; ; attempt++ {
		client, err = NewClient(url)
		if err == nil {
			break
		}
		if attempt == 49 {
			return nil, nil, "", err
		}
		time.Sleep(10 * time.Millisecond)
	}

	return server, client, dir, nil
}

// Each case either declares a type (factType + roles) or compiles a
// specification (spec + start) and checks the feeds' SQL in order.
type simpleTestCase struct {
	factType string
	roles    []string

	spec  string
	start *FactReference

	error string
	sql   []string
}

type testServerRef struct {
	server *Server
	client *Client
	dir    string
}

func (tsr *testServerRef) Close() {
	tsr.server.Close()
	tsr.client.Close()
	os.RemoveAll(tsr.dir)
}

// runSimpleTestScript spins up a test server and runs requests on it,
// checking each result.
func runSimpleTestScript(t *testing.T, cases []simpleTestCase) *testServerRef {
	server, client, dir, err := NewTestServer()
	if err != nil {
		t.Fatal(err)
	}

	for idx, testCase := range cases {
		// Declare a type.
		if testCase.factType != "" {
			err := client.Declare(testCase.factType, testCase.roles...)
			if util.AssertError(t, idx, testCase.error, err) {
				continue
			}
			continue
		}
		// Compile a specification.
		if testCase.spec != "" {
			feeds, err := client.Feeds(testCase.spec, *testCase.start)
			if util.AssertError(t, idx, testCase.error, err) {
				continue
			}
			if len(feeds) != len(testCase.sql) {
				t.Fatalf("case %d: expected %d feeds; got %d", idx, len(testCase.sql), len(feeds))
			}
			for feedIdx, feed := range feeds {
				if feed.Sql != testCase.sql[feedIdx] {
					t.Fatalf(
						"case %d feed %d: expected SQL:\n%s\ngot:\n%s",
						idx, feedIdx, testCase.sql[feedIdx], feed.Sql,
					)
				}
			}
		}
	}

	return &testServerRef{
		server: server,
		client: client,
		dir:    dir,
	}
}

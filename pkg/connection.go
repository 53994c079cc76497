package weft

import (
	"context"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	clog "github.com/weftdb/weft/pkg/log"
)

type connection struct {
	clientConn *websocket.Conn
	id         connectionID
	service    *Service
	responses  chan *Response
	context    context.Context
}

func newConnection(wsConn *websocket.Conn, s *Service, ID int) *connection {
	ctx := context.WithValue(s.ctx, clog.ConnIDKey, ID)
	conn := &connection{
		clientConn: wsConn,
		id:         connectionID(ID),
		service:    s,
		responses:  make(chan *Response),
		context:    ctx,
	}
	go conn.writeResponsesToSocket()
	return conn
}

func (conn *connection) Ctx() context.Context {
	return conn.context
}

func (conn *connection) writeResponsesToSocket() {
	for resp := range conn.responses {
		if err := conn.clientConn.WriteJSON(resp); err != nil {
			clog.Println(conn, "error writing to socket:", err)
			break
		}
	}
}

func (conn *connection) handleRequests() {
	clog.Println(conn, "initiated from", conn.clientConn.RemoteAddr())
	for {
		req := &Request{}
		if readErr := conn.clientConn.ReadJSON(req); readErr != nil {
			clog.Println(conn, "terminated:", readErr)
			conn.service.removeConn(conn)
			close(conn.responses)
			return
		}
		conn.responses <- conn.handleRequest(req)
	}
}

func (conn *connection) handleRequest(req *Request) *Response {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	ctx := context.WithValue(conn.context, clog.RequestIDKey, req.ID)
	reqLog := reqLoggable{ctx}

	resp := &Response{ID: req.ID}
	switch req.Action {
	case actionDeclare:
		conn.service.Declare(req.FactType, req.Roles)
		resp.Ack = "declared"
	case actionFeeds:
		if req.Start == nil {
			resp.Error = "feeds request has no start reference"
			break
		}
		feeds, err := conn.service.CompileFeeds(req.Specification, *req.Start)
		if err != nil {
			clog.Println(reqLog, "compile failed:", err)
			resp.Error = err.Error()
			break
		}
		clog.Printf(reqLog, "compiled %d feeds", len(feeds))
		resp.Feeds = feeds
	case actionBookmark:
		bookmark, err := conn.service.Bookmark(req.FeedID)
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Bookmark = bookmark
	case actionSetBookmark:
		if err := conn.service.SetBookmark(req.FeedID, req.Bookmark); err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Ack = "bookmark set"
	default:
		clog.Println(reqLog, "unknown action:", req.Action)
		resp.Error = "unknown action: " + req.Action
	}
	return resp
}

type reqLoggable struct {
	ctx context.Context
}

func (r reqLoggable) Ctx() context.Context {
	return r.ctx
}

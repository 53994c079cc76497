package weft

// Client speaks the same request/response protocol as weftdbClient.js.

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Client struct {
	WebSocketConn  *websocket.Conn
	URL            string
	RequestsToSend chan *pendingRequest
	IncomingMsgs   chan *Response
	Pending        map[string]chan *Response
}

type pendingRequest struct {
	Request    *Request
	ResultChan chan chan *Response
}

func NewClient(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	clientConn := &Client{
		WebSocketConn:  conn,
		URL:            url,
		RequestsToSend: make(chan *pendingRequest),
		IncomingMsgs:   make(chan *Response),
		Pending:        map[string]chan *Response{},
	}
	go clientConn.handleRequests()
	go clientConn.handleIncoming()
	return clientConn, nil
}

func (conn *Client) Close() error {
	return conn.WebSocketConn.Close()
}

func (conn *Client) handleRequests() {
	for {
		select {
		case pending := <-conn.RequestsToSend:
			responses := make(chan *Response, 1)
			conn.Pending[pending.Request.ID] = responses
			pending.ResultChan <- responses
			conn.WebSocketConn.WriteJSON(pending.Request)

		case incomingMsg := <-conn.IncomingMsgs:
			if responses, ok := conn.Pending[incomingMsg.ID]; ok {
				delete(conn.Pending, incomingMsg.ID)
				responses <- incomingMsg
			}
		}
	}
}

func (conn *Client) handleIncoming() {
	defer conn.WebSocketConn.Close()
	for {
		parsed := &Response{}
		if err := conn.WebSocketConn.ReadJSON(parsed); err != nil {
			log.Println("error in handleIncoming:", err)
			return
		}
		conn.IncomingMsgs <- parsed
	}
}

// do sends one request and blocks until its response arrives.
func (conn *Client) do(req *Request) (*Response, error) {
	req.ID = uuid.New().String()
	resultChan := make(chan chan *Response)
	conn.RequestsToSend <- &pendingRequest{
		Request:    req,
		ResultChan: resultChan,
	}
	resp := <-<-resultChan
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

func (conn *Client) Declare(factType string, roles ...string) error {
	_, err := conn.do(&Request{
		Action:   actionDeclare,
		FactType: factType,
		Roles:    roles,
	})
	return err
}

func (conn *Client) Feeds(specification string, start FactReference) ([]FeedResult, error) {
	resp, err := conn.do(&Request{
		Action:        actionFeeds,
		Specification: specification,
		Start:         &start,
	})
	if err != nil {
		return nil, err
	}
	return resp.Feeds, nil
}

func (conn *Client) Bookmark(feedID string) (string, error) {
	resp, err := conn.do(&Request{
		Action: actionBookmark,
		FeedID: feedID,
	})
	if err != nil {
		return "", err
	}
	return resp.Bookmark, nil
}

func (conn *Client) SetBookmark(feedID string, bookmark string) error {
	_, err := conn.do(&Request{
		Action:   actionSetBookmark,
		FeedID:   feedID,
		Bookmark: bookmark,
	})
	return err
}

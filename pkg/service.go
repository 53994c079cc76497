package weft

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type connectionID int

// Service is the shared state behind all connections: the declared type and
// role registries, the feed cache, and the bookmark store.
type Service struct {
	mu struct {
		sync.RWMutex
		types TypeMap
		roles RoleMap
	}
	cache     *FeedCache
	bookmarks *BookmarkStore

	connections      map[connectionID]*connection
	nextConnectionID int

	ctx     context.Context
	metrics *metrics
}

func NewService(dataFile string) (*Service, error) {
	bookmarks, err := OpenBookmarkStore(dataFile)
	if err != nil {
		return nil, err
	}
	s := &Service{
		cache:       NewFeedCache(),
		bookmarks:   bookmarks,
		connections: map[connectionID]*connection{},
		ctx:         context.Background(),
	}
	s.mu.types = NewTypeMap()
	s.mu.roles = NewRoleMap()
	s.metrics = newMetrics(s)
	return s, nil
}

func (s *Service) Ctx() context.Context {
	return s.ctx
}

func (s *Service) addConnection(wsConn *websocket.Conn) {
	conn := newConnection(wsConn, s, s.nextConnectionID)
	s.nextConnectionID++
	s.connections[conn.id] = conn
	go conn.handleRequests()
}

func (s *Service) removeConn(conn *connection) {
	delete(s.connections, conn.id)
}

func (s *Service) Close() error {
	for _, conn := range s.connections {
		if err := conn.clientConn.Close(); err != nil {
			return err
		}
	}
	return s.bookmarks.Close()
}

// Declare interns a fact type and its roles. Declaring an already-known
// type or role is a no-op; ids never change once assigned.
func (s *Service) Declare(factType string, roles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	types, typeID := s.mu.types.WithFactType(factType)
	rolesMap := s.mu.roles
	for _, role := range roles {
		rolesMap, _ = rolesMap.WithRole(typeID, role)
	}
	s.mu.types = types
	s.mu.roles = rolesMap
}

func (s *Service) registries() (TypeMap, RoleMap) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mu.types, s.mu.roles
}

// CompileFeeds parses a specification, checks the start reference against
// its first given, and compiles every feed of the decomposition to SQL. The
// compiled feeds are cached so later bookmark requests can name them by id.
func (s *Service) CompileFeeds(specText string, start FactReference) ([]FeedResult, error) {
	types, roles := s.registries()

	parseStart := time.Now()
	spec, err := Parse(specText)
	s.metrics.parseLatency.Observe(float64(time.Since(parseStart)))
	if err != nil {
		return nil, err
	}
	if spec.Given[0].Type != start.Type {
		return nil, &givenMismatch{Given: spec.Given[0].Type, Start: start.Type}
	}

	buildStart := time.Now()
	feeds := BuildFeeds(spec)
	s.metrics.feedBuildLatency.Observe(float64(time.Since(buildStart)))

	compileStart := time.Now()
	results := make([]FeedResult, 0, len(feeds))
	for _, feed := range feeds {
		query, err := SqlFromSteps(start, feed.Steps, types, roles)
		if err != nil {
			return nil, err
		}
		result := FeedResult{
			FeedID:      s.cache.Add(feed),
			Description: feed.Describe(),
		}
		if query != nil {
			result.Sql = query.Sql
			result.Parameters = query.Parameters
			result.PathLength = query.PathLength
			result.Empty = query.Empty
		}
		results = append(results, result)
	}
	s.metrics.sqlCompileLatency.Observe(float64(time.Since(compileStart)))
	return results, nil
}

// Bookmark looks up the stored position of a cached feed.
func (s *Service) Bookmark(feedID string) (string, error) {
	if _, ok := s.cache.Get(feedID); !ok {
		return "", &unknownFeed{FeedID: feedID}
	}
	return s.bookmarks.Bookmark(feedID)
}

func (s *Service) SetBookmark(feedID string, bookmark string) error {
	if _, ok := s.cache.Get(feedID); !ok {
		return &unknownFeed{FeedID: feedID}
	}
	return s.bookmarks.SetBookmark(feedID, bookmark)
}

package weft

import (
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var bookmarksBucket = []byte("bookmarks")

// BookmarkStore persists each feed's position so a restarted server resumes
// incremental delivery instead of replaying from the beginning. Keys are
// feed ids; values are opaque bookmark strings chosen by the caller.
type BookmarkStore struct {
	boltDB *bolt.DB
}

func OpenBookmarkStore(dataFile string) (*BookmarkStore, error) {
	boltDB, err := bolt.Open(dataFile, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening bookmark store")
	}
	err = boltDB.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bookmarksBucket)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating bookmarks bucket")
	}
	return &BookmarkStore{boltDB: boltDB}, nil
}

// Bookmark returns the stored bookmark for the feed, or "" if the feed has
// never been bookmarked.
func (s *BookmarkStore) Bookmark(feedID string) (string, error) {
	var bookmark string
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		bookmark = string(tx.Bucket(bookmarksBucket).Get([]byte(feedID)))
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "reading bookmark")
	}
	return bookmark, nil
}

func (s *BookmarkStore) SetBookmark(feedID string, bookmark string) error {
	err := s.boltDB.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bookmarksBucket).Put([]byte(feedID), []byte(bookmark))
	})
	return errors.Wrap(err, "writing bookmark")
}

func (s *BookmarkStore) Close() error {
	return s.boltDB.Close()
}

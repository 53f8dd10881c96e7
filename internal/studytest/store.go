package studytest

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Document is a processed upload held by the fake service.
type Document struct {
	ID        string
	Filename  string
	Text      string
	Chunks    []string
	Pages     int
	CreatedAt time.Time
}

// Store keeps documents in memory. Entries expire after an hour of
// inactivity, which is long enough for any interactive run.
type Store struct {
	cache *cache.Cache
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{cache: cache.New(1*time.Hour, 10*time.Minute)}
}

// Save assigns a fresh id to doc and stores it.
func (s *Store) Save(doc *Document) string {
	doc.ID = uuid.NewString()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	s.cache.Set(doc.ID, doc, cache.DefaultExpiration)
	return doc.ID
}

// Get returns the document stored under id.
func (s *Store) Get(id string) (*Document, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(*Document), true
	}
	return nil, false
}

// Delete removes the document stored under id, if any.
func (s *Store) Delete(id string) {
	s.cache.Delete(id)
}

// Len reports how many documents are stored.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

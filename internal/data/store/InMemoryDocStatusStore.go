package store

import (
	"context"
	"sync"

	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem DocStatusStore")

// InMemoryDocStatusStore is the fallback used when Redis is offline.
type InMemoryDocStatusStore struct {
	mutex   *sync.RWMutex
	docs    map[string]docModel.DocStatus //keyed by file path
	byTrack map[string][]string           //track id -> file paths
}

func InitInMemoryDocStatusStore() *InMemoryDocStatusStore {
	return &InMemoryDocStatusStore{
		mutex:   new(sync.RWMutex),
		docs:    make(map[string]docModel.DocStatus),
		byTrack: make(map[string][]string),
	}
}

func (store *InMemoryDocStatusStore) SaveDocStatus(ctx context.Context, doc docModel.DocStatus) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	_, existed := store.docs[doc.FilePath]
	store.docs[doc.FilePath] = doc
	if doc.TrackId != "" && !existed {
		store.byTrack[doc.TrackId] = append(store.byTrack[doc.TrackId], doc.FilePath)
	}
	inMemLogger.Debug("Saved doc status", "file path", doc.FilePath)
	return nil
}

func (store *InMemoryDocStatusStore) GetDocByFilePath(ctx context.Context, filePath string) (docModel.DocStatus, bool) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	result, found := store.docs[filePath]
	return result, found
}

func (store *InMemoryDocStatusStore) GetDocsByTrackId(ctx context.Context, trackId string) ([]docModel.DocStatus, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	paths := store.byTrack[trackId]
	docs := make([]docModel.DocStatus, 0, len(paths))
	for _, p := range paths {
		if doc, found := store.docs[p]; found {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (store *InMemoryDocStatusStore) DeleteDocStatus(ctx context.Context, filePath string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	doc, found := store.docs[filePath]
	if !found {
		return
	}
	delete(store.docs, filePath)

	remaining := store.byTrack[doc.TrackId][:0]
	for _, p := range store.byTrack[doc.TrackId] {
		if p != filePath {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == 0 {
		delete(store.byTrack, doc.TrackId)
	} else {
		store.byTrack[doc.TrackId] = remaining
	}
}

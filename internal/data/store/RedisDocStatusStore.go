package store

import (
	"context"
	"encoding/json"

	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/data/redisStore"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

const (
	docKeyPrefix   = "doc:"
	trackKeyPrefix = "track:"
)

type RedisDocStatusStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisDocStatusStore(ctx context.Context) *RedisDocStatusStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisDocStatusStore)
	if inner == nil {
		return nil
	}
	return &RedisDocStatusStore{
		store:  inner,
		logger: logger_i.NewLogger("DocStatusStore"),
	}
}

func (s *RedisDocStatusStore) SaveDocStatus(ctx context.Context, doc docModel.DocStatus) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file path", doc.FilePath)
	log.Debug("saving doc status")
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	if err = s.store.Set(ctx, docKeyPrefix+doc.FilePath, data, config.RedisDocStatusTTL); err != nil {
		return err
	}

	//track index lets a caller poll every document behind one track_id
	if doc.TrackId != "" {
		if err = s.store.SetAdd(ctx, trackKeyPrefix+doc.TrackId, doc.FilePath, config.RedisDocStatusTTL); err != nil {
			return err
		}
	}
	log.Debug("Saved doc status to Redis")
	return nil
}

func (s *RedisDocStatusStore) GetDocByFilePath(ctx context.Context, filePath string) (docModel.DocStatus, bool) {
	var doc docModel.DocStatus
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "file path", filePath)
	log.Debug("getting doc status")
	val, err := s.store.Get(ctx, docKeyPrefix+filePath)
	if s.store.IsNil(err) {
		return doc, false
	} else if err != nil {
		log.Error("Error reading doc status from Redis", "error", err)
		return doc, false
	}

	if err = json.Unmarshal([]byte(val), &doc); err != nil {
		log.Error("Error unmarshalling doc status", "error", err)
		return doc, false
	}

	log.Debug("Doc status found in Redis")
	return doc, true
}

func (s *RedisDocStatusStore) GetDocsByTrackId(ctx context.Context, trackId string) ([]docModel.DocStatus, error) {
	paths, err := s.store.SetMembers(ctx, trackKeyPrefix+trackId)
	if err != nil {
		return nil, err
	}

	docs := make([]docModel.DocStatus, 0, len(paths))
	for _, p := range paths {
		if doc, found := s.GetDocByFilePath(ctx, p); found {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *RedisDocStatusStore) DeleteDocStatus(ctx context.Context, filePath string) {
	if doc, found := s.GetDocByFilePath(ctx, filePath); found && doc.TrackId != "" {
		if err := s.store.SetRemove(ctx, trackKeyPrefix+doc.TrackId, filePath); err != nil {
			s.logger.Error("Error removing doc from track index", "file path", filePath, "error", err)
		}
	}
	if err := s.store.Del(ctx, docKeyPrefix+filePath); err != nil {
		s.logger.Error("Error deleting doc status from Redis", "file path", filePath, "error", err)
		return
	}
	s.logger.Debug("Doc status deleted from Redis", "file path", filePath)
}

func TestDocStatusStore(store *redisStore.Store) *RedisDocStatusStore {
	return &RedisDocStatusStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}

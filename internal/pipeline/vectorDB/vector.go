package vectorDB

import (
	"context"

	"github.com/mkalva/DocIngestAPI/internal/domain/commonModels"
)

type DataProcessor interface {
	// CreateCollection is idempotent, indexing calls it before the first upsert
	CreateCollection(ctx context.Context, collectionName string) error
	UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error
}

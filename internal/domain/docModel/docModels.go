package docModel

import (
	"context"
	"time"
)

type DocStatusValue string

const (
	DocStatusPending    DocStatusValue = "PENDING"
	DocStatusProcessing DocStatusValue = "PROCESSING"
	DocStatusProcessed  DocStatusValue = "PROCESSED"
	DocStatusFailed     DocStatusValue = "FAILED"
)

// DocStatus is the persisted record for one ingested document.
// FilePath is the lookup key for duplicate detection, TrackId groups
// every document created by a single intake request.
type DocStatus struct {
	Id            string         `json:"id"`
	FilePath      string         `json:"file_path"`
	FileName      string         `json:"file_name"`
	TrackId       string         `json:"track_id"`
	Status        DocStatusValue `json:"status"`
	ContentLength int64          `json:"content_length,omitempty"`
	ChunksCount   int            `json:"chunks_count,omitempty"`
	ErrorMsg      string         `json:"error_msg,omitempty"`
	MetadataPath  string         `json:"metadata_path,omitempty"`
	CreatedTime   time.Time      `json:"created_at"`
	UpdatedTime   time.Time      `json:"updated_at"`
}

type DocStatusStore interface {
	GetDocByFilePath(ctx context.Context, filePath string) (DocStatus, bool)
	GetDocsByTrackId(ctx context.Context, trackId string) ([]DocStatus, error)
	SaveDocStatus(ctx context.Context, doc DocStatus) error
	DeleteDocStatus(ctx context.Context, filePath string)
}

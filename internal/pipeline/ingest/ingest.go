package ingest

import (
	"context"
	"time"

	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/domain/commonModels"
	"github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/embedding"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/vectorDB"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

type rawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

var logger *logger_i.Logger

// ProcessDocumentIngestion runs extract -> chunk -> embed -> upsert for one
// staged file. The file itself is left in place: the intake layer uses its
// presence for duplicate detection.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, e embedding.Embedder, vectorDatabase vectorDB.DataProcessor) jobModel.Job {
	logger = logger_i.NewLogger("Document Ingestion")
	log := logger.With("traceId", job.TraceId, "trackId", job.TrackId)

	docName := job.JobPayload.FileName
	docPath := job.JobPayload.FilePath

	log.Debug("Processing document", "filename", docName, "path", docPath)

	job.CurrentStep = jobModel.IndexExtract
	if err := vectorDatabase.CreateCollection(ctx, config.VectorCollectionName); err != nil {
		log.Error("Error creating collection", "error", err)
		job.Status = jobModel.JobStatusError
		return job
	}

	docType := getDocType(docPath)
	log.Debug("Processing document", "type", docType)
	if docType == commonModels.ERR {
		log.Error("Unsupported document type", "path", docPath)
		job.Status = jobModel.JobStatusError
		job.Error.Message = "Unsupported document type"
		return job
	}

	doc := commonModels.Document{
		Id:                  job.Id,
		Name:                docName,
		TrackId:             job.TrackId,
		LastIngestTimestamp: time.Now(),
		ContentType:         docType,
	}

	rawPages, err := extractText(docPath, doc.ContentType)
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		job.Status = jobModel.JobStatusError
		job.Error.Message = "Error extracting document content"
		return job
	}

	log.Debug("Processing document", "Number of raw pages: ", len(rawPages))
	return indexPages(ctx, job, doc, rawPages, e, vectorDatabase, log)
}

// ProcessTextIngestion indexes pasted text. There is no file and no pages,
// the whole body is treated as a single page.
func ProcessTextIngestion(ctx context.Context, job jobModel.Job, e embedding.Embedder, vectorDatabase vectorDB.DataProcessor) jobModel.Job {
	logger = logger_i.NewLogger("Text Ingestion")
	log := logger.With("traceId", job.TraceId, "trackId", job.TrackId)

	job.CurrentStep = jobModel.IndexChunk
	if err := vectorDatabase.CreateCollection(ctx, config.VectorCollectionName); err != nil {
		log.Error("Error creating collection", "error", err)
		job.Status = jobModel.JobStatusError
		return job
	}

	doc := commonModels.Document{
		Id:                  job.Id,
		Name:                job.JobPayload.TextSource,
		TrackId:             job.TrackId,
		LastIngestTimestamp: time.Now(),
		ContentType:         commonModels.TXT,
	}

	pages := []rawPage{{Number: 1, Content: job.JobPayload.Text}}
	return indexPages(ctx, job, doc, pages, e, vectorDatabase, log)
}

func indexPages(ctx context.Context, job jobModel.Job, doc commonModels.Document, pages []rawPage, e embedding.Embedder, vectorDatabase vectorDB.DataProcessor, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = jobModel.IndexChunk
	chunks := PrepareChunks(pages, doc, config.GoogleEmbeddingModel)
	job.JobPayload.ChunksCount = len(chunks)

	log.Debug("Processing document", "Number of chunks: ", len(chunks))
	job.CurrentStep = jobModel.IndexEmbed
	if err := BatchIngest(ctx, chunks, vectorDatabase, e); err != nil {
		job.Status = jobModel.JobStatusError
		log.Error("Error indexing document", "error", err)
		return job
	}

	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	return job
}

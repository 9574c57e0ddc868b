package pipeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
	"github.com/mkalva/DocIngestAPI/internal/metrics"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/embedding"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/ingest"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/vectorDB"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

// Service is the only surface the worker sees. The extraction, embedding and
// vector store plumbing stays behind it so tests can swap the whole pipeline
// for a mock.
type Service interface {
	IndexFile(ctx context.Context, job jobModel.Job) jobModel.Job
	IndexText(ctx context.Context, job jobModel.Job) jobModel.Job
}

type service struct {
	vectorDB vectorDB.DataProcessor
	embedder embedding.Embedder
	logger   *logger_i.Logger
}

func NewService(vector vectorDB.DataProcessor, em embedding.Embedder) Service {
	return &service{
		vectorDB: vector,
		embedder: em,
		logger:   logger_i.NewLogger("Pipeline Service"),
	}
}

func (s *service) IndexFile(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("file_indexing", time.Since(start)) }()

	j := ingest.ProcessDocumentIngestion(ctx, job, s.embedder, s.vectorDB)
	if j.Status != jobModel.JobStatusComplete {
		return s.jobError(j, errors.New("file indexing failed"), "INDEX_FILE_FAILURE", true)
	}
	return j
}

func (s *service) IndexText(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("text_indexing", time.Since(start)) }()

	j := ingest.ProcessTextIngestion(ctx, job, s.embedder, s.vectorDB)
	if j.Status != jobModel.JobStatusComplete {
		return s.jobError(j, errors.New("text indexing failed"), "INDEX_TEXT_FAILURE", true)
	}
	return j
}

func (s *service) jobError(job jobModel.Job, err error, message string, canRetry bool) jobModel.Job {
	s.logger.Error(message, "error", err)

	if job.Error.Message == "" {
		job.Error = jobModel.JobError{
			Code:    http.StatusInternalServerError,
			Message: message,
			Retry:   canRetry,
		}
	}
	job.Status = jobModel.JobStatusError
	return job
}

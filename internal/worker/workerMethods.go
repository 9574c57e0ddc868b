package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	jobmodel "github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
	"github.com/mkalva/DocIngestAPI/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		// Record total time at the end
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IndexJobTimeout)
	defer cancel()
	logger.With("trace Id ", job.TraceId)
	logger.Debug("Processing job:", "job Id:", job.Id)

	markDocProcessing(ctx, job)

	if job.JobType == jobmodel.JobTypeIndexFile {
		job = _pipelineService.IndexFile(ctx, job)
	} else {
		job = _pipelineService.IndexText(ctx, job)
	}

	job.EndTime = time.Now()
	recordDocResult(ctx, job)
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

func markDocProcessing(ctx context.Context, job jobmodel.Job) {
	doc, found := _jobService.DocStatusStore.GetDocByFilePath(ctx, job.JobPayload.FilePath)
	if !found {
		logger.Error("No status record for job", "filePath", job.JobPayload.FilePath)
		return
	}
	doc.Status = docModel.DocStatusProcessing
	doc.UpdatedTime = time.Now()
	if err := _jobService.DocStatusStore.SaveDocStatus(ctx, doc); err != nil {
		logger.Error("Failed to update document status", "err", err)
	}
}

// recordDocResult writes the terminal state for the document this job
// carried. The job outcome itself is not persisted separately, the
// document record is the status surface callers poll.
func recordDocResult(ctx context.Context, job jobmodel.Job) {
	doc, found := _jobService.DocStatusStore.GetDocByFilePath(ctx, job.JobPayload.FilePath)
	if !found {
		logger.Error("No status record for finished job", "filePath", job.JobPayload.FilePath)
		return
	}

	doc.UpdatedTime = time.Now()
	if job.Status == jobmodel.JobStatusComplete {
		doc.Status = docModel.DocStatusProcessed
		doc.ChunksCount = job.JobPayload.ChunksCount
		doc.ErrorMsg = ""
	} else {
		doc.Status = docModel.DocStatusFailed
		doc.ErrorMsg = job.Error.Message
		if doc.ErrorMsg == "" {
			doc.ErrorMsg = "indexing failed at step " + string(job.CurrentStep)
		}
	}

	if err := _jobService.DocStatusStore.SaveDocStatus(ctx, doc); err != nil {
		logger.Error("Failed to persist document result", "err", err)
	}
}

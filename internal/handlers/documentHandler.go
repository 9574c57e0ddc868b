package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/mkalva/DocIngestAPI/internal/adapter"
	"github.com/mkalva/DocIngestAPI/internal/adapter/utils"
	"github.com/mkalva/DocIngestAPI/internal/api"
	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/docmanager"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	"github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
	"github.com/mkalva/DocIngestAPI/internal/job"
	"github.com/mkalva/DocIngestAPI/internal/metrics"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

// DocumentHandler serves the document intake endpoints. Its collaborators are
// injected at construction so tests can swap the store and the job channel.
type DocumentHandler struct {
	docs    *docmanager.Manager
	service *job.Service
	logger  *logger_i.Logger
}

func NewDocumentHandler(docs *docmanager.Manager, service *job.Service) *DocumentHandler {
	return &DocumentHandler{
		docs:    docs,
		service: service,
		logger:  logger_i.NewLogger("DocumentHandler"),
	}
}

// httpError carries a wire error plus the label for the uploads metric.
type httpError struct {
	code   int
	detail string
	metric string
}

// Upload godoc
// @Summary      Upload a document for indexing
// @Description  Receives a file via multipart/form-data with optional JSON metadata, stages it in the input directory, writes a metadata sidecar, and queues a background indexing job. A document that already exists (in the status store or on disk) yields status "duplicated" with an empty track_id.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file    true   "The document to upload"
// @Param        metadata  formData  string  false  "Optional JSON metadata stored next to the file"
// @Success      200  {object}  api.InsertResponse  "Accepted or duplicated"
// @Failure      400  {object}  api.ErrorDetail     "Unsupported file type or bad multipart form"
// @Failure      500  {object}  api.ErrorDetail     "Storage or store failure"
// @Router       /documents/upload [post]
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		h.logger.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
		return
	}
	log := h.logger.With("traceId", traceIdFrom(r.Context()))

	// Single failure boundary: anything unexpected below turns into a
	// uniform 500 {"detail": ...} with the stack logged server-side only.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Unhandled failure in upload", "panic", rec, "stack", string(debug.Stack()))
			metrics.CountUploadResult("error")
			WriteErrorResponse(w, http.StatusInternalServerError, fmt.Sprint(rec))
		}
	}()

	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		metrics.CountUploadResult("rejected")
		WriteErrorResponse(w, http.StatusBadRequest, "File too large or bad request")
		return
	}

	fileReader, fileHeader, err := r.FormFile("file")
	if err != nil {
		metrics.CountUploadResult("rejected")
		WriteErrorResponse(w, http.StatusBadRequest, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	res, uploadErr := h.handleUpload(r.Context(), fileReader, fileHeader.Filename, r.FormValue("metadata"), log)
	if uploadErr != nil {
		metrics.CountUploadResult(uploadErr.metric)
		WriteErrorResponse(w, uploadErr.code, uploadErr.detail)
		return
	}

	metrics.CountUploadResult(string(res.Status))
	writeJsonResponse(w, http.StatusOK, res)
}

// handleUpload runs the intake sequence: sanitize, extension check, duplicate
// check against the status store then the filesystem, persist, sidecar,
// enqueue. The per-path lock covers both checks and the write, so concurrent
// uploads of the same filename cannot both pass the checks.
func (h *DocumentHandler) handleUpload(ctx context.Context, file io.Reader, originalFilename string, metadataStr string, log *logger_i.Logger) (api.InsertResponse, *httpError) {

	safeFilename, err := h.docs.SanitizeFilename(originalFilename)
	if err != nil {
		log.Error("Filename rejected", "filename", originalFilename, "error", err)
		return api.InsertResponse{}, &httpError{http.StatusInternalServerError, err.Error(), "error"}
	}

	if !h.docs.IsSupportedFile(safeFilename) {
		return api.InsertResponse{}, &httpError{
			http.StatusBadRequest,
			fmt.Sprintf("Unsupported file type. Supported types: %v", h.docs.SupportedExtensions()),
			"rejected",
		}
	}

	filePath := h.docs.FilePath(safeFilename)

	unlock := h.docs.Locks.Lock(filePath)
	defer unlock()

	//store first: it is the source of truth for indexing state
	if existing, found := h.service.DocStatusStore.GetDocByFilePath(ctx, filePath); found {
		log.Info("Duplicate upload, record exists", "file", safeFilename, "status", existing.Status)
		return adapter.ToStoreDuplicate(safeFilename, existing.Status), nil
	}

	//filesystem second: an orphaned file with no record is still a duplicate
	if _, statErr := os.Stat(filePath); statErr == nil {
		log.Info("Duplicate upload, file exists", "file", safeFilename)
		return adapter.ToFileDuplicate(safeFilename), nil
	}

	if err = h.docs.EnsureInputDir(); err != nil {
		log.Error("Couldn't create input directory", "error", err)
		return api.InsertResponse{}, &httpError{http.StatusInternalServerError, "Storage error", "error"}
	}

	written, err := persistFile(filePath, file)
	if err != nil {
		log.Error("Couldn't persist upload", "file", safeFilename, "error", err)
		return api.InsertResponse{}, &httpError{http.StatusInternalServerError, "Write error", "error"}
	}

	//point of no return: the file is on disk, the upload is accepted
	trackId := utils.GetNewTrackId(config.TrackUploadPrefix)

	metadataPath := ""
	if metadataStr != "" {
		metadataPath = h.docs.MetadataPath(safeFilename)
		if err = writeMetadataSidecar(metadataPath, metadataStr); err != nil {
			// Best effort: the main file is already accepted, a sidecar
			// failure must not undo that.
			log.Error("Failed writing metadata sidecar", "path", metadataPath, "error", err)
			metadataPath = ""
		} else {
			log.Info("Metadata saved", "file", safeFilename, "path", metadataPath)
		}
	}

	h.recordPendingDoc(ctx, docModel.DocStatus{
		Id:            utils.GetNewUUID(),
		FilePath:      filePath,
		FileName:      safeFilename,
		TrackId:       trackId,
		Status:        docModel.DocStatusPending,
		ContentLength: written,
		MetadataPath:  metadataPath,
	}, log)

	h.enqueueIndexJob(ctx, jobModel.JobTypeIndexFile, jobModel.JobPayload{
		FileName: safeFilename,
		FilePath: filePath,
	}, trackId)

	log.Info("Upload accepted", "file", safeFilename, "trackId", trackId, "bytes", written)
	return adapter.ToUploadAccepted(safeFilename, trackId), nil
}

// persistFile stream-copies the upload to its target path. O_EXCL makes the
// create atomic, so even without the path lock two writers cannot clobber
// each other. A partial write is removed so a retry sees a clean slate.
func persistFile(filePath string, file io.Reader) (int64, error) {
	destination, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(destination, file)
	closeErr := destination.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filePath)
		return 0, err
	}
	return written, nil
}

// writeMetadataSidecar persists the caller-supplied metadata next to the
// document. A string that does not parse as a JSON object is wrapped under
// "raw_metadata" instead of failing the upload. Output is pretty-printed
// with non-ASCII left intact.
func writeMetadataSidecar(metaPath string, raw string) error {
	var parsed map[string]interface{}

	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		if obj, ok := decoded.(map[string]interface{}); ok {
			parsed = obj
		}
	}
	if parsed == nil {
		parsed = map[string]interface{}{"raw_metadata": raw}
	}

	metaFile, err := os.Create(metaPath)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(metaFile)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(parsed)

	closeErr := metaFile.Close()
	if err == nil {
		err = closeErr
	}
	return err
}

// recordPendingDoc registers the accepted document in the status store so
// duplicate checks and track polling see it before the worker picks it up.
// The upload already succeeded at this point, so a store failure is logged
// rather than surfaced.
func (h *DocumentHandler) recordPendingDoc(ctx context.Context, doc docModel.DocStatus, log *logger_i.Logger) {
	now := time.Now()
	doc.CreatedTime = now
	doc.UpdatedTime = now
	if err := h.service.DocStatusStore.SaveDocStatus(ctx, doc); err != nil {
		log.Error("Failed to record pending doc status", "file", doc.FileName, "error", err)
	}
}

// enqueueIndexJob hands the document to the background workers. The send is
// blocking on purpose so a full queue applies backpressure to uploads. File
// jobs always signal the dispatcher because extraction plus embedding is the
// expensive path.
func (h *DocumentHandler) enqueueIndexJob(ctx context.Context, jobType jobModel.JobType, payload jobModel.JobPayload, trackId string) {
	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TrackId:     trackId,
		TraceId:     traceIdFrom(ctx),
		JobType:     jobType,
		JobPayload:  payload,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IndexInit,
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- newJob //this is a blocking send to prevent the system from being overwhelmed

	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || jobType == jobModel.JobTypeIndexFile {
		metrics.StartDispatcherSignalCount() //metrics
		h.service.DispatcherChannel <- true
	}
}

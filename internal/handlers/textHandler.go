package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mkalva/DocIngestAPI/internal/adapter"
	"github.com/mkalva/DocIngestAPI/internal/adapter/utils"
	"github.com/mkalva/DocIngestAPI/internal/api"
	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	"github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
)

// InsertText godoc
// @Summary      Index pasted text
// @Description  Accepts raw text in a JSON body and queues a background indexing job. The returned track_id carries the "insert" prefix so pollers can tell text ingestion apart from file uploads.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      api.InsertTextRequest  true  "Text and optional source label"
// @Success      202  {object}  api.InsertResponse  "Queued for indexing"
// @Failure      400  {object}  api.ErrorDetail     "Empty text or bad JSON"
// @Router       /documents/text [post]
func (h *DocumentHandler) InsertText(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		h.logger.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
		return
	}
	log := h.logger.With("traceId", traceIdFrom(r.Context()))

	var requestData api.InsertTextRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			log.Error("Couldn't close the text insert reader", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.Text == "" {
		log.Warn("Bad text insert request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "text is required")
		return
	}

	source := requestData.FileSource
	if source == "" {
		source = "pasted_text"
	}

	trackId := utils.GetNewTrackId(config.TrackInsertPrefix)

	//synthetic path keys the status record, there is no file on disk
	h.recordPendingDoc(r.Context(), docModel.DocStatus{
		Id:            utils.GetNewUUID(),
		FilePath:      "text://" + trackId,
		FileName:      source,
		TrackId:       trackId,
		Status:        docModel.DocStatusPending,
		ContentLength: int64(len(requestData.Text)),
	}, log)

	h.enqueueIndexJob(r.Context(), jobModel.JobTypeIndexText, jobModel.JobPayload{
		Text:       requestData.Text,
		TextSource: source,
		FilePath:   "text://" + trackId,
	}, trackId)

	log.Info("Text accepted", "source", source, "trackId", trackId)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToTextAccepted(trackId))
}

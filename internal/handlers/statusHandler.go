package handlers

import (
	"net/http"

	"github.com/mkalva/DocIngestAPI/internal/adapter"
	"github.com/mkalva/DocIngestAPI/internal/adapter/utils"
)

// TrackStatus godoc
// @Summary      Get indexing status by track id
// @Description  Returns every document status record created under one tracking id, so a caller can follow background indexing after an upload or text insert.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Tracking id returned by an intake endpoint"
// @Success      200  {object}  api.TrackStatusResponse
// @Failure      400  {object}  api.ErrorDetail  "Missing track id"
// @Failure      500  {object}  api.ErrorDetail  "Store failure"
// @Router       /documents/track_status/{id} [get]
func (h *DocumentHandler) TrackStatus(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		h.logger.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
		return
	}
	log := h.logger.With("traceId", traceIdFrom(r.Context()))

	trackId := utils.GetChiURLParam(r, "id")
	if trackId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "track_id is required")
		return
	}

	docs, err := h.service.DocStatusStore.GetDocsByTrackId(r.Context(), trackId)
	if err != nil {
		log.Error("Failed reading track status", "trackId", trackId, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Debug("Track status request", "trackId", trackId, "documents", len(docs))
	writeJsonResponse(w, http.StatusOK, adapter.ToTrackStatusResponse(trackId, docs))
}

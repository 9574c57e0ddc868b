package adapter

import (
	"fmt"

	"github.com/mkalva/DocIngestAPI/internal/api"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
)

func ToUploadAccepted(safeFilename string, trackId string) api.InsertResponse {
	return api.InsertResponse{
		Status:  api.InsertStatusSuccess,
		Message: fmt.Sprintf("File '%s' uploaded successfully. Processing will continue in background.", safeFilename),
		TrackId: trackId,
	}
}

func ToTextAccepted(trackId string) api.InsertResponse {
	return api.InsertResponse{
		Status:  api.InsertStatusSuccess,
		Message: "Text accepted for indexing. Processing will continue in background.",
		TrackId: trackId,
	}
}

// ToStoreDuplicate reports a document already known to the status store,
// embedding the record's current status in the message.
func ToStoreDuplicate(safeFilename string, status docModel.DocStatusValue) api.InsertResponse {
	return api.InsertResponse{
		Status:  api.InsertStatusDuplicated,
		Message: fmt.Sprintf("File '%s' already exists in document storage (Status: %s).", safeFilename, status),
		TrackId: "",
	}
}

// ToFileDuplicate reports a physical file already sitting in the input directory.
func ToFileDuplicate(safeFilename string) api.InsertResponse {
	return api.InsertResponse{
		Status:  api.InsertStatusDuplicated,
		Message: fmt.Sprintf("File '%s' already exists in the input directory.", safeFilename),
		TrackId: "",
	}
}

func ToTrackStatusResponse(trackId string, docs []docModel.DocStatus) api.TrackStatusResponse {
	out := make([]api.DocStatusResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, api.DocStatusResponse{
			Id:            d.Id,
			FilePath:      d.FilePath,
			FileName:      d.FileName,
			Status:        string(d.Status),
			ContentLength: d.ContentLength,
			ChunksCount:   d.ChunksCount,
			ErrorMsg:      d.ErrorMsg,
			CreatedAt:     d.CreatedTime,
			UpdatedAt:     d.UpdatedTime,
		})
	}
	return api.TrackStatusResponse{
		TrackId:    trackId,
		Documents:  out,
		TotalCount: len(out),
	}
}

package api

import "time"

type InsertStatus string

const (
	InsertStatusSuccess    InsertStatus = "success"
	InsertStatusDuplicated InsertStatus = "duplicated"
)

// InsertResponse is the wire response for both intake endpoints.
// A duplicate is not an error: status "duplicated" with an empty track_id.
type InsertResponse struct {
	Status  InsertStatus `json:"status" example:"success"`
	Message string       `json:"message" example:"File 'report.pdf' uploaded successfully. Processing will continue in background."`
	TrackId string       `json:"track_id" example:"upload_20260815_104500_1b9f4c2a"`
}

// ErrorDetail is the error envelope for non-2xx responses.
type ErrorDetail struct {
	Detail string `json:"detail" example:"Unsupported file type"`
}

type InsertTextRequest struct {
	Text       string `json:"text" validate:"required"`
	FileSource string `json:"file_source,omitempty"`
}

type DocStatusResponse struct {
	Id            string    `json:"id"`
	FilePath      string    `json:"file_path"`
	FileName      string    `json:"file_name"`
	Status        string    `json:"status"`
	ContentLength int64     `json:"content_length,omitempty"`
	ChunksCount   int       `json:"chunks_count,omitempty"`
	ErrorMsg      string    `json:"error_msg,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TrackStatusResponse struct {
	TrackId    string              `json:"track_id"`
	Documents  []DocStatusResponse `json:"documents"`
	TotalCount int                 `json:"total_count"`
}

package jobModel

import (
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	IndexInit    InternalStatus = "IndexInit"
	IndexExtract InternalStatus = "Extract"
	IndexChunk   InternalStatus = "Chunk"
	IndexEmbed   InternalStatus = "EmbeddingAPI"
	IndexUpsert  InternalStatus = "VectorDB"
	Error        InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeIndexFile JobType = "IndexFile"
	JobTypeIndexText JobType = "IndexText"
)

type Job struct {
	Id          string         `json:"id"`
	TrackId     string         `json:"track_id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	//file indexing
	FileName string `json:"file_name,omitempty"`
	FilePath string `json:"file_path,omitempty"`

	//text indexing - raw content pasted by the caller
	Text       string `json:"text,omitempty"`
	TextSource string `json:"text_source,omitempty"`

	//filled in by the pipeline for status reporting
	ChunksCount int `json:"chunks_count,omitempty"`
}

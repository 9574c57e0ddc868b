package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mkalva/DocIngestAPI/internal/api"
	"github.com/mkalva/DocIngestAPI/internal/docmanager"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	"github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
	"github.com/mkalva/DocIngestAPI/internal/job"
)

type mockDocStatusStore struct {
	mu   sync.Mutex
	docs map[string]docModel.DocStatus
}

func newMockDocStatusStore() *mockDocStatusStore {
	return &mockDocStatusStore{docs: make(map[string]docModel.DocStatus)}
}

func (m *mockDocStatusStore) GetDocByFilePath(ctx context.Context, filePath string) (docModel.DocStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, found := m.docs[filePath]
	return doc, found
}

func (m *mockDocStatusStore) GetDocsByTrackId(ctx context.Context, trackId string) ([]docModel.DocStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []docModel.DocStatus
	for _, d := range m.docs {
		if d.TrackId == trackId {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDocStatusStore) SaveDocStatus(ctx context.Context, doc docModel.DocStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.FilePath] = doc
	return nil
}

func (m *mockDocStatusStore) DeleteDocStatus(ctx context.Context, filePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, filePath)
}

type testHarness struct {
	handler *DocumentHandler
	docs    *docmanager.Manager
	store   *mockDocStatusStore
	jobs    chan jobModel.Job
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	docs := docmanager.NewManager(t.TempDir(), docmanager.DefaultExtensions)
	store := newMockDocStatusStore()
	jobs := make(chan jobModel.Job, 16)
	svc := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobs,
		DispatcherChannel: make(chan bool, 16),
		DocStatusStore:    store,
	})
	return &testHarness{
		handler: NewDocumentHandler(docs, svc),
		docs:    docs,
		store:   store,
		jobs:    jobs,
	}
}

func multipartUpload(t *testing.T, filename string, content []byte, metadata string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err = part.Write(content); err != nil {
		t.Fatalf("writing form file failed: %v", err)
	}
	if metadata != "" {
		if err = writer.WriteField("metadata", metadata); err != nil {
			t.Fatalf("writing metadata field failed: %v", err)
		}
	}
	if err = writer.Close(); err != nil {
		t.Fatalf("closing multipart writer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeInsertResponse(t *testing.T, rec *httptest.ResponseRecorder) api.InsertResponse {
	t.Helper()
	var res api.InsertResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	return res
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	h := newTestHarness(t)

	rec := httptest.NewRecorder()
	h.handler.Upload(rec, multipartUpload(t, "malware.exe", []byte("nope"), ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var detail api.ErrorDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("decoding error envelope failed: %v", err)
	}
	if !strings.Contains(detail.Detail, ".pdf") {
		t.Errorf("detail should enumerate supported extensions, got %q", detail.Detail)
	}

	entries, err := os.ReadDir(h.docs.InputDir())
	if err != nil {
		t.Fatalf("reading input dir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("rejected upload wrote %d file(s) to the input dir", len(entries))
	}
	if len(h.jobs) != 0 {
		t.Error("rejected upload enqueued a job")
	}
}

func TestUpload_TraversalFilenameStaysInside(t *testing.T) {
	h := newTestHarness(t)

	rec := httptest.NewRecorder()
	h.handler.Upload(rec, multipartUpload(t, "../../escape.txt", []byte("content"), ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(h.docs.FilePath("escape.txt")); err != nil {
		t.Errorf("sanitized file not found inside input dir: %v", err)
	}
	parent := h.docs.InputDir() + "/../escape.txt"
	if _, err := os.Stat(parent); err == nil {
		t.Error("file escaped the input directory")
	}
}

func TestUpload_StoreDuplicate(t *testing.T) {
	h := newTestHarness(t)

	filePath := h.docs.FilePath("report.pdf")
	_ = h.store.SaveDocStatus(context.Background(), docModel.DocStatus{
		Id:       "existing",
		FilePath: filePath,
		FileName: "report.pdf",
		Status:   docModel.DocStatusProcessing,
	})

	rec := httptest.NewRecorder()
	h.handler.Upload(rec, multipartUpload(t, "report.pdf", []byte("new content"), ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	res := decodeInsertResponse(t, rec)
	if res.Status != api.InsertStatusDuplicated {
		t.Errorf("status = %q, want duplicated", res.Status)
	}
	if res.TrackId != "" {
		t.Errorf("duplicate response carries track_id %q", res.TrackId)
	}
	if !strings.Contains(res.Message, string(docModel.DocStatusProcessing)) {
		t.Errorf("message should embed the record's status, got %q", res.Message)
	}
	if _, err := os.Stat(filePath); err == nil {
		t.Error("duplicate upload still wrote a file")
	}
	if len(h.jobs) != 0 {
		t.Error("duplicate upload enqueued a job")
	}
}

func TestUpload_FilesystemDuplicate(t *testing.T) {
	h := newTestHarness(t)

	if err := h.docs.EnsureInputDir(); err != nil {
		t.Fatalf("EnsureInputDir failed: %v", err)
	}
	filePath := h.docs.FilePath("orphan.txt")
	original := []byte("original content, do not clobber")
	if err := os.WriteFile(filePath, original, 0640); err != nil {
		t.Fatalf("seeding orphan file failed: %v", err)
	}

	rec := httptest.NewRecorder()
	h.handler.Upload(rec, multipartUpload(t, "orphan.txt", []byte("imposter"), ""))

	res := decodeInsertResponse(t, rec)
	if res.Status != api.InsertStatusDuplicated {
		t.Errorf("status = %q, want duplicated", res.Status)
	}

	onDisk, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("reading file back failed: %v", err)
	}
	if !bytes.Equal(onDisk, original) {
		t.Error("existing file was overwritten by a duplicate upload")
	}
}

func TestUpload_SuccessWithObjectMetadata(t *testing.T) {
	h := newTestHarness(t)

	content := []byte("the quick brown fox")
	metadata := `{"author": "Ana Peña", "tags": ["q3", "draft"]}`

	rec := httptest.NewRecorder()
	h.handler.Upload(rec, multipartUpload(t, "notes.txt", content, metadata))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	res := decodeInsertResponse(t, rec)
	if res.Status != api.InsertStatusSuccess {
		t.Fatalf("status = %q, want success", res.Status)
	}
	if !strings.HasPrefix(res.TrackId, "upload_") {
		t.Errorf("track_id %q missing upload prefix", res.TrackId)
	}

	onDisk, err := os.ReadFile(h.docs.FilePath("notes.txt"))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if !bytes.Equal(onDisk, content) {
		t.Error("stored file differs from the upload")
	}

	sidecar, err := os.ReadFile(h.docs.MetadataPath("notes.txt"))
	if err != nil {
		t.Fatalf("metadata sidecar missing: %v", err)
	}
	var got map[string]interface{}
	if err = json.Unmarshal(sidecar, &got); err != nil {
		t.Fatalf("sidecar is not valid JSON: %v", err)
	}
	want := map[string]interface{}{"author": "Ana Peña", "tags": []interface{}{"q3", "draft"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sidecar = %v, want %v", got, want)
	}
	if !strings.Contains(string(sidecar), "Ana Peña") {
		t.Error("non-ASCII content was escaped in the sidecar")
	}

	select {
	case queued := <-h.jobs:
		if queued.JobType != jobModel.JobTypeIndexFile {
			t.Errorf("queued job type = %q, want %q", queued.JobType, jobModel.JobTypeIndexFile)
		}
		if queued.TrackId != res.TrackId {
			t.Errorf("queued job track id = %q, want %q", queued.TrackId, res.TrackId)
		}
	default:
		t.Error("no indexing job was enqueued")
	}

	pending, found := h.store.GetDocByFilePath(context.Background(), h.docs.FilePath("notes.txt"))
	if !found {
		t.Fatal("no pending doc status recorded")
	}
	if pending.Status != docModel.DocStatusPending {
		t.Errorf("recorded status = %q, want PENDING", pending.Status)
	}
}

func TestUpload_NonObjectMetadataIsWrapped(t *testing.T) {
	h := newTestHarness(t)

	cases := []struct {
		name     string
		metadata string
	}{
		{"bare string", `"hello"`},
		{"array", `[1,2,3]`},
		{"not json at all", `hello`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			filename := strings.ReplaceAll(tc.name, " ", "_") + ".txt"
			rec := httptest.NewRecorder()
			h.handler.Upload(rec, multipartUpload(t, filename, []byte("x"), tc.metadata))

			res := decodeInsertResponse(t, rec)
			if res.Status != api.InsertStatusSuccess {
				t.Fatalf("status = %q, want success", res.Status)
			}

			sidecar, err := os.ReadFile(h.docs.MetadataPath(filename))
			if err != nil {
				t.Fatalf("metadata sidecar missing: %v", err)
			}
			var got map[string]interface{}
			if err = json.Unmarshal(sidecar, &got); err != nil {
				t.Fatalf("sidecar is not valid JSON: %v", err)
			}
			raw, ok := got["raw_metadata"].(string)
			if !ok || raw != tc.metadata {
				t.Errorf("sidecar = %v, want raw_metadata=%q", got, tc.metadata)
			}
		})
	}
}

func TestUpload_ConcurrentSameFilename(t *testing.T) {
	h := newTestHarness(t)

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan api.InsertResponse, writers)

	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.handler.Upload(rec, multipartUpload(t, "contested.txt", []byte("only one should win"), ""))
			results <- decodeInsertResponse(t, rec)
		}()
	}
	wg.Wait()
	close(results)

	successes, duplicates := 0, 0
	for res := range results {
		switch res.Status {
		case api.InsertStatusSuccess:
			successes++
		case api.InsertStatusDuplicated:
			duplicates++
		}
	}
	if successes != 1 {
		t.Errorf("got %d successes, want exactly 1", successes)
	}
	if duplicates != writers-1 {
		t.Errorf("got %d duplicates, want %d", duplicates, writers-1)
	}

	onDisk, err := os.ReadFile(h.docs.FilePath("contested.txt"))
	if err != nil {
		t.Fatalf("winner's file missing: %v", err)
	}
	if string(onDisk) != "only one should win" {
		t.Error("file content corrupted by concurrent uploads")
	}
}

func TestInsertText(t *testing.T) {
	h := newTestHarness(t)

	t.Run("Empty text rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/documents/text", strings.NewReader(`{"text": ""}`))
		h.handler.InsertText(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("Valid text queues a job", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/documents/text",
			strings.NewReader(`{"text": "some pasted knowledge", "file_source": "wiki"}`))
		h.handler.InsertText(rec, req)

		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		res := decodeInsertResponse(t, rec)
		if !strings.HasPrefix(res.TrackId, "insert_") {
			t.Errorf("track_id %q missing insert prefix", res.TrackId)
		}

		select {
		case queued := <-h.jobs:
			if queued.JobType != jobModel.JobTypeIndexText {
				t.Errorf("queued job type = %q, want %q", queued.JobType, jobModel.JobTypeIndexText)
			}
			if queued.JobPayload.Text != "some pasted knowledge" {
				t.Errorf("queued payload text = %q", queued.JobPayload.Text)
			}
		default:
			t.Error("no indexing job was enqueued")
		}
	})
}

func TestTrackStatus(t *testing.T) {
	h := newTestHarness(t)

	trackId := "upload_20260815_104500_1b9f4c2a"
	_ = h.store.SaveDocStatus(context.Background(), docModel.DocStatus{
		Id:       "doc-1",
		FilePath: "/inputs/a.pdf",
		FileName: "a.pdf",
		TrackId:  trackId,
		Status:   docModel.DocStatusProcessed,
	})

	router := chi.NewRouter()
	router.Get("/documents/track_status/{id}", h.handler.TrackStatus)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/track_status/"+trackId, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res api.TrackStatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if res.TotalCount != 1 || len(res.Documents) != 1 {
		t.Fatalf("expected 1 document, got %+v", res)
	}
	if res.Documents[0].Status != string(docModel.DocStatusProcessed) {
		t.Errorf("document status = %q, want PROCESSED", res.Documents[0].Status)
	}
}

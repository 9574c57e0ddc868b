package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	"github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
	"github.com/mkalva/DocIngestAPI/internal/job"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

// MockPipelineService tracks if jobs are executed
type MockPipelineService struct {
	ProcessedCount int32
	Fail           bool
}

func (m *MockPipelineService) IndexFile(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	return m.finish(j)
}

func (m *MockPipelineService) IndexText(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.ProcessedCount, 1)
	return m.finish(j)
}

func (m *MockPipelineService) finish(j jobModel.Job) jobModel.Job {
	if m.Fail {
		j.Status = jobModel.JobStatusError
		j.Error = jobModel.JobError{Message: "mock failure"}
		return j
	}
	j.Status = jobModel.JobStatusComplete
	j.JobPayload.ChunksCount = 3
	return j
}

// MockDocStatusStore records saved statuses keyed by file path
type MockDocStatusStore struct {
	mu   sync.Mutex
	docs map[string]docModel.DocStatus
}

func newMockDocStatusStore() *MockDocStatusStore {
	return &MockDocStatusStore{docs: make(map[string]docModel.DocStatus)}
}

func (m *MockDocStatusStore) GetDocByFilePath(ctx context.Context, filePath string) (docModel.DocStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[filePath]
	return d, ok
}

func (m *MockDocStatusStore) GetDocsByTrackId(ctx context.Context, trackId string) ([]docModel.DocStatus, error) {
	return nil, nil
}

func (m *MockDocStatusStore) SaveDocStatus(ctx context.Context, doc docModel.DocStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.FilePath] = doc
	return nil
}

func (m *MockDocStatusStore) DeleteDocStatus(ctx context.Context, filePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, filePath)
}

func TestWorkerPool_Flow(t *testing.T) {
	// 1. Setup
	store := newMockDocStatusStore()
	store.docs["/tmp/test.pdf"] = docModel.DocStatus{
		FilePath: "/tmp/test.pdf",
		Status:   docModel.DocStatusPending,
	}
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		DocStatusStore:    store,
	}
	mockPipeline := &MockPipelineService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockPipeline)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		// Signal dispatcher to create a worker
		jobSvc.DispatcherChannel <- true

		// Give it a millisecond to spawn
		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes a job and records result", func(t *testing.T) {
		testJob := jobModel.Job{
			Id:      "test-1",
			JobType: jobModel.JobTypeIndexFile,
			JobPayload: jobModel.JobPayload{
				FileName: "test.pdf",
				FilePath: "/tmp/test.pdf",
			},
		}
		jobSvc.JobChannel <- testJob

		// Wait for worker to pick up and process
		time.Sleep(50 * time.Millisecond)

		processed := atomic.LoadInt32(&mockPipeline.ProcessedCount)
		if processed != 1 {
			t.Errorf("Expected 1 job processed, got %d", processed)
		}

		doc, ok := store.GetDocByFilePath(context.Background(), "/tmp/test.pdf")
		if !ok {
			t.Fatal("status record disappeared")
		}
		if doc.Status != docModel.DocStatusProcessed {
			t.Errorf("Expected PROCESSED, got %s", doc.Status)
		}
		if doc.ChunksCount != 3 {
			t.Errorf("Expected ChunksCount 3, got %d", doc.ChunksCount)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		// Send stop signal
		close(stopChan)

		// Wait for workers to exit
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			// Success
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_FailedJobMarksDocFailed(t *testing.T) {
	store := newMockDocStatusStore()
	store.docs["/tmp/broken.pdf"] = docModel.DocStatus{
		FilePath: "/tmp/broken.pdf",
		Status:   docModel.DocStatusPending,
	}
	jobSvc := &job.Service{
		JobChannel:     make(chan jobModel.Job, 1),
		DocStatusStore: store,
	}
	InitServices(jobSvc, &MockPipelineService{Fail: true})
	logger = logger_i.NewLogger("TestWorkerPool")

	executeJob(jobModel.Job{
		Id:      "test-fail",
		JobType: jobModel.JobTypeIndexFile,
		JobPayload: jobModel.JobPayload{
			FilePath: "/tmp/broken.pdf",
		},
	})

	doc, _ := store.GetDocByFilePath(context.Background(), "/tmp/broken.pdf")
	if doc.Status != docModel.DocStatusFailed {
		t.Errorf("Expected FAILED, got %s", doc.Status)
	}
	if doc.ErrorMsg == "" {
		t.Error("Expected an error message on the failed record")
	}
}

func TestWorker_IdleTimeout(t *testing.T) {
	// Temporarily override config/globals for test
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 2) // Must be > 1 based on your logic
	logger = logger_i.NewLogger("TestWorkerPool")
	jobSvc := &job.Service{
		JobChannel:     make(chan jobModel.Job),
		DocStatusStore: newMockDocStatusStore(),
	}
	InitServices(jobSvc, &MockPipelineService{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	// Spawn 1 worker manually
	createWorker()
	time.Sleep(config.IdleWorkerTimeout)

	time.Sleep(100 * time.Millisecond)
	count := atomic.LoadInt64(&currentWorkerCount)
	if count != 0 {
		t.Errorf("Assertion Failed: Worker should have timed out and retired, but count is %d", count)
	}
}

package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/data/redisStore"
	"github.com/mkalva/DocIngestAPI/internal/data/store"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	"github.com/redis/go-redis/v9"
)

func TestRedisDocStatusStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	docStore := store.TestDocStatusStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	filePath := "/data/rag_inputs/report.pdf"

	testDoc := docModel.DocStatus{
		Id:       "doc_abc_123",
		FilePath: filePath,
		FileName: "report.pdf",
		TrackId:  "upload_20260815_104500_1b9f4c2a",
		Status:   docModel.DocStatusPending,
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := docStore.SaveDocStatus(ctx, testDoc); err != nil {
			t.Fatalf("SaveDocStatus failed: %v", err)
		}

		retrieved, found := docStore.GetDocByFilePath(ctx, filePath)
		if !found {
			t.Fatal("Doc was saved but not found in Redis")
		}
		if retrieved.Status != docModel.DocStatusPending {
			t.Errorf("Status mismatch! Got %s, want %s", retrieved.Status, docModel.DocStatusPending)
		}
		if retrieved.TrackId != testDoc.TrackId {
			t.Errorf("TrackId mismatch! Got %s, want %s", retrieved.TrackId, testDoc.TrackId)
		}
	})

	t.Run("Get Non-Existent Doc", func(t *testing.T) {
		_, found := docStore.GetDocByFilePath(ctx, "/data/rag_inputs/ghost.pdf")
		if found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Track Index Lookup", func(t *testing.T) {
		second := testDoc
		second.Id = "doc_abc_456"
		second.FilePath = "/data/rag_inputs/appendix.pdf"
		second.FileName = "appendix.pdf"
		if err := docStore.SaveDocStatus(ctx, second); err != nil {
			t.Fatalf("SaveDocStatus failed: %v", err)
		}

		docs, err := docStore.GetDocsByTrackId(ctx, testDoc.TrackId)
		if err != nil {
			t.Fatalf("GetDocsByTrackId failed: %v", err)
		}
		if len(docs) != 2 {
			t.Errorf("Expected 2 docs for track id, got %d", len(docs))
		}
	})

	t.Run("Status Update Overwrites", func(t *testing.T) {
		updated := testDoc
		updated.Status = docModel.DocStatusProcessed
		updated.ChunksCount = 42
		if err := docStore.SaveDocStatus(ctx, updated); err != nil {
			t.Fatalf("SaveDocStatus failed: %v", err)
		}

		retrieved, found := docStore.GetDocByFilePath(ctx, filePath)
		if !found {
			t.Fatal("Doc vanished after update")
		}
		if retrieved.Status != docModel.DocStatusProcessed || retrieved.ChunksCount != 42 {
			t.Errorf("Update not persisted: %+v", retrieved)
		}
	})

	t.Run("Delete Doc", func(t *testing.T) {
		docStore.DeleteDocStatus(ctx, filePath)

		if _, found := docStore.GetDocByFilePath(ctx, filePath); found {
			t.Error("Doc still exists in Redis after DeleteDocStatus call")
		}

		docs, err := docStore.GetDocsByTrackId(ctx, testDoc.TrackId)
		if err != nil {
			t.Fatalf("GetDocsByTrackId failed: %v", err)
		}
		for _, d := range docs {
			if d.FilePath == filePath {
				t.Error("Deleted doc still listed under its track id")
			}
		}
	})
}

func TestInMemoryDocStatusStore(t *testing.T) {
	memStore := store.InitInMemoryDocStatusStore()
	ctx := context.Background()

	doc := docModel.DocStatus{
		Id:       "doc_mem_1",
		FilePath: "/inputs/a.txt",
		TrackId:  "upload_20260815_104500_cafebabe",
		Status:   docModel.DocStatusPending,
	}

	if err := memStore.SaveDocStatus(ctx, doc); err != nil {
		t.Fatalf("SaveDocStatus failed: %v", err)
	}

	got, found := memStore.GetDocByFilePath(ctx, doc.FilePath)
	if !found || got.Id != doc.Id {
		t.Fatalf("GetDocByFilePath = %+v, %v", got, found)
	}

	docs, err := memStore.GetDocsByTrackId(ctx, doc.TrackId)
	if err != nil || len(docs) != 1 {
		t.Fatalf("GetDocsByTrackId = %v, %v", docs, err)
	}

	memStore.DeleteDocStatus(ctx, doc.FilePath)
	if _, found := memStore.GetDocByFilePath(ctx, doc.FilePath); found {
		t.Error("Doc still present after delete")
	}
	docs, _ = memStore.GetDocsByTrackId(ctx, doc.TrackId)
	if len(docs) != 0 {
		t.Error("Track index not cleaned up after delete")
	}
}

func TestRedisDocStatusStore_Race(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	docStore := store.TestDocStatusStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")
	doc := docModel.DocStatus{Id: "race-doc", FilePath: "/inputs/race.pdf"}

	const workers = 50
	for i := 0; i < workers; i++ {
		go func() {
			_ = docStore.SaveDocStatus(ctx, doc)
			_, _ = docStore.GetDocByFilePath(ctx, "/inputs/race.pdf")
		}()
	}
}

package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mkalva/DocIngestAPI/internal/adapter/utils"
	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/domain/commonModels"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/embedding"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/vectorDB"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

//splitter

func splitTextIntoChunks(text string, limit int, overlap int) []string {
	var chunks []string

	// If text is already small enough, just return it
	if len(text) <= limit {
		return []string{text}
	}

	// Separators ordered from "best" to "worst" for semantic meaning
	separators := []string{"\n\n", "\n", ". ", " ", ""}

	var splitChar string
	found := false
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		// Hard cut if no separator found (rare)
		return []string{text[:limit]}
	}

	parts := strings.Split(text, splitChar)
	var currentChunk strings.Builder

	for _, part := range parts {
		// If adding the part exceeds the limit
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			// Handle overlap: start the next chunk with the end of the previous one
			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 && splitChar != "" {
			currentChunk.WriteString(splitChar)
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".txt", ".rtf", ".odt":
		return commonModels.DOCX
	default:
		return commonModels.ERR
	}
}

func extractText(path string, contentType commonModels.DocType) ([]rawPage, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX:
		return extractDocLike(path)

	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

func PrepareChunks(pages []rawPage, doc commonModels.Document, embeddingModel string) []commonModels.DocChunk {
	var allChunks []commonModels.DocChunk

	for _, page := range pages {
		// 1. Split the text of this specific page
		stringChunks := splitTextIntoChunks(page.Content, config.ChunkSizeChars, config.ChunkOverlapChars)

		// 2. Map strings into DocChunk structs
		for i, text := range stringChunks {
			allChunks = append(allChunks, commonModels.DocChunk{
				Doc:                doc,
				ChunkId:            utils.GetNewUUID(),
				Chunk:              text,
				PageNum:            page.Number,
				ChunkPageOrder:     i,
				EmbeddingDimension: embeddingModel, //this can help us later if we want to have multiple embedding models

			})
		}
	}

	return allChunks
}

func BatchIngest(ctx context.Context, chunks []commonModels.DocChunk, vectorDatabase vectorDB.DataProcessor, embedder embedding.Embedder) error {
	logger = logger_i.NewLogger("Batch Ingestion")

	batchSize := config.IngestBatchSize
	isHugeDataSet := false

	if len(chunks) > 1000000 { //we only want to do this if there is a huge document
		isHugeDataSet = true
		logger.Debug("Is a huge dataset")
	}

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		currentBatch := chunks[i:end]

		// 1. Extract just the text strings for the embedder
		var texts []string
		for _, c := range currentBatch {
			if c.Chunk != "" {
				texts = append(texts, c.Chunk)
			}
		}

		logger.Debug("Starting embedding call", "current batch length ", len(currentBatch), "length of texts", len(texts))
		// vectors is [][]float32
		vectors, err := embedder.BatchEmbedding(ctx, texts, isHugeDataSet)
		if err != nil {
			return fmt.Errorf("embedding batch failed: %w", err)
		}

		// 2. Upsert the batch to the vector store
		if err = vectorDatabase.UpsertBatch(ctx, config.VectorCollectionName, currentBatch, vectors); err != nil {
			return fmt.Errorf("vector upsert failed: %w", err)
		}
	}
	return nil
}

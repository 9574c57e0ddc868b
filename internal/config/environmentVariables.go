package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//auth - token comes from env in prod, this is the dev default
	NoAuthBypass = false
	AuthToken    = "dev-token"

	//document intake
	InputDirName      = "rag_inputs"
	MaxUploadSize     = 32 << 20 //32mb multipart memory cap
	MetadataSuffix    = ".meta.json"
	TrackUploadPrefix = "upload"
	TrackInsertPrefix = "insert"

	//track_id layout: <prefix>_<yyyymmdd_hhmmss>_<8 hex chars>
	TrackTimestampLayout = "20060102_150405"

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//index job buffer limit
	BufferLimit = 100

	//single indexing job budget - extraction + embedding + upsert
	IndexJobTimeout = 5 * time.Minute

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = ""
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantKeepAliveTimeout  = 30 * time.Second
	VectorCollectionName    = "doc-chunks"

	//embeddings - provider is "google" or "openai"
	EmbeddingProvider                   = "google"
	EmbeddingOutputDimensionality int32 = 1536
	GoogleEmbeddingModel                = "gemini-embedding-001"
	GoogleEmbeddingAPIKey               = ""
	OpenAIEmbeddingModel                = "text-embedding-3-small"
	OpenAIAPIKey                        = ""

	//chunking
	ChunkSizeChars    = 1000
	ChunkOverlapChars = 150
	IngestBatchSize   = 100

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisDocStatusStore = 0

	//redis timeouts
	RedisDocStatusTTL = 7 * 24 * time.Hour
)

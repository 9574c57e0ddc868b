// @title           Document Ingest API
// @version         1.0
// @description     This API handles asynchronous document ingestion and indexing
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/mkalva/DocIngestAPI/internal/config"
	"github.com/mkalva/DocIngestAPI/internal/data/store"
	"github.com/mkalva/DocIngestAPI/internal/docmanager"
	"github.com/mkalva/DocIngestAPI/internal/domain/docModel"
	jobmodel "github.com/mkalva/DocIngestAPI/internal/domain/jobModel"
	"github.com/mkalva/DocIngestAPI/internal/handlers"
	"github.com/mkalva/DocIngestAPI/internal/job"
	"github.com/mkalva/DocIngestAPI/internal/pipeline"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/embedding"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/embedding/googleEmbedding"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/embedding/openaiEmbedding"
	"github.com/mkalva/DocIngestAPI/internal/pipeline/vectorDB/qdrantDB"
	"github.com/mkalva/DocIngestAPI/internal/server"
	"github.com/mkalva/DocIngestAPI/internal/worker"
	"github.com/mkalva/DocIngestAPI/pkg/logger_i"
)

var (
	listenAddr        string
	inputDir          string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&inputDir, "input-dir", "", "directory where uploaded documents are staged")
	flag.Parse()

	if inputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			logger.Error("Could not resolve working directory", "error", err)
			return
		}
		inputDir = filepath.Join(cwd, config.InputDirName)
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and document status store
	var docStatusStore docModel.DocStatusStore
	if redisStore := store.GetRedisDocStatusStore(serviceContext); redisStore != nil {
		docStatusStore = redisStore
	} else {
		logger.Error("Redis store is offline, falling back to in-memory status store")
		docStatusStore = store.InitInMemoryDocStatusStore()
	}

	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		DocStatusStore:    docStatusStore,
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	vectorDB := qdrantDB.GetQdrantClient(serviceContext)
	embeddingService := newEmbedder(serviceContext)

	if vectorDB == nil || embeddingService == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorDB", vectorDB != nil, "EmbeddingService", embeddingService != nil)
		return
	}

	pipelineService := pipeline.NewService(vectorDB, embeddingService)

	docManager := docmanager.NewManager(inputDir, docmanager.DefaultExtensions)
	if err := docManager.EnsureInputDir(); err != nil {
		logger.Error("Could not create input directory", "dir", inputDir, "error", err)
		return
	}
	documentHandler := handlers.NewDocumentHandler(docManager, service)

	//init worker pool
	worker.InitServices(service, pipelineService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, documentHandler)

	<-stopExecution
	logger.Info("Server stopped")
}

func newEmbedder(ctx context.Context) embedding.Embedder {
	switch config.EmbeddingProvider {
	case "openai":
		apikey := os.Getenv("OPENAI_API_KEY")
		if apikey == "" {
			apikey = config.OpenAIAPIKey
		}
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, apikey)
	default:
		apikey := os.Getenv("GEMINI_API_KEY")
		if apikey == "" {
			apikey = config.GoogleEmbeddingAPIKey
		}
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, apikey)
	}
}

package http

import (
	"context"
	"fmt"
	"os"
	"strings"

	"WSpeicher/internal/config"
	"WSpeicher/internal/initial"
	archiveService "WSpeicher/internal/modules/archive/application/service"
	"WSpeicher/internal/modules/archive/infrastructure/chunking"
	archiveEmbedding "WSpeicher/internal/modules/archive/infrastructure/embedding"
	"WSpeicher/internal/modules/archive/infrastructure/pdfdoc"
	archivePersistence "WSpeicher/internal/modules/archive/infrastructure/persistence"
	archivePipeline "WSpeicher/internal/modules/archive/infrastructure/pipeline"
	"WSpeicher/internal/modules/archive/infrastructure/queue"
	"WSpeicher/internal/modules/archive/infrastructure/vectordb"
	archiveHandler "WSpeicher/internal/modules/archive/interface/http"
	assistantService "WSpeicher/internal/modules/assistant/application/service"
	"WSpeicher/internal/modules/assistant/domain/session"
	"WSpeicher/internal/modules/assistant/infrastructure/llm"
	assistantPersistence "WSpeicher/internal/modules/assistant/infrastructure/persistence"
	assistantPipeline "WSpeicher/internal/modules/assistant/infrastructure/pipeline"
	assistantHandler "WSpeicher/internal/modules/assistant/interface/http"
	nutzerPersistence "WSpeicher/internal/modules/nutzer/infrastructure/persistence"
	"WSpeicher/pkg/audit"
	"WSpeicher/pkg/ssl"
	"WSpeicher/pkg/zlog"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var GE *gin.Engine

func init() {
	conf := config.GetConfig()
	ctx := context.Background()

	GE = gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	GE.Use(cors.New(corsConfig))
	GE.Use(ssl.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port))

	dumpDir := strings.TrimSpace(conf.StorageConfig.DumpDir)
	if dumpDir == "" {
		dumpDir = "_Dokumentendump_"
	}
	archivDir := strings.TrimSpace(conf.StorageConfig.ArchivDir)
	if archivDir == "" {
		archivDir = "Archiv"
	}
	for _, dir := range []string{dumpDir, archivDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			zlog.Fatal(fmt.Sprintf("failed to create storage dir %s: %v", dir, err))
		}
	}

	// 向量链路
	embedder, embMeta, err := archiveEmbedding.NewEmbedderFromConfig(ctx, conf)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("embedding init failed: %v", err))
	}
	zlog.Info(fmt.Sprintf("embedding provider: %s model: %s dim: %d", embMeta.Provider, embMeta.Model, embMeta.Dim))

	if initial.MilvusClient == nil {
		zlog.Fatal("milvus is not configured")
	}
	collection := strings.TrimSpace(conf.MilvusConfig.CollectionName)
	if collection == "" {
		collection = "dokument_chunks"
	}
	metricType := entity.COSINE
	if mt := strings.TrimSpace(conf.MilvusConfig.MetricType); mt != "" {
		metricType = entity.MetricType(mt)
	}
	milvusStore, err := vectordb.NewMilvusStore(initial.MilvusClient, collection, embMeta.Dim, metricType)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("milvus store init failed: %v", err))
	}
	indexer, err := vectordb.NewVectorIndexer(milvusStore, embedder)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("vector indexer init failed: %v", err))
	}

	// 入库链路
	var chunker *chunking.SimpleChunker
	if conf.IngestConfig.UseRecursive {
		chunker, err = chunking.NewRecursiveChunker(conf.IngestConfig.ChunkSize, conf.IngestConfig.ChunkOverlap)
	} else {
		chunker, err = chunking.NewSimpleChunker(conf.IngestConfig.ChunkSize, conf.IngestConfig.ChunkOverlap)
	}
	if err != nil {
		zlog.Fatal(fmt.Sprintf("chunker init failed: %v", err))
	}

	auditPath := strings.TrimSpace(conf.StorageConfig.AuditLog)
	if auditPath == "" {
		auditPath = "logs/WSpeicher_Audit.log"
	}
	auditLog := audit.New(auditPath)
	reader := pdfdoc.NewPDFReader()

	var publisher archivePipeline.TerminalEventPublisher
	if len(conf.KafkaConfig.Brokers) > 0 {
		p, err := queue.NewSaramaIngestPublisher(queue.PublisherConfig{
			Brokers:  conf.KafkaConfig.Brokers,
			ClientID: conf.KafkaConfig.ClientID,
			Topic:    conf.KafkaConfig.IngestTopic,
		})
		if err != nil {
			zlog.Warn(fmt.Sprintf("kafka publisher init failed, ingest events disabled: %v", err))
		} else {
			publisher = p
		}
	}

	dokumentRepo := archivePersistence.NewDokumentRepository(initial.GormDB)
	schlagwortRepo := archivePersistence.NewSchlagwortRepository(initial.GormDB)
	kundeRepo := nutzerPersistence.NewKundeRepository(initial.GormDB)

	ingestPipe, err := archivePipeline.NewIngestPipeline(
		dokumentRepo, schlagwortRepo, indexer, reader, chunker,
		auditLog, publisher, dumpDir, archivDir,
		conf.IngestConfig.StrictResolution,
	)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("ingest pipeline init failed: %v", err))
	}

	// 对话链路
	chatModel, chatMeta, err := llm.NewChatModelFromConfig(ctx, conf)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("chat model init failed: %v", err))
	}
	zlog.Info(fmt.Sprintf("chat model provider: %s model: %s", chatMeta.Provider, chatMeta.Model))
	serialModel := llm.NewSerialChatModel(chatModel)

	var sessionStore session.Store
	if initial.RedisClient != nil {
		sessionStore, err = assistantPersistence.NewRedisSessionStore(initial.RedisClient)
		if err != nil {
			zlog.Fatal(fmt.Sprintf("redis session store init failed: %v", err))
		}
	} else {
		sessionStore = session.NewMemoryStore()
	}

	chatPipe, err := assistantPipeline.NewChatPipeline(sessionStore, indexer, serialModel)
	if err != nil {
		zlog.Fatal(fmt.Sprintf("chat pipeline init failed: %v", err))
	}

	ingestSvc := archiveService.NewIngestService(ingestPipe, indexer, dumpDir)
	dokumentSvc := archiveService.NewDokumentService(dokumentRepo, dumpDir)
	schlagwortSvc := archiveService.NewSchlagwortService(schlagwortRepo)
	chatSvc := assistantService.NewChatService(chatPipe, sessionStore, kundeRepo, conf.IngestConfig.RetrieveTopK)
	mappingSvc := assistantService.NewMappingService(schlagwortRepo, serialModel)

	uploadH := archiveHandler.NewUploadHandler(ingestSvc)
	dokumentH := archiveHandler.NewDokumentHandler(dokumentSvc)
	schlagwortH := archiveHandler.NewSchlagwortHandler(schlagwortSvc)
	chatH := assistantHandler.NewChatHandler(chatSvc)
	mappingH := assistantHandler.NewMappingHandler(mappingSvc)

	GE.POST("/archive/upload", uploadH.Upload)
	GE.GET("/archive/document/:id", dokumentH.Get)
	GE.GET("/archive/pdf/:name", dokumentH.DownloadStaged)
	GE.GET("/schlagworte", schlagwortH.List)
	GE.POST("/schlagworte/create", schlagwortH.Create)
	GE.POST("/schlagworte/suggest", mappingH.Suggest)
	GE.POST("/chat", chatH.Chat)
	GE.POST("/chat/clear", chatH.Clear)
}

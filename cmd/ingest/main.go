package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"WSpeicher/internal/config"
	"WSpeicher/internal/initial"
	"WSpeicher/internal/modules/archive/infrastructure/chunking"
	archiveEmbedding "WSpeicher/internal/modules/archive/infrastructure/embedding"
	"WSpeicher/internal/modules/archive/infrastructure/pdfdoc"
	archivePersistence "WSpeicher/internal/modules/archive/infrastructure/persistence"
	archivePipeline "WSpeicher/internal/modules/archive/infrastructure/pipeline"
	"WSpeicher/internal/modules/archive/infrastructure/vectordb"
	"WSpeicher/pkg/audit"
	"WSpeicher/pkg/zlog"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// 处理单个暂存文档的命令行入口。
// 退出输出三态约定：SUCCESS（已归档）、ERROR（该文档入库失败）、
// ERROR_FATAL（环境/初始化错误，与具体文档无关）。
func main() {
	filename := flag.String("file", "", "暂存区内待入库的 PDF 文件名")
	operator := flag.String("operator", "cli", "操作者标识")
	flag.Parse()

	defer func() {
		if r := recover(); r != nil {
			zlog.Error(fmt.Sprintf("ingest panic: %v\n%s", r, debug.Stack()))
			fmt.Println("ERROR_FATAL")
			os.Exit(2)
		}
	}()

	if strings.TrimSpace(*filename) == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -file <name.pdf> [-operator <name>]")
		fmt.Println("ERROR_FATAL")
		os.Exit(2)
	}

	res, err := runIngest(*filename, *operator)
	if err != nil {
		zlog.Error("ingest setup failed: " + err.Error())
		fmt.Println("ERROR_FATAL")
		os.Exit(2)
	}

	if res.Status == archivePipeline.StatusSuccess {
		fmt.Println("SUCCESS")
		return
	}
	fmt.Printf("ERROR: %s\n", res.Reason)
	os.Exit(1)
}

func runIngest(filename, operator string) (*archivePipeline.IngestResult, error) {
	conf := config.GetConfig()
	ctx := context.Background()

	dumpDir := strings.TrimSpace(conf.StorageConfig.DumpDir)
	if dumpDir == "" {
		dumpDir = "_Dokumentendump_"
	}
	archivDir := strings.TrimSpace(conf.StorageConfig.ArchivDir)
	if archivDir == "" {
		archivDir = "Archiv"
	}
	if err := os.MkdirAll(archivDir, 0o755); err != nil {
		return nil, err
	}

	embedder, embMeta, err := archiveEmbedding.NewEmbedderFromConfig(ctx, conf)
	if err != nil {
		return nil, err
	}

	if initial.MilvusClient == nil {
		return nil, fmt.Errorf("milvus is not configured")
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
		return nil, err
	}
	indexer, err := vectordb.NewVectorIndexer(milvusStore, embedder)
	if err != nil {
		return nil, err
	}

	var chunker *chunking.SimpleChunker
	if conf.IngestConfig.UseRecursive {
		chunker, err = chunking.NewRecursiveChunker(conf.IngestConfig.ChunkSize, conf.IngestConfig.ChunkOverlap)
	} else {
		chunker, err = chunking.NewSimpleChunker(conf.IngestConfig.ChunkSize, conf.IngestConfig.ChunkOverlap)
	}
	if err != nil {
		return nil, err
	}

	auditPath := strings.TrimSpace(conf.StorageConfig.AuditLog)
	if auditPath == "" {
		auditPath = "logs/WSpeicher_Audit.log"
	}

	pipe, err := archivePipeline.NewIngestPipeline(
		archivePersistence.NewDokumentRepository(initial.GormDB),
		archivePersistence.NewSchlagwortRepository(initial.GormDB),
		indexer,
		pdfdoc.NewPDFReader(),
		chunker,
		audit.New(auditPath),
		nil, // CLI 不发布 Kafka 事件
		dumpDir, archivDir,
		conf.IngestConfig.StrictResolution,
	)
	if err != nil {
		return nil, err
	}

	return pipe.Ingest(ctx, &archivePipeline.IngestRequest{Filename: filename, Operator: operator})
}

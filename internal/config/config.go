package config

import (
	"log"
	"os"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

// StorageConfig 文档落盘目录：暂存区、归档区与审计日志
type StorageConfig struct {
	DumpDir   string `toml:"dumpDir"`   // 上传后待入库的暂存目录
	ArchivDir string `toml:"archivDir"` // 归档目录，文件按生成的 file_id 命名
	AuditLog  string `toml:"auditLog"`  // 入库失败审计日志文件
}

type MilvusConfig struct {
	Address        string `toml:"address"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	DBName         string `toml:"dbName"`
	CollectionName string `toml:"collectionName"`
	VectorDim      int    `toml:"vectorDim"`
	MetricType     string `toml:"metricType"`
}

type KafkaConfig struct {
	Brokers     []string `toml:"brokers"`
	ClientID    string   `toml:"clientID"`
	IngestTopic string   `toml:"ingestTopic"`
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

type AIEmbeddingConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"apiKey"`
	BaseURL        string `toml:"baseURL"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type AIChatModelConfig struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"apiKey"`
	BaseURL        string `toml:"baseURL"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
}

type AIConfig struct {
	Embedding AIEmbeddingConfig `toml:"embedding"`
	ChatModel AIChatModelConfig `toml:"chatModel"`
}

// IngestConfig 入库管道参数
type IngestConfig struct {
	ChunkSize        int  `toml:"chunkSize"`        // 切片大小（字符数，默认 400）
	ChunkOverlap     int  `toml:"chunkOverlap"`     // 切片重叠（字符数，默认 50）
	UseRecursive     bool `toml:"useRecursive"`     // 是否按结构分隔符切片
	StrictResolution bool `toml:"strictResolution"` // 严格模式：字段必须命中 Schlagwort 或同义词
	RetrieveTopK     int  `toml:"retrieveTopK"`     // 检索 Top-K（默认 5）
}

type Config struct {
	MainConfig    `toml:"mainConfig"`
	MysqlConfig   `toml:"mysqlConfig"`
	MilvusConfig  `toml:"milvusConfig"`
	KafkaConfig   `toml:"kafkaConfig"`
	RedisConfig   `toml:"redisConfig"`
	AIConfig      `toml:"aiConfig"`
	LogConfig     `toml:"logConfig"`
	StorageConfig `toml:"storageConfig"`
	IngestConfig  `toml:"ingestConfig"`
}

var config *Config

func LoadConfig() error {
	if config == nil {
		config = new(Config)
	}
	configPath := os.Getenv("WSPEICHER_CONFIG")
	if configPath == "" {
		configPath = "configs/config_local.toml"
	}
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}

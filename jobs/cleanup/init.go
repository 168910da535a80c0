package main

import (
	"log/slog"
	"os"
	"time"

	cachesignal "github.com/assistant-support/web-sale-sub000/pkg/cache-signal"
	"github.com/assistant-support/web-sale-sub000/pkg/db"
	"github.com/assistant-support/web-sale-sub000/pkg/utils"
	"gopkg.in/yaml.v2"

	outreachDB "github.com/assistant-support/web-sale-sub000/pkg/db/outreach"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_OUTREACH_DB_USERNAME  = "OUTREACH_DB_USERNAME"
	ENV_OUTREACH_DB_PASSWORD  = "OUTREACH_DB_PASSWORD"
	ENV_CACHE_SERVICE_API_KEY = "CACHE_SERVICE_API_KEY"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		OutreachDB db.DBConfigYaml `json:"outreach_db" yaml:"outreach_db"`
	} `json:"db_configs" yaml:"db_configs"`

	InstanceIDs []string `json:"instance_ids" yaml:"instance_ids"`

	// Finished jobs older than this many days are removed. Can be overridden
	// per instance with JOB_RETENTION_DAYS_FOR_{INSTANCE_ID}.
	JobRetentionDays int `json:"job_retention_days" yaml:"job_retention_days"`

	// Read cache invalidation endpoint
	CacheServiceConfig cachesignal.ClientConfigYaml `json:"cache_service_config" yaml:"cache_service_config"`
}

var conf config

var (
	outreachDBService *outreachDB.OutreachDBService
	cacheClient       *cachesignal.Client
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
		conf.Logging.IncludeBuildInfo,
	)

	// Override secrets from environment variables
	secretsOverride()

	if conf.JobRetentionDays < 1 {
		conf.JobRetentionDays = DEFAULT_JOB_RETENTION_DAYS
	}

	// init db
	initDBs()

	// init cache invalidation client
	if conf.CacheServiceConfig.Timeout == 0 {
		conf.CacheServiceConfig.Timeout = 10 * time.Second
	}
	cacheClient = cachesignal.NewClient(conf.CacheServiceConfig)
}

func secretsOverride() {
	// Override secrets from environment variables

	if dbUsername := os.Getenv(ENV_OUTREACH_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.OutreachDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_OUTREACH_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.OutreachDB.Password = dbPassword
	}

	if apiKey := os.Getenv(ENV_CACHE_SERVICE_API_KEY); apiKey != "" {
		conf.CacheServiceConfig.APIKey = apiKey
	}
}

func initDBs() {
	var err error
	outreachDBService, err = outreachDB.NewOutreachDBService(db.DBConfigFromYamlObj(conf.DBConfigs.OutreachDB, conf.InstanceIDs))
	if err != nil {
		slog.Error("Error connecting to Outreach DB", slog.String("error", err.Error()))
		panic(err)
	}
}

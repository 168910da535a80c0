package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/assistant-support/web-sale-sub000/pkg/apihelpers"
	cachesignal "github.com/assistant-support/web-sale-sub000/pkg/cache-signal"
	"github.com/assistant-support/web-sale-sub000/pkg/db"
	"github.com/assistant-support/web-sale-sub000/pkg/utils"
	"gopkg.in/yaml.v2"

	muDB "github.com/assistant-support/web-sale-sub000/pkg/db/management-user"
	outreachDB "github.com/assistant-support/web-sale-sub000/pkg/db/outreach"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_OUTREACH_DB_USERNAME        = "OUTREACH_DB_USERNAME"
	ENV_OUTREACH_DB_PASSWORD        = "OUTREACH_DB_PASSWORD"
	ENV_MANAGEMENT_USER_DB_USERNAME = "MANAGEMENT_USER_DB_USERNAME"
	ENV_MANAGEMENT_USER_DB_PASSWORD = "MANAGEMENT_USER_DB_PASSWORD"

	ENV_MANAGEMENT_USER_JWT_SIGN_KEY = "MANAGEMENT_USER_JWT_SIGN_KEY"
	ENV_TASK_RESULT_API_KEY          = "TASK_RESULT_API_KEY"
	ENV_CACHE_SERVICE_API_KEY        = "CACHE_SERVICE_API_KEY"
	ENV_CACHE_SERVICE_TIMEOUT        = "CACHE_SERVICE_TIMEOUT"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	// JWT configs
	ManagementUserJWTSignKey string `json:"management_user_jwt_sign_key" yaml:"management_user_jwt_sign_key"`

	AllowedInstanceIDs []string `json:"allowed_instance_ids" yaml:"allowed_instance_ids"`

	// API keys accepted from the task executor
	TaskResultAPIKeys []string `json:"task_result_api_keys" yaml:"task_result_api_keys"`

	// DB configs
	DBConfigs struct {
		OutreachDB       db.DBConfigYaml `json:"outreach_db" yaml:"outreach_db"`
		ManagementUserDB db.DBConfigYaml `json:"management_user_db" yaml:"management_user_db"`
	} `json:"db_configs" yaml:"db_configs"`

	// Read cache invalidation endpoint
	CacheServiceConfig cachesignal.ClientConfigYaml `json:"cache_service_config" yaml:"cache_service_config"`
}

var conf config

var (
	outreachDBService *outreachDB.OutreachDBService
	muDBService       *muDB.ManagementUserDBService
	cacheClient       *cachesignal.Client
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		fmt.Println("Error reading config file: " + err.Error())
		conf = config{}
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		fmt.Println("Error reading config file: " + err.Error())
		conf = config{}
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

	if conf.ManagementUserJWTSignKey == "" {
		slog.Error("Management user JWT sign key not set - configure MANAGEMENT_USER_JWT_SIGN_KEY env variable.")
		panic("Management user JWT sign key not set")
	}

	// init db
	initDBs()

	// init cache invalidation client
	initCacheClient()
}

func secretsOverride() {
	// Override secrets from environment variables

	if dbUsername := os.Getenv(ENV_OUTREACH_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.OutreachDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_OUTREACH_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.OutreachDB.Password = dbPassword
	}

	if dbUsername := os.Getenv(ENV_MANAGEMENT_USER_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.ManagementUserDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_MANAGEMENT_USER_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.ManagementUserDB.Password = dbPassword
	}

	if signKey := os.Getenv(ENV_MANAGEMENT_USER_JWT_SIGN_KEY); signKey != "" {
		conf.ManagementUserJWTSignKey = signKey
	}

	if apiKey := os.Getenv(ENV_TASK_RESULT_API_KEY); apiKey != "" {
		conf.TaskResultAPIKeys = append(conf.TaskResultAPIKeys, apiKey)
	}

	if apiKey := os.Getenv(ENV_CACHE_SERVICE_API_KEY); apiKey != "" {
		conf.CacheServiceConfig.APIKey = apiKey
	}
}

func initDBs() {
	var err error
	outreachDBService, err = outreachDB.NewOutreachDBService(db.DBConfigFromYamlObj(conf.DBConfigs.OutreachDB, conf.AllowedInstanceIDs))
	if err != nil {
		slog.Error("Error connecting to Outreach DB", slog.String("error", err.Error()))
		panic(err)
	}

	muDBService, err = muDB.NewManagementUserDBService(db.DBConfigFromYamlObj(conf.DBConfigs.ManagementUserDB, conf.AllowedInstanceIDs))
	if err != nil {
		slog.Error("Error connecting to Management User DB", slog.String("error", err.Error()))
		panic(err)
	}
}

func initCacheClient() {
	if timeoutVal := os.Getenv(ENV_CACHE_SERVICE_TIMEOUT); timeoutVal != "" {
		timeout, err := utils.ParseDurationString(timeoutVal)
		if err != nil {
			slog.Error("error during initCacheClient", slog.String("error", err.Error()), slog.String(ENV_CACHE_SERVICE_TIMEOUT, timeoutVal))
			panic(err)
		}
		conf.CacheServiceConfig.Timeout = timeout
	}
	if conf.CacheServiceConfig.Timeout == 0 {
		conf.CacheServiceConfig.Timeout = 10 * time.Second
	}
	cacheClient = cachesignal.NewClient(conf.CacheServiceConfig)
}

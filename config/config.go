package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/filters"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tableio"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

type Config struct {
	AppName                       string  `env:"APP_NAME" env-default:"clover-api" validate:"required"`
	Port                          int     `env:"PORT" env-default:"3004" validate:"min=1,max=65535"`
	LogLevel                      string  `env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	PrettyLogs                    bool    `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int     `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"300"`
	HttpServerReadTimeoutSeconds  int     `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	StartupMaxAttempts            int     `env:"STARTUP_MAX_ATTEMPTS" env-default:"5" validate:"min=1"`
	TracingSampleRatio            float64 `env:"TRACING_SAMPLE_RATIO" env-default:"1" validate:"min=0,max=1"`

	// OTLP trace export, disabled when endpoint is empty
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:""`
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc" validate:"oneof=grpc http"`
	OTLPInsecure bool   `env:"OTLP_INSECURE" env-default:"true"`

	// PostgreSQL (run snapshots)
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"clover"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"migrations"`
	DatabaseMigrationVersion      uint          `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Graph Database (Memgraph), export is skipped when host is empty
	GraphDBHost      string `env:"GRAPH_DB_HOST" env-default:""`
	GraphDBPort      int    `env:"GRAPH_DB_PORT" env-default:"7687"`
	GraphDBUser      string `env:"GRAPH_DB_USER" env-default:""`
	GraphDBPassword  string `env:"GRAPH_DB_PASSWORD" env-default:""`
	GraphDBName      string `env:"GRAPH_DB_NAME" env-default:""`
	GraphDBPoolSize  int    `env:"GRAPH_DB_POOL_SIZE" env-default:"10"`
	GraphDBBatchSize int    `env:"GRAPH_DB_BATCH_SIZE" env-default:"500"`

	// Kafka Producer, events are skipped when no broker is set
	KafkaBrokers      []string `env:"KAFKA_BROKERS"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"clover-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy" validate:"oneof=snappy gzip lz4 zstd none"`

	// Redis run lock, runs are unguarded when host is empty
	RedisHost     string        `env:"REDIS_HOST" env-default:""`
	RedisPort     int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	RunLockTTL    time.Duration `env:"RUN_LOCK_TTL" env-default:"1h"`

	// Processing
	RoleWorkerCount    int      `env:"ROLE_WORKER_COUNT" env-default:"4" validate:"min=1"`
	Products           []string `env:"PRODUCTS"`
	OnlyPhysisch       bool     `env:"ONLY_PHYSISCH" env-default:"false"`
	OnlyEmployees      bool     `env:"ONLY_EMPLOYEES" env-default:"true"`
	DropOtherRelations bool     `env:"DROP_OTHER_RELATIONS" env-default:"false"`
	StrictEmail        bool     `env:"STRICT_EMAIL" env-default:"true"`

	// Inputs
	LookupPath                   string            `env:"LOOKUP_PATH" env-default:"lookup.yaml"`
	OrganizationsPath            string            `env:"ORGANIZATIONS_PATH" env-default:""`
	IndividualsPath              string            `env:"INDIVIDUALS_PATH" env-default:""`
	AssignmentsPath              string            `env:"ASSIGNMENTS_PATH" env-default:""`
	PersonRolesPath              string            `env:"PERSON_ROLES_PATH" env-default:""`
	OrganizationServiceRolesPath string            `env:"ORGANIZATION_SERVICE_ROLES_PATH" env-default:""`
	IndividualServiceRolesPath   string            `env:"INDIVIDUAL_SERVICE_ROLES_PATH" env-default:""`
	PartnerPaths                 map[string]string `env:"PARTNER_PATHS"`
	OutputDir                    string            `env:"OUTPUT_DIR" env-default:"out"`
}

// Load reads envFiles (a missing file is ignored), then the environment
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Database() database.ConnectionConfig {
	return database.ConnectionConfig{
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		User:            c.DatabaseUserName,
		Password:        c.DatabasePassword,
		Name:            c.DatabaseName,
		SSLMode:         c.DatabaseSSLMode,
		MaxOpenConns:    c.DatabaseMaxOpenConns,
		MaxIdleConns:    c.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.DatabaseConnMaxLifetime,
	}
}

func (c *Config) Migration() *database.MigrationConfig {
	return &database.MigrationConfig{
		MigrationFolderPath: c.DatabaseMigrationFolderPath,
		Version:             c.DatabaseMigrationVersion,
		Force:               c.DatabaseMigrationForce,
		AutoRollback:        c.DatabaseMigrationAutoRollback,
	}
}

func (c *Config) Graph() graph.Config {
	return graph.Config{
		Host:        c.GraphDBHost,
		Port:        c.GraphDBPort,
		Username:    c.GraphDBUser,
		Password:    c.GraphDBPassword,
		Database:    c.GraphDBName,
		MaxPoolSize: c.GraphDBPoolSize,
	}
}

func (c *Config) Kafka() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      c.KafkaBrokers,
		Topic:        c.KafkaOutputTopic,
		BatchSize:    c.KafkaBatchSize,
		BatchTimeout: time.Duration(c.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: c.KafkaRequiredAcks,
		Compression:  c.KafkaCompression,
	}
}

func (c *Config) Redis() redis.Config {
	return redis.Config{Host: c.RedisHost, Port: c.RedisPort, Password: c.RedisPassword, DB: c.RedisDB}
}

func (c *Config) OTLP() tracing.OTLPConfig {
	return tracing.OTLPConfig{Endpoint: c.OTLPEndpoint, Protocol: c.OTLPProtocol, Insecure: c.OTLPInsecure}
}

func (c *Config) Tables() tableio.Paths {
	return tableio.Paths{
		Organizations:            c.OrganizationsPath,
		Individuals:              c.IndividualsPath,
		Assignments:              c.AssignmentsPath,
		PersonRoles:              c.PersonRolesPath,
		OrganizationServiceRoles: c.OrganizationServiceRolesPath,
		IndividualServiceRoles:   c.IndividualServiceRolesPath,
		Partners:                 c.PartnerPaths,
	}
}

// RunOptions maps the processing switches onto pipeline options
func (c *Config) RunOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Products = c.Products
	opts.DropOtherRelations = c.DropOtherRelations
	opts.StrictEmail = c.StrictEmail
	opts.Individuals = filters.DefaultIndividualCriteria()
	opts.Individuals.OnlyPhysisch = c.OnlyPhysisch
	opts.Individuals.OnlyEmployees = c.OnlyEmployees
	return opts
}

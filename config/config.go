package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores the application configuration.
type Config struct {
	Port string

	// Track catalog (Deezer-compatible API)
	CatalogAPIURL   string
	CatalogTimeout  time.Duration
	CatalogCacheTTL time.Duration

	// Game engine
	TickInterval      time.Duration
	RoundDuration     time.Duration
	WaitDuration      time.Duration
	NoImmediateRepeat bool
	InboxSize         int
	PhrasesFile       string // optional JSON phrasebook, reloaded on change

	// Redis catalog cache
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MySQL blindtest definitions
	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

// Environment keys. Flags bound in cmd/ reuse the same keys.
const (
	KeyPort              = "PORT"
	KeyCatalogAPIURL     = "CATALOG_API_URL"
	KeyCatalogTimeout    = "CATALOG_TIMEOUT"
	KeyCatalogCacheTTL   = "CATALOG_CACHE_TTL"
	KeyTickInterval      = "GAME_TICK_INTERVAL"
	KeyRoundDuration     = "GAME_ROUND_DURATION"
	KeyWaitDuration      = "GAME_WAIT_DURATION"
	KeyNoImmediateRepeat = "GAME_NO_IMMEDIATE_REPEAT"
	KeyInboxSize         = "GAME_INBOX_SIZE"
	KeyPhrasesFile       = "GAME_PHRASES_FILE"
	KeyRedisEnabled      = "REDIS_ENABLED"
	KeyRedisHost         = "REDIS_HOST"
	KeyRedisPort         = "REDIS_PORT"
	KeyRedisPassword     = "REDIS_PASSWORD"
	KeyRedisDB           = "REDIS_DB"
	KeyDBEnabled         = "DB_ENABLED"
	KeyDBHost            = "DB_HOST"
	KeyDBPort            = "DB_PORT"
	KeyDBUser            = "DB_USER"
	KeyDBPassword        = "DB_PASSWORD"
	KeyDBName            = "DB_NAME"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFile           = "LOG_FILE"
	KeyLogMaxSize        = "LOG_MAX_SIZE_MB"
	KeyLogMaxBackups     = "LOG_MAX_BACKUPS"
	KeyLogMaxAge         = "LOG_MAX_AGE_DAYS"
	KeyLogCompress       = "LOG_COMPRESS"
)

var defaults = map[string]interface{}{
	KeyPort:              "8080",
	KeyCatalogAPIURL:     "https://api.deezer.com",
	KeyCatalogTimeout:    10 * time.Second,
	KeyCatalogCacheTTL:   10 * time.Minute,
	KeyTickInterval:      time.Second,
	KeyRoundDuration:     30 * time.Second,
	KeyWaitDuration:      5 * time.Second,
	KeyNoImmediateRepeat: false,
	KeyInboxSize:         256,
	KeyPhrasesFile:       "",
	KeyRedisEnabled:      false,
	KeyRedisHost:         "127.0.0.1",
	KeyRedisPort:         "6379",
	KeyRedisPassword:     "",
	KeyRedisDB:           0,
	KeyDBEnabled:         false,
	KeyDBHost:            "127.0.0.1",
	KeyDBPort:            "3306",
	KeyDBUser:            "root",
	KeyDBPassword:        "",
	KeyDBName:            "blindtest",
	KeyLogLevel:          "info",
	KeyLogFile:           "",
	KeyLogMaxSize:        100,
	KeyLogMaxBackups:     5,
	KeyLogMaxAge:         30,
	KeyLogCompress:       true,
}

// New returns a viper instance reading the environment, after loading a .env
// file from the working directory if there is one. godotenv never overrides
// variables that are already set.
func New() *viper.Viper {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the environment.
func Load() *Config {
	return FromViper(New())
}

// FromViper materializes a Config from an already prepared viper instance,
// typically one that also has command-line flags bound to it.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Port:              v.GetString(KeyPort),
		CatalogAPIURL:     v.GetString(KeyCatalogAPIURL),
		CatalogTimeout:    v.GetDuration(KeyCatalogTimeout),
		CatalogCacheTTL:   v.GetDuration(KeyCatalogCacheTTL),
		TickInterval:      v.GetDuration(KeyTickInterval),
		RoundDuration:     v.GetDuration(KeyRoundDuration),
		WaitDuration:      v.GetDuration(KeyWaitDuration),
		NoImmediateRepeat: v.GetBool(KeyNoImmediateRepeat),
		InboxSize:         v.GetInt(KeyInboxSize),
		PhrasesFile:       v.GetString(KeyPhrasesFile),
		RedisEnabled:      v.GetBool(KeyRedisEnabled),
		RedisHost:         v.GetString(KeyRedisHost),
		RedisPort:         v.GetString(KeyRedisPort),
		RedisPassword:     v.GetString(KeyRedisPassword),
		RedisDB:           v.GetInt(KeyRedisDB),
		DBEnabled:         v.GetBool(KeyDBEnabled),
		DBHost:            v.GetString(KeyDBHost),
		DBPort:            v.GetString(KeyDBPort),
		DBUser:            v.GetString(KeyDBUser),
		DBPassword:        v.GetString(KeyDBPassword),
		DBName:            v.GetString(KeyDBName),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFile:           v.GetString(KeyLogFile),
		LogMaxSize:        v.GetInt(KeyLogMaxSize),
		LogMaxBackups:     v.GetInt(KeyLogMaxBackups),
		LogMaxAge:         v.GetInt(KeyLogMaxAge),
		LogCompress:       v.GetBool(KeyLogCompress),
	}

	// Non-positive durations would make the scheduler spin or rounds end instantly.
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = 30 * time.Second
	}
	if cfg.WaitDuration < 0 {
		cfg.WaitDuration = 0
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}
	return cfg
}

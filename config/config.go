package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"matchmaker/database"
	"matchmaker/domain/entities"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Primary Discord guild ID

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated); empty keeps events local

	// Roles
	AdminDiscordIDs    []int64       // Discord IDs with admin rights besides server administrators
	RegisteredRoleID   int64         // Granted on /register
	UnregisteredRoleID int64         // Removed on /register
	TierRoleIDs        map[int]int64 // Tier level -> role ID

	// Channels
	ResultsChannelName      string
	AdminResultsChannelName string
	LeaderboardChannelName  string
	MatchCategoryID         int64 // Optional parent category for match channels

	// Match lifecycle
	VoteDuration      time.Duration
	PickTimeout       time.Duration
	ResultPromptDelay time.Duration
	AbortCleanupDelay time.Duration // 0 leaves aborted match channels in place
	StaleVoteGrace    time.Duration
	RatingDelta       int64
	MapPool           []string

	// Debug API
	DebugAPIPort int

	// Logging
	LogLevel string

	// OpenTelemetry
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

// DefaultMapPool is the stock map rotation
var DefaultMapPool = []string{"Urban", "Air Force", "Sandstorm", "Rampage", "District", "Iraq", "Morocco"}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
				instance.DiscordToken = "test-token"
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsAdmin reports whether the Discord ID is listed in ADMIN_DISCORD_IDS
func (c *Config) IsAdmin(discordID int64) bool {
	for _, id := range c.AdminDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}

// TierRoles returns the tier to role mapping
func (c *Config) TierRoles() entities.TierRoles {
	roles := make(entities.TierRoles, len(c.TierRoleIDs))
	for level, role := range c.TierRoleIDs {
		roles[level] = role
	}
	return roles
}

func load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using environment variables")
	}

	config := &Config{
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		ResultsChannelName:      getEnvWithDefault("RESULTS_CHANNEL_NAME", "results"),
		AdminResultsChannelName: getEnvWithDefault("ADMIN_RESULTS_CHANNEL_NAME", "admin-results"),
		LeaderboardChannelName:  getEnvWithDefault("LEADERBOARD_CHANNEL_NAME", "leaderboard"),

		VoteDuration:      getEnvDurationSeconds("VOTE_DURATION_SECONDS", 30),
		PickTimeout:       getEnvDurationSeconds("PICK_TIMEOUT_SECONDS", 60),
		ResultPromptDelay: getEnvDurationSeconds("RESULT_PROMPT_DELAY_SECONDS", 2),
		AbortCleanupDelay: getEnvDurationSeconds("ABORT_CLEANUP_DELAY_SECONDS", 300),
		StaleVoteGrace:    getEnvDurationSeconds("STALE_VOTE_GRACE_SECONDS", 300),
		RatingDelta:       getEnvInt64("RATING_DELTA", 25),
		MapPool:           DefaultMapPool,

		DebugAPIPort: int(getEnvInt64("DEBUG_API_PORT", 8899)),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "matchmaker"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: int(getEnvInt64("OTEL_EXPORT_INTERVAL_MILLIS", 60000)),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	var err error
	if config.AdminDiscordIDs, err = parseIDList(os.Getenv("ADMIN_DISCORD_IDS")); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_DISCORD_IDS: %w", err)
	}
	if config.RegisteredRoleID, err = parseOptionalID(os.Getenv("REGISTERED_ROLE_ID")); err != nil {
		return nil, fmt.Errorf("invalid REGISTERED_ROLE_ID: %w", err)
	}
	if config.UnregisteredRoleID, err = parseOptionalID(os.Getenv("UNREGISTERED_ROLE_ID")); err != nil {
		return nil, fmt.Errorf("invalid UNREGISTERED_ROLE_ID: %w", err)
	}
	if config.MatchCategoryID, err = parseOptionalID(os.Getenv("MATCH_CATEGORY_ID")); err != nil {
		return nil, fmt.Errorf("invalid MATCH_CATEGORY_ID: %w", err)
	}
	if config.TierRoleIDs, err = ParseTierRoleIDs(os.Getenv("TIER_ROLE_IDS")); err != nil {
		return nil, fmt.Errorf("invalid TIER_ROLE_IDS: %w", err)
	}
	if maps := os.Getenv("MAP_POOL"); maps != "" {
		config.MapPool = splitAndTrim(maps)
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}
	if len(config.MapPool) == 0 {
		return nil, fmt.Errorf("MAP_POOL must contain at least one map")
	}
	if config.RatingDelta <= 0 {
		return nil, fmt.Errorf("RATING_DELTA must be positive")
	}

	return config, nil
}

// ParseTierRoleIDs parses "level:roleID" pairs separated by commas
func ParseTierRoleIDs(value string) (map[int]int64, error) {
	roles := make(map[int]int64)
	for _, pair := range splitAndTrim(value) {
		levelStr, roleStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("expected level:roleID, got %q", pair)
		}
		level, err := strconv.Atoi(strings.TrimSpace(levelStr))
		if err != nil {
			return nil, fmt.Errorf("invalid tier level %q: %w", levelStr, err)
		}
		role, err := strconv.ParseInt(strings.TrimSpace(roleStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid role ID %q: %w", roleStr, err)
		}
		roles[level] = role
	}
	return roles, nil
}

func parseIDList(value string) ([]int64, error) {
	var ids []int64
	for _, idStr := range splitAndTrim(value) {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q: %w", idStr, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalID(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func splitAndTrim(value string) []string {
	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationSeconds(key string, defaultSeconds int64) time.Duration {
	return time.Duration(getEnvInt64(key, defaultSeconds)) * time.Second
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		AdminDiscordIDs:         []int64{999999},
		RegisteredRoleID:        5001,
		UnregisteredRoleID:      5002,
		TierRoleIDs:             map[int]int64{1: 101, 2: 102, 3: 103, 4: 104, 5: 105, 6: 106, 7: 107, 8: 108, 9: 109, 10: 110},
		ResultsChannelName:      "results",
		AdminResultsChannelName: "admin-results",
		LeaderboardChannelName:  "leaderboard",
		VoteDuration:            30 * time.Second,
		PickTimeout:             60 * time.Second,
		ResultPromptDelay:       2 * time.Second,
		AbortCleanupDelay:       300 * time.Second,
		StaleVoteGrace:          300 * time.Second,
		RatingDelta:             25,
		MapPool:                 DefaultMapPool,
		DebugAPIPort:            8899,
		LogLevel:                "debug",
		OTelExporterType:        "none",
	}
}

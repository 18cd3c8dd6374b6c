package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/capshealth/healthbot/internal/api"
	"github.com/capshealth/healthbot/internal/chatservice"
	"github.com/capshealth/healthbot/internal/conversation"
	"github.com/capshealth/healthbot/internal/genai"
	"github.com/capshealth/healthbot/internal/store"
	"github.com/capshealth/healthbot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Healthbot state data
	DefaultStateDir = "/var/lib/healthbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "healthbot.db"
	// DefaultChatTimeoutSeconds bounds a single chat exchange
	DefaultChatTimeoutSeconds = 30
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Build module options
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	chatOpts := buildChatServiceOptions(flags)
	convOpts := buildConversationOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping Healthbot with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "chat", len(chatOpts), "conversation", len(convOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(storeOpts, genaiOpts, chatOpts, convOpts, apiOpts); err != nil {
		slog.Error("Healthbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Healthbot exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseDSN        string
	StateDir           string
	OpenAIKey          string
	APIAddr            string
	ChatBaseURL        string
	ChatTimeoutSeconds int
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	openaiKey   *string
	apiAddr     *string
	chatBaseURL *string
	chatTimeout *int
}

// initializeLogger sets up structured logging; HEALTHBOT_DEBUG enables debug level
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("HEALTHBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseDSN:        os.Getenv("DATABASE_DSN"),
		StateDir:           os.Getenv("HEALTHBOT_STATE_DIR"),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		APIAddr:            os.Getenv("API_ADDR"),
		ChatBaseURL:        os.Getenv("CHAT_API_BASE_URL"),
		ChatTimeoutSeconds: util.ParseIntEnv("CHAT_TIMEOUT_SECONDS", DefaultChatTimeoutSeconds),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No HEALTHBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("HEALTHBOT_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// Fall back to DATABASE_URL for compatibility with hosted Postgres setups
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = os.Getenv("DATABASE_URL")
		if config.DatabaseDSN != "" {
			slog.Debug("Using DATABASE_URL as DATABASE_DSN", "dsn_set", true)
		}
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_DSN_SET", config.DatabaseDSN != "",
		"HEALTHBOT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"CHAT_API_BASE_URL", config.ChatBaseURL,
		"CHAT_TIMEOUT_SECONDS", config.ChatTimeoutSeconds)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for Healthbot data (overrides $HEALTHBOT_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseDSN, "database DSN for the store (overrides $DATABASE_DSN or $DATABASE_URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		chatBaseURL: flag.String("chat-base-url", config.ChatBaseURL, "chat backend base URL (overrides $CHAT_API_BASE_URL)"),
		chatTimeout: flag.Int("chat-timeout", config.ChatTimeoutSeconds, "chat exchange timeout in seconds (overrides $CHAT_TIMEOUT_SECONDS)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"chatBaseURL", *flags.chatBaseURL,
		"chatTimeout", *flags.chatTimeout)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseDSN && config.DatabaseDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	// Ensure state directory exists if we're using a file-based DSN
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
		slog.Debug("State directory created successfully", "state_dir", stateDir)
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildChatServiceOptions constructs chat service client options
func buildChatServiceOptions(flags Flags) []chatservice.Option {
	var chatOpts []chatservice.Option
	if *flags.chatBaseURL != "" {
		chatOpts = append(chatOpts, chatservice.WithBaseURL(*flags.chatBaseURL))
	}
	return chatOpts
}

// buildConversationOptions constructs conversation engine options
func buildConversationOptions(flags Flags) []conversation.Option {
	var convOpts []conversation.Option
	if *flags.chatTimeout > 0 && *flags.chatTimeout != DefaultChatTimeoutSeconds {
		convOpts = append(convOpts, conversation.WithChatTimeout(time.Duration(*flags.chatTimeout)*time.Second))
	}
	return convOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

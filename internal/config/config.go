package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Chain node configuration
	Ethereum EthereumConfig

	// Subgraph indexer configuration
	Indexer IndexerConfig

	// Block explorer configuration
	Explorer ExplorerConfig

	// LLM provider configuration
	AI AIConfig

	// Forked-chain simulator configuration
	Simulator SimulatorConfig

	// Scoring thresholds
	Scoring ScoringConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// API server configuration
	API APIConfig

	// Logging configuration
	Log LogConfig
}

// EthereumConfig holds chain node connection settings
type EthereumConfig struct {
	// Comma-separated chain IDs to enable (1 = Ethereum, 8453 = Base)
	EnabledChains  []int64       `envconfig:"ENABLED_CHAINS" default:"1"`
	MainnetRPCURL  string        `envconfig:"ETH_RPC_URL" default:"http://localhost:8545"`
	BaseRPCURL     string        `envconfig:"BASE_RPC_URL" default:""`
	RequestTimeout time.Duration `envconfig:"ETH_REQUEST_TIMEOUT" default:"30s"`
	MaxRetries     int           `envconfig:"ETH_MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `envconfig:"ETH_RETRY_DELAY" default:"1s"`
}

// RPCURL returns the configured RPC endpoint for a chain ID
func (c EthereumConfig) RPCURL(chainID int64) string {
	switch chainID {
	case 1:
		return c.MainnetRPCURL
	case 8453:
		return c.BaseRPCURL
	default:
		return ""
	}
}

// IndexerConfig holds The Graph gateway settings
type IndexerConfig struct {
	GatewayURL     string        `envconfig:"GRAPH_GATEWAY_URL" default:"https://gateway.thegraph.com/api"`
	APIKey         string        `envconfig:"GRAPH_API_KEY"`
	RequestTimeout time.Duration `envconfig:"GRAPH_REQUEST_TIMEOUT" default:"20s"`
	MaxRetries     int           `envconfig:"GRAPH_MAX_RETRIES" default:"3"`
	HolderPageSize int           `envconfig:"GRAPH_HOLDER_PAGE_SIZE" default:"1000"`

	// Subgraph deployment IDs; empty values fall back to the built-in table
	MainnetV2Subgraph string `envconfig:"GRAPH_MAINNET_V2_SUBGRAPH"`
	MainnetV3Subgraph string `envconfig:"GRAPH_MAINNET_V3_SUBGRAPH"`
	BaseV2Subgraph    string `envconfig:"GRAPH_BASE_V2_SUBGRAPH"`
	BaseV3Subgraph    string `envconfig:"GRAPH_BASE_V3_SUBGRAPH"`
}

// ExplorerConfig holds Etherscan-compatible API settings
type ExplorerConfig struct {
	BaseURL        string        `envconfig:"EXPLORER_BASE_URL" default:"https://api.etherscan.io/v2/api"`
	APIKey         string        `envconfig:"EXPLORER_API_KEY"`
	RequestTimeout time.Duration `envconfig:"EXPLORER_REQUEST_TIMEOUT" default:"15s"`
	MaxRetries     int           `envconfig:"EXPLORER_MAX_RETRIES" default:"3"`
	HolderLimit    int           `envconfig:"EXPLORER_HOLDER_LIMIT" default:"1000"`
}

// AIConfig holds LLM provider settings
type AIConfig struct {
	// openai or deepseek
	Provider       string        `envconfig:"AI_PROVIDER" default:"openai"`
	OpenAIAPIKey   string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	DeepSeekAPIKey string        `envconfig:"DEEPSEEK_API_KEY"`
	DeepSeekURL    string        `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com/v1"`
	DeepSeekModel  string        `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	RequestTimeout time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"90s"`
	MaxRetries     int           `envconfig:"AI_MAX_RETRIES" default:"2"`
}

// SimulatorConfig holds forked-node simulation settings
type SimulatorConfig struct {
	Enabled      bool          `envconfig:"SIMULATOR_ENABLED" default:"true"`
	AnvilPath    string        `envconfig:"ANVIL_PATH" default:"anvil"`
	Timeout      time.Duration `envconfig:"SIMULATOR_TIMEOUT" default:"90s"`
	StartTimeout time.Duration `envconfig:"SIMULATOR_START_TIMEOUT" default:"20s"`
	SlippageBps  int64         `envconfig:"SIMULATOR_SLIPPAGE_BPS" default:"500"`
	// Amount of ETH (in wei) spent on the test buy
	BuyAmountWei string `envconfig:"SIMULATOR_BUY_AMOUNT_WEI" default:"10000000000000000"`
	// Balance (in wei) credited to the test wallet inside the fork
	FundAmountWei string `envconfig:"SIMULATOR_FUND_AMOUNT_WEI" default:"100000000000000000000"`
	// Optional hex key for the test wallet; a fixed seed-derived key is used when empty
	PrivateKey string `envconfig:"SIMULATOR_PRIVATE_KEY"`
}

// ScoringConfig holds scoring thresholds and strategy selection
type ScoringConfig struct {
	// rules or ai
	Strategy              string   `envconfig:"SCORING_STRATEGY" default:"rules"`
	MinLiquidityLockedPct float64  `envconfig:"SCORING_MIN_LIQUIDITY_LOCKED_PCT" default:"90"`
	MinLiquidityUSD       float64  `envconfig:"SCORING_MIN_LIQUIDITY_USD" default:"10000"`
	MaxTopHolderPct       float64  `envconfig:"SCORING_MAX_TOP_HOLDER_PCT" default:"10"`
	ExtraLockerAddresses  []string `envconfig:"LOCKER_ADDRESSES"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Enabled         bool          `envconfig:"DB_ENABLED" default:"false"`
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"tokencheck"`
	Password        string        `envconfig:"DB_PASSWORD" default:"tokencheck"`
	Name            string        `envconfig:"DB_NAME" default:"tokencheck"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// APIConfig holds API server settings
type APIConfig struct {
	Host              string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port              int           `envconfig:"API_PORT" default:"8081"`
	ReadTimeout       time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"180s"`
	ShutdownTimeout   time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS      int           `envconfig:"API_RATE_LIMIT_RPS" default:"5"`
	CacheTTL          time.Duration `envconfig:"API_CACHE_TTL" default:"10m"`
	AssessmentTimeout time.Duration `envconfig:"API_ASSESSMENT_TIMEOUT" default:"150s"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings whose absence makes the process unusable
func (c *Config) Validate() error {
	if len(c.Ethereum.EnabledChains) == 0 {
		return fmt.Errorf("no chains enabled")
	}
	for _, id := range c.Ethereum.EnabledChains {
		if id != 1 && id != 8453 {
			return fmt.Errorf("unsupported chain id %d", id)
		}
		if c.Ethereum.RPCURL(id) == "" {
			return fmt.Errorf("missing RPC URL for chain id %d", id)
		}
	}

	switch strings.ToLower(c.AI.Provider) {
	case "openai":
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER=openai")
		}
	case "deepseek":
		if c.AI.DeepSeekAPIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required when AI_PROVIDER=deepseek")
		}
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}

	switch strings.ToLower(c.Scoring.Strategy) {
	case "rules", "ai":
	default:
		return fmt.Errorf("unknown scoring strategy %q", c.Scoring.Strategy)
	}

	if c.Indexer.APIKey == "" {
		return fmt.Errorf("GRAPH_API_KEY is required")
	}
	if c.Explorer.APIKey == "" {
		return fmt.Errorf("EXPLORER_API_KEY is required")
	}
	if c.Simulator.SlippageBps < 0 || c.Simulator.SlippageBps >= 10000 {
		return fmt.Errorf("SIMULATOR_SLIPPAGE_BPS must be in [0, 10000)")
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/pushchain/evm-workspace-demo/workspace/constant"
	"github.com/pushchain/evm-workspace-demo/workspace/txbuilder"
)

//go:embed default_config.json
var defaultConfigJSON []byte

const (
	defaultEngineAccountID = "aurora.test.near"
	defaultOwnerID         = "owner.test.near"
	defaultProverID        = "prover.test.near"
	defaultMethod          = "randomSeed"
)

func validateConfig(cfg *Config) error {
	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between 0 and 5")
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}

	if cfg.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative")
	}

	// Set defaults for log file rotation
	if cfg.LogFileMaxSizeMB == 0 {
		cfg.LogFileMaxSizeMB = 50
	}
	if cfg.LogFileMaxBackups == 0 {
		cfg.LogFileMaxBackups = 3
	}
	if cfg.LogFileMaxAgeDays == 0 {
		cfg.LogFileMaxAgeDays = 7
	}

	// Set defaults for engine config
	if cfg.ChainID == 0 {
		cfg.ChainID = txbuilder.LocalChainID
	}
	if cfg.ChainID != txbuilder.LocalChainID {
		return fmt.Errorf("chain id must be %d, got %d", txbuilder.LocalChainID, cfg.ChainID)
	}
	if cfg.EngineAccountID == "" {
		cfg.EngineAccountID = defaultEngineAccountID
	}
	if cfg.OwnerID == "" {
		cfg.OwnerID = defaultOwnerID
	}
	if cfg.ProverID == "" {
		cfg.ProverID = defaultProverID
	}
	if addr := cfg.EthProverConfig.CustodianAddress; addr != "" && !ethcommon.IsHexAddress(addr) {
		return fmt.Errorf("eth prover custodian address %q is not a hex address", addr)
	}
	if cfg.PrivateKeyHex == "" {
		cfg.PrivateKeyHex = strings.Repeat("58", 32)
	}

	// Set defaults for the demo flow
	if cfg.AbiPath == "" {
		cfg.AbiPath = "./res/Random.abi"
	}
	if cfg.BytecodePath == "" {
		cfg.BytecodePath = "./res/Random.hex"
	}
	if cfg.Method == "" {
		cfg.Method = defaultMethod
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = 20
	}
	if cfg.FastForwardBlocks == 0 {
		cfg.FastForwardBlocks = 10
	}

	if cfg.BlockIntervalMs <= 0 {
		cfg.BlockIntervalMs = 1000
	}
	if cfg.SubmitMaxRetries <= 0 {
		cfg.SubmitMaxRetries = 3
	}

	// Set defaults for journal pruning
	if cfg.JournalRetentionHours < 0 {
		return fmt.Errorf("journal retention must not be negative")
	}
	if cfg.JournalRetentionHours == 0 {
		cfg.JournalRetentionHours = 168
	}
	if cfg.JournalPruneIntervalMinutes <= 0 {
		cfg.JournalPruneIntervalMinutes = 60
	}

	// Set defaults for query server
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}

	return nil
}

// Validate applies defaults to cfg and checks it.
func Validate(cfg *Config) error {
	return validateConfig(cfg)
}

// Save writes the given config to <NodeDir>/config/workspace_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, constant.ConfigSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, constant.ConfigFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads the config from <BasePath>/config/workspace_config.json on top of
// the embedded defaults. Any key can be overridden with a WORKSPACE_<KEY>
// environment variable; nested keys join with an underscore.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, constant.ConfigSubdir, constant.ConfigFileName)
	if _, err := os.Stat(configFile); err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(defaultConfigJSON)); err != nil {
		return Config{}, fmt.Errorf("failed to read default config: %w", err)
	}
	v.SetConfigFile(filepath.Clean(configFile))
	if err := v.MergeInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON.
// Environment overrides apply here too.
func LoadDefaultConfig() (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(defaultConfigJSON)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid default config: %w", err)
	}
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(constant.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

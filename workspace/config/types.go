package config

// Config is the workspaced configuration stored at
// <NodeHome>/config/workspace_config.json.
type Config struct {
	// Log Config
	LogLevel          int    `json:"log_level" mapstructure:"log_level"`     // e.g., 0 = debug, 1 = info, etc.
	LogFormat         string `json:"log_format" mapstructure:"log_format"`   // "json" or "console"
	LogSampler        bool   `json:"log_sampler" mapstructure:"log_sampler"` // if true, samples logs (e.g., 1 in 5)
	LogFileEnabled    bool   `json:"log_file_enabled" mapstructure:"log_file_enabled"`
	LogFileMaxSizeMB  int    `json:"log_file_max_size_mb" mapstructure:"log_file_max_size_mb"`
	LogFileMaxBackups int    `json:"log_file_max_backups" mapstructure:"log_file_max_backups"`
	LogFileMaxAgeDays int    `json:"log_file_max_age_days" mapstructure:"log_file_max_age_days"`

	// Node Config
	NodeHome string `json:"node_home" mapstructure:"node_home"` // Home directory (default: ~/.workspace)

	// Engine configuration
	ChainID         uint64            `json:"chain_id" mapstructure:"chain_id"`                   // EVM chain ID (default: 1313161556)
	EngineAccountID string            `json:"engine_account_id" mapstructure:"engine_account_id"` // Sandbox account hosting the engine
	OwnerID         string            `json:"owner_id" mapstructure:"owner_id"`
	ProverID        string            `json:"prover_id" mapstructure:"prover_id"`
	EthProverConfig EthProverSettings `json:"eth_prover_config" mapstructure:"eth_prover_config"`

	// Signing key, hex encoded
	PrivateKeyHex string `json:"private_key_hex" mapstructure:"private_key_hex"`

	// Contract artifact and demo flow
	AbiPath           string `json:"abi_path" mapstructure:"abi_path"`
	BytecodePath      string `json:"bytecode_path" mapstructure:"bytecode_path"`
	Method            string `json:"method" mapstructure:"method"`                           // Method called in the loop (default: randomSeed)
	Iterations        int    `json:"iterations" mapstructure:"iterations"`                   // Number of calls (default: 20)
	FastForwardBlocks uint64 `json:"fast_forward_blocks" mapstructure:"fast_forward_blocks"` // Blocks skipped after deploy (default: 10)

	// Sandbox
	BlockIntervalMs int `json:"block_interval_ms" mapstructure:"block_interval_ms"` // Simulated time between blocks

	SubmitMaxRetries int `json:"submit_max_retries" mapstructure:"submit_max_retries"`

	// Journal
	JournalInMemory             bool `json:"journal_in_memory" mapstructure:"journal_in_memory"`
	JournalRetentionHours       int  `json:"journal_retention_hours" mapstructure:"journal_retention_hours"`               // Entries older than this are pruned while serving (default: 168)
	JournalPruneIntervalMinutes int  `json:"journal_prune_interval_minutes" mapstructure:"journal_prune_interval_minutes"` // How often the prune job runs (default: 60)

	// Query Server Config
	QueryServerPort int `json:"query_server_port" mapstructure:"query_server_port"` // Port for HTTP query server (default: 8080)
}

// EthProverSettings configures the optional bridge prover. An empty AccountID
// disables it.
type EthProverSettings struct {
	AccountID        string `json:"account_id" mapstructure:"account_id"`
	CustodianAddress string `json:"custodian_address" mapstructure:"custodian_address"`
}

// Enabled reports whether a prover account is configured.
func (e EthProverSettings) Enabled() bool {
	return e.AccountID != ""
}

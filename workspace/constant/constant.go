package constant

import "os"

// <NodeDir>/                    (e.g., /home/dev/.workspace)
// └── config/
//	└── workspace_config.json
// └── databases/
//	└── journal.db
// └── logs/
//	└── workspaced.log

const (
	NodeDir = ".workspace"

	ConfigSubdir   = "config"
	ConfigFileName = "workspace_config.json"

	DatabasesSubdir = "databases"
	JournalDBName   = "journal.db"

	LogsSubdir  = "logs"
	LogFileName = "workspaced.log"

	// EnvPrefix is the prefix of environment variables overriding config keys.
	EnvPrefix = "WORKSPACE"
)

var DefaultNodeHome = os.ExpandEnv("$HOME/") + NodeDir

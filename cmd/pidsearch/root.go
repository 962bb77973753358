// Root command for the pidsearch CLI.
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/pidsearch/internal/paths"
)

// Exit codes: 0 success, 1 user error, 2 system error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// Values loaded from config.yaml by PersistentPreRunE so all subcommands
// can use them.
var (
	configDataDir   string
	configMinterDir string
	configBatchSize int
	configIdleSecs  int
)

// logger is the process-wide structured logger, rebuilt by
// PersistentPreRunE once the --verbose flag is known.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:     "pidsearch",
	Short:   "Pidsearch is a searchable index of persistent identifiers",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configMinterDir = cfg.GetString(cfgKeyMinterDir)
		configBatchSize = cfg.GetInt(cfgKeyBatchSize)
		configIdleSecs = cfg.GetInt(cfgKeyIdleSeconds)

		zapCfg := zap.NewProductionConfig()
		if flagVerbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.pidsearch-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(idCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(shoulderCmd)
	rootCmd.AddCommand(mintCmd)
	rootCmd.AddCommand(minterCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(loadCmd)
}

// resolveDataDir returns the data directory path following the precedence:
// --data-dir flag > config.yaml data_dir > PIDSEARCH_DATA_DIR env > default
// $(CWD)/.pidsearch-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > PIDSEARCH_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveMinterDir returns the minter database directory: config.yaml
// minter_dir when set, otherwise the minters directory under the data dir.
func resolveMinterDir() (string, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return "", err
	}
	return paths.ResolveMinterDir(configMinterDir, dataDir)
}

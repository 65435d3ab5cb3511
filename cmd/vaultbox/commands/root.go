// Package commands implements the vaultbox CLI: a serve command running
// the HTTP API, and an interactive shell driving the eight facade
// operations directly against the configured stores.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/brown-csci1660/vaultbox/internal/config"
	"github.com/brown-csci1660/vaultbox/internal/logger"
)

var (
	configFile string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vaultbox",
	Short: "End-to-end-encrypted file storage and sharing",
	Long: `vaultbox stores, shares, and revokes files on an untrusted
key-value store. All confidentiality and integrity guarantees come from
client-side cryptography; the server holding the bytes is assumed
hostile.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}

		if verbose {
			cfg.Logging.Level = "DEBUG"
		}
		return logger.Init(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

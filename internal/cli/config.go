package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/pairmerge/internal/config"
	"github.com/harun/pairmerge/pkg/pairsource"
)

// loadConfig loads the config file and applies the global flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	return cfg, nil
}

// openSource opens the configured pairs file
func openSource(cfg *config.Config) (*pairsource.CSVSource, error) {
	return pairsource.Open(cfg.Input.Path, pairsource.Options{
		Delimiter: cfg.Input.Delimiter,
		FromField: cfg.Input.FromField,
		ToField:   cfg.Input.ToField,
	})
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/riftdb/zheap/pkg/zlog"
)

var (
	cfgPath string
	logJSON bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zheapctl",
		Short:         "Inspect an undo-log MVCC store's tuple visibility",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			if !logJSON {
				zcfg.Encoding = "console"
			}
			l, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("zheapctl: build logger: %w", err)
			}
			zlog.SetLogger(l)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "store.toml", "path to the demo store's TOML config")
	root.PersistentFlags().BoolVar(&logJSON, "json-logs", false, "emit structured JSON logs instead of the default console logger")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	viper.SetEnvPrefix("zheapctl")
	viper.AutomaticEnv()

	root.AddCommand(newExplainCmd())
	root.AddCommand(newAuditCmd())
	return root
}

func loadConfigFromFlag() (*Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = cfgPath
	}
	return loadConfig(path)
}

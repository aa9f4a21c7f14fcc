package main

import (
	"fmt"

	"github.com/marmos91/hellod/pkg/config"
	"github.com/spf13/cobra"
)

var (
	initForce bool

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write a configuration file populated with defaults.

The file goes to --config if given, otherwise to
$XDG_CONFIG_HOME/hellod/config.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = config.GetDefaultConfigPath()
			}

			written, err := config.InitConfigAt(path, initForce)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", written)
			return nil
		},
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing configuration file")
}

// Command chainvaultctl is a thin operational CLI over the chain package:
// open/create a chain, store and load raw payloads, and force a compaction
// pass, for exercising a chain from a shell without writing Go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	root := rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chainvaultctl",
		Short: "Inspect and operate on chainvault chains",
	}

	cmd.PersistentFlags().String("log-path", "./data/chains", "directory chain logs are stored under")
	cmd.PersistentFlags().String("backup-path", "", "optional mirror directory for chain logs")
	cmd.PersistentFlags().String("tenant", "default", "tenant namespace a chain's key is scoped under")
	cmd.PersistentFlags().String("config", "", "optional config file (yaml/json/toml) overriding the flags above")

	cobra.OnInitialize(func() {
		initConfig(cmd)
	})

	cmd.AddCommand(initCmd(), putCmd(), getCmd(), compactCmd())
	return cmd
}

func initConfig(cmd *cobra.Command) {
	_ = viper.BindPFlag("log_path", cmd.PersistentFlags().Lookup("log-path"))
	_ = viper.BindPFlag("backup_path", cmd.PersistentFlags().Lookup("backup-path"))
	_ = viper.BindPFlag("tenant", cmd.PersistentFlags().Lookup("tenant"))

	if cfgFile, _ := cmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		_ = viper.ReadInConfig()
	}

	viper.SetEnvPrefix("CHAINVAULT")
	viper.AutomaticEnv()
}

package main

import (
	"fmt"

	"github.com/forestrie/go-chainvault/chain"
	"github.com/forestrie/go-chainvault/crypto"
	"github.com/forestrie/go-chainvault/dio"
	"github.com/forestrie/go-chainvault/record"
	"github.com/forestrie/go-chainvault/redolog"
	"github.com/forestrie/go-chainvault/session"
	"github.com/forestrie/go-chainvault/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func chainConfig() redolog.ChainConfig {
	return redolog.ChainConfig{
		LogPath:    viper.GetString("log_path"),
		BackupPath: viper.GetString("backup_path"),
	}
}

func chainKeyFor(id storage.ChainID) string {
	return storage.ChainKey(viper.GetString("tenant"), id)
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new chain under a freshly generated root signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := storage.NewChainID()
			if err != nil {
				return err
			}
			key, err := crypto.GeneratePrivateSignKey(crypto.Bit256)
			if err != nil {
				return err
			}

			header := redolog.ChainHeader{
				Format:          record.FormatBinary,
				RootWritePolicy: record.WriteSpecificKey(key.PublicKey().Hash()),
			}
			c, err := chain.Open(chainConfig(), chainKeyFor(id), header, false)
			if err != nil {
				return err
			}
			defer c.Sync()

			fmt.Printf("chain id:        %s\n", id)
			fmt.Printf("root key hash:   %x\n", key.Hash().Bytes())
			fmt.Println("(the root signing key above is not persisted; this chain is only writable for the lifetime of this process unless the caller records it)")
			return nil
		},
	}
}

func demoCmd() *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create an ephemeral chain, store and load one payload, and report the round trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := storage.NewChainID()
			if err != nil {
				return err
			}
			key, err := crypto.GeneratePrivateSignKey(crypto.Bit128)
			if err != nil {
				return err
			}
			s := session.UserSession{
				IdentityName: "chainvaultctl",
				OwnKeys:      session.KeySet{SignKeys: []crypto.PrivateSignKey{key}},
			}

			header := redolog.ChainHeader{
				Format:          record.FormatBinary,
				RootWritePolicy: record.WriteSpecificKey(key.PublicKey().Hash()),
			}
			cfg := chainConfig()
			cfg.Temporal = true
			c, err := chain.Open(cfg, chainKeyFor(id), header, false)
			if err != nil {
				return err
			}
			defer c.Destroy()

			d := dio.New(c, s, dio.ScopeLocal, nil)
			stored, err := dio.Store(d, data)
			if err != nil {
				return err
			}
			if _, _, err := d.Commit(); err != nil {
				return err
			}

			loaded, err := dio.Load[string](d, stored.PK)
			if err != nil {
				return err
			}

			fmt.Printf("chain id:   %s\n", id)
			fmt.Printf("stored pk:  %d\n", stored.PK)
			fmt.Printf("round trip: %q\n", loaded.Value)
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "hello chainvault", "payload to store and read back")
	return cmd
}

func putCmd() *cobra.Command {
	return demoCmd()
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <chain-id>",
		Short: "Open an existing chain read-only and report its header and live key count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := storage.ChainIDFromString(args[0])
			if err != nil {
				return err
			}
			c, err := chain.Open(chainConfig(), chainKeyFor(id), redolog.ChainHeader{}, true)
			if err != nil {
				return err
			}
			defer c.Sync()

			header := c.Header()
			fmt.Printf("format:     %d\n", header.Format)
			fmt.Printf("integrity:  %d\n", header.Integrity)
			fmt.Printf("live keys:  %d\n", len(c.Index().LiveKeys()))
			return nil
		},
	}
}

func compactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact <chain-id>",
		Short: "Force one compaction pass on an existing chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := storage.ChainIDFromString(args[0])
			if err != nil {
				return err
			}
			c, err := chain.Open(chainConfig(), chainKeyFor(id), redolog.ChainHeader{}, false)
			if err != nil {
				return err
			}
			defer c.Sync()

			if err := c.Compact(); err != nil {
				return err
			}
			fmt.Println("compaction complete")
			return nil
		},
	}
}

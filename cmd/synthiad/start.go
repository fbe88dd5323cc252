package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lexamoris/synthia/kernel"
	"github.com/lexamoris/synthia/kernel/config"
)

func newStartCmd(v *viper.Viper, loadedConfig func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Bootstrap the genesis kernel and serve its http api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runStart(ctx, *loadedConfig())
		},
	}
	flags := cmd.Flags()
	flags.String("http-listen-address", "", "http api listen address")
	flags.String("listen-addr", "", "p2p listen address of the node")
	flags.String("external-ip", "", "external IP of the node")
	flags.String("db-path", "", "pin store directory, in memory when empty")
	flags.Bool("enable-p2p", false, "advertise the genesis pin on the p2p network")
	flags.StringSlice("bootstrap-peers", nil, "p2p bootstrap peer multiaddrs")
	bindFlags(v, flags, map[string]string{
		"http_listen_address": "http-listen-address",
		"listen_addr":         "listen-addr",
		"external_ip":         "external-ip",
		"db_path":             "db-path",
		"enable_p2p":          "enable-p2p",
		"bootstrap_peers":     "bootstrap-peers",
	})
	return cmd
}

func runStart(ctx context.Context, cfg config.Config) error {
	service, err := kernel.NewService(cfg)
	if err != nil {
		return err
	}
	defer service.Stop()
	if err := service.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info().Msg("shutting down genesis kernel")
	return nil
}

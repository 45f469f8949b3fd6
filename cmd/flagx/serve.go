package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OrlandoBitencourt/flagx"
)

type serveOptions struct {
	adminAddr     string
	webhookAddr   string
	webhookSecret string
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin and webhook servers",
		Long: `Run a flag client with its admin API and webhook invalidation endpoint
until interrupted. Useful for inspecting cache behavior against a live service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.adminAddr, "admin", ":19000", "admin API listen address, empty to disable")
	cmd.Flags().StringVar(&opts.webhookAddr, "webhook", "", "webhook listen address, empty to disable")
	cmd.Flags().StringVar(&opts.webhookSecret, "webhook-secret", "", "HMAC-SHA256 secret for webhook signatures")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	if opts.adminAddr == "" && opts.webhookAddr == "" {
		return fmt.Errorf("nothing to serve: both --admin and --webhook are empty")
	}

	clientOpts, err := global.clientOptions()
	if err != nil {
		return err
	}
	if opts.adminAddr != "" {
		clientOpts = append(clientOpts, flagx.WithAdminServer(flagx.AdminConfig{Addr: opts.adminAddr}))
	}
	if opts.webhookAddr != "" {
		clientOpts = append(clientOpts, flagx.WithWebhookInvalidation(flagx.WebhookConfig{
			Addr:   opts.webhookAddr,
			Secret: opts.webhookSecret,
		}))
	}

	client, err := flagx.New(clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Start(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if addr := client.AdminAddr(); addr != "" {
		fmt.Fprintf(out, "admin API listening on %s\n", addr)
	}
	if addr := client.WebhookAddr(); addr != "" {
		fmt.Fprintf(out, "webhook listening on %s\n", addr)
	}

	<-ctx.Done()
	return nil
}

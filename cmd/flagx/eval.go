package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OrlandoBitencourt/flagx"
)

type evalOptions struct {
	target     string
	defaultVal bool
	jsonOutput bool
}

func newEvalCmd(global *globalOptions) *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval <flag-key>",
		Short: "Evaluate a flag",
		Long: `Evaluate a boolean flag and print the result.

The command never fails because of the remote service: when the flag cannot
be resolved it prints the --default value, or FLAGX_DEFAULT_VALUE_ON_ERROR
when --default is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "target ID, e.g. a user ID")
	cmd.Flags().BoolVarP(&opts.defaultVal, "default", "d", false, "value returned if the flag cannot be resolved")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print a JSON object instead of true/false")

	return cmd
}

func runEval(cmd *cobra.Command, global *globalOptions, opts *evalOptions, flagKey string) error {
	clientOpts, err := global.clientOptions()
	if err != nil {
		return err
	}

	client, err := flagx.New(clientOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	var evalOpts []flagx.EvalOption
	if cmd.Flags().Changed("target") {
		evalOpts = append(evalOpts, flagx.ForTarget(opts.target))
	}
	if cmd.Flags().Changed("default") {
		evalOpts = append(evalOpts, flagx.WithDefault(opts.defaultVal))
	}

	enabled := client.IsEnabled(cmd.Context(), flagKey, evalOpts...)

	out := cmd.OutOrStdout()
	if !opts.jsonOutput {
		_, err = fmt.Fprintln(out, enabled)
		return err
	}

	m := client.Metrics()
	return json.NewEncoder(out).Encode(struct {
		FlagKey  string `json:"flag_key"`
		TargetID string `json:"target_id,omitempty"`
		Enabled  bool   `json:"enabled"`
		Fallback bool   `json:"fallback"`
	}{
		FlagKey:  flagKey,
		TargetID: opts.target,
		Enabled:  enabled,
		Fallback: m.Fallbacks > 0,
	})
}

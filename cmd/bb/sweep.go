package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumforge/bountyboard/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		configPath string
		as         string
		daemon     bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Transition overdue assignments and stale change requests",
		Long: `Runs one staleness pass over the board: unassigns bounties whose
submission window passed with no work, and rejects submissions whose
change request went unaddressed. With --daemon, keeps running on the
configured cron schedule until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}

			if daemon {
				if !sweep.ValidCron(ctx.cfg.Sweep.Cron) {
					return fmt.Errorf("invalid sweep cron expression %q", ctx.cfg.Sweep.Cron)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sweeping on schedule %q\n", ctx.cfg.Sweep.Cron)
				d := sweep.NewDaemon(ctx.engine, caller, ctx.cfg.Sweep.Cron, cmd.OutOrStdout())
				d.RunLoop(cmd.Context())
				return nil
			}

			res, err := sweep.Run(ctx.engine, caller)
			if err != nil {
				return err
			}
			sweep.Report(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "keep sweeping on the configured cron schedule")
	return cmd
}

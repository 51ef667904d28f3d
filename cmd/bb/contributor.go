package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumforge/bountyboard/internal/contributor"
)

func newContributorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributor",
		Short: "Contributor record commands",
	}

	cmd.AddCommand(newContributorShowCmd())
	return cmd
}

func newContributorShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <wallet>",
		Short: "Show a wallet's contributor record on the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			rec, err := contributor.Get(ctx.db, ctx.boardAddr, args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("wallet %s has no contributor record on this board", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Contributor %s\n  wallet: %s\n  role: %s\n  reputation: %d (last change %+d)\n  bounties completed: %d\n",
				rec.Addr, rec.Wallet, rec.RoleName, rec.Reputation, rec.RecentRepChange, rec.BountyCompleted)
			for _, sp := range rec.SkillsPt {
				fmt.Fprintf(out, "  %s: %d pt\n", sp.Skill, sp.Points)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	return cmd
}

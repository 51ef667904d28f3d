package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quorumforge/bountyboard/internal/board"
	"github.com/quorumforge/bountyboard/internal/config"
	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/token"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Board and config management commands",
	}

	cmd.AddCommand(newBoardInitCmd())
	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardFundCmd())
	cmd.AddCommand(newBoardSetTiersCmd())
	cmd.AddCommand(newBoardReplaceCmd())
	cmd.AddCommand(newBoardSetRoleCmd())
	return cmd
}

func newBoardInitCmd() *cobra.Command {
	var (
		configPath string
		mint       string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the board for the configured realm",
		Long: `Creates the board with the tiers and roles from the config file.
With no tiers configured, --mint installs the stock four-tier ladder.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}

			tiers := ctx.cfg.Tiers
			if len(tiers) == 0 && mint != "" {
				tiers = config.DefaultTiers(mint)
			}

			x := board.NewExecutor(ctx.db, lifecycle.SystemClock{})
			err = x.OnApprovedAction(board.Action{
				Kind:      board.ActionInitBoard,
				Realm:     ctx.cfg.Realm,
				Authority: ctx.cfg.Authority,
				Tiers:     tiers,
				Roles:     ctx.cfg.Roles,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Board created for realm %q at %s\n", ctx.cfg.Realm, ctx.boardAddr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&mint, "mint", "", "payout mint for the stock tier ladder when no tiers are configured")
	return cmd
}

func newBoardShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the board, its tiers, roles and vault balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			b, err := board.Get(ctx.db, ctx.boardAddr)
			if err != nil {
				return err
			}
			vault, err := token.BalanceOf(ctx.db, b.VaultAddr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Board %s\n  realm: %s\n  authority: %s\n  bounties: %d\n  vault: %s (balance %d)\n",
				b.Addr, b.Realm, b.Authority, b.BountyCount, b.VaultAddr, vault)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\nTIER\tPAYOUT\tREP\tSKILL PT\tMIN REP\tSUBMIT WINDOW")
			for _, t := range b.Tiers {
				fmt.Fprintf(w, "%s\t%d %s\t%d\t%d\t%d\t%ds\n",
					t.TierName, t.PayoutReward, t.PayoutMint, t.ReputationReward,
					t.SkillsPtReward, t.MinRequiredReputation, t.TaskSubmissionWindow)
			}
			w.Flush()

			w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\nROLE\tDEFAULT\tPERMISSIONS")
			for _, r := range b.Roles {
				fmt.Fprintf(w, "%s\t%v\t%s\n", r.RoleName, r.Default, r.Permissions)
			}
			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	return cmd
}

func newBoardFundCmd() *cobra.Command {
	var (
		configPath string
		mint       string
		amount     int64
	)

	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit the board vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return fmt.Errorf("--amount must be positive")
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			vault, err := token.VaultAddr(ctx.boardAddr, mint)
			if err != nil {
				return err
			}
			if err := token.Mint(ctx.db, vault, mint, amount); err != nil {
				return err
			}
			bal, err := token.BalanceOf(ctx.db, vault)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Vault %s credited %d %s (balance %d)\n", vault, amount, mint, bal)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&mint, "mint", "", "token mint to credit")
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount to credit")
	cmd.MarkFlagRequired("mint")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func newBoardSetTiersCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "set-tiers",
		Short: "Install the tier set from the config file on a board without one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			x := board.NewExecutor(ctx.db, lifecycle.SystemClock{})
			err = x.OnApprovedAction(board.Action{
				Kind:      board.ActionSetTiers,
				BoardAddr: ctx.boardAddr,
				Tiers:     ctx.cfg.Tiers,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %d tiers on board %s\n", len(ctx.cfg.Tiers), ctx.boardAddr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	return cmd
}

func newBoardReplaceCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "replace-config",
		Short: "Replace the board's tiers and roles with the config file's",
		Long: `Swaps the whole config for the tier and role set in the config file.
Live bounties keep the reward snapshot taken at their creation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			x := board.NewExecutor(ctx.db, lifecycle.SystemClock{})
			err = x.OnApprovedAction(board.Action{
				Kind:      board.ActionReplaceConfig,
				BoardAddr: ctx.boardAddr,
				Tiers:     ctx.cfg.Tiers,
				Roles:     ctx.cfg.Roles,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replaced config on board %s\n", ctx.boardAddr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	return cmd
}

func newBoardSetRoleCmd() *cobra.Command {
	var (
		configPath string
		walletFlag string
		roleName   string
	)

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Assign a configured role to a wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			x := board.NewExecutor(ctx.db, lifecycle.SystemClock{})
			err = x.OnApprovedAction(board.Action{
				Kind:              board.ActionAddContributor,
				BoardAddr:         ctx.boardAddr,
				ContributorWallet: walletFlag,
				RoleName:          roleName,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wallet %s now holds role %q\n", walletFlag, roleName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&walletFlag, "wallet", "", "wallet to assign the role to")
	cmd.Flags().StringVar(&roleName, "role", "", "role name from the board config")
	cmd.MarkFlagRequired("wallet")
	cmd.MarkFlagRequired("role")
	return cmd
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/models"
	"github.com/quorumforge/bountyboard/internal/token"
)

func newBountyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bounty",
		Short: "Bounty lifecycle commands",
	}

	cmd.AddCommand(newBountyCreateCmd())
	cmd.AddCommand(newBountyListCmd())
	cmd.AddCommand(newBountyShowCmd())
	cmd.AddCommand(newBountyUpdateCmd())
	cmd.AddCommand(newBountyDeleteCmd())
	cmd.AddCommand(newBountyApplyCmd())
	cmd.AddCommand(newBountyAssignCmd())
	cmd.AddCommand(newBountyUnassignCmd())
	return cmd
}

func newBountyCreateCmd() *cobra.Command {
	var (
		configPath  string
		as          string
		tier        string
		title       string
		description string
		skill       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bounty and fund its escrow from the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			b, err := ctx.engine.CreateBounty(caller, ctx.boardAddr, lifecycle.CreateBountyOpts{
				Tier:        tier,
				Title:       title,
				Description: description,
				Skill:       skill,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created bounty #%d %s (%s, escrow %d %s)\n",
				b.BountyIndex, b.Addr, b.Tier, b.RewardPayout, b.RewardMint)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().StringVar(&tier, "tier", "", "tier name from the board config")
	cmd.Flags().StringVar(&title, "title", "", "bounty title")
	cmd.Flags().StringVar(&description, "description", "", "bounty description")
	cmd.Flags().StringVar(&skill, "skill", models.SkillDevelopment, "skill tag (development, design, marketing)")
	cmd.MarkFlagRequired("tier")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newBountyListCmd() *cobra.Command {
	var (
		configPath string
		state      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bounties on the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			q := ctx.db.Where("board_addr = ?", ctx.boardAddr)
			if state != "" {
				q = q.Where("state = ?", state)
			}
			var bounties []models.Bounty
			if err := q.Order("bounty_index").Find(&bounties).Error; err != nil {
				return fmt.Errorf("list bounties: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "IDX\tADDR\tSTATE\tTIER\tSKILL\tTITLE")
			for _, b := range bounties {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					b.BountyIndex, b.Addr, b.State, b.Tier, b.Skill, b.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&state, "state", "", "filter by state (open, assigned, submissionUnderReview, completed, deleted)")
	return cmd
}

func newBountyShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <bounty-addr>",
		Short: "Show one bounty, its escrow balance and submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			var b models.Bounty
			if err := ctx.db.Where("addr = ?", args[0]).First(&b).Error; err != nil {
				return fmt.Errorf("bounty %s: %w", args[0], err)
			}
			escrow, err := token.BalanceOf(ctx.db, b.EscrowAddr)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Bounty #%d %s\n  title: %s\n  state: %s\n  tier: %s  skill: %s\n  reward: %d %s (+%d rep, +%d skill pt)\n  escrow: %s (balance %d)\n  assignments: %d  unassignments: %d\n",
				b.BountyIndex, b.Addr, b.Title, b.State, b.Tier, b.Skill,
				b.RewardPayout, b.RewardMint, b.RewardReputation, b.RewardSkillPt,
				b.EscrowAddr, escrow, b.AssignCount, b.UnassignCount)

			var subs []models.BountySubmission
			if err := ctx.db.Where("bounty_addr = ?", b.Addr).
				Order("submission_index").Find(&subs).Error; err != nil {
				return fmt.Errorf("list submissions: %w", err)
			}
			if len(subs) > 0 {
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "\nSUB\tASSIGNEE\tSTATE\tLINK")
				for _, s := range subs {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
						s.SubmissionIndex, s.Assignee, s.State, s.LinkToSubmission)
				}
				w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	return cmd
}

func newBountyUpdateCmd() *cobra.Command {
	var (
		configPath  string
		as          string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "update <bounty-addr>",
		Short: "Update an open bounty's title and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			b, err := ctx.engine.UpdateBounty(caller, args[0], title, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated bounty %s\n", b.Addr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newBountyDeleteCmd() *cobra.Command {
	var (
		configPath string
		as         string
	)

	cmd := &cobra.Command{
		Use:   "delete <bounty-addr>",
		Short: "Delete a bounty and reclaim its escrow into the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			if err := ctx.engine.DeleteBounty(caller, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted bounty %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	return cmd
}

func newBountyApplyCmd() *cobra.Command {
	var (
		configPath string
		as         string
		validity   int64
	)

	cmd := &cobra.Command{
		Use:   "apply <bounty-addr>",
		Short: "Apply to work an open bounty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			app, err := ctx.engine.ApplyToBounty(caller, args[0], validity)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Application %s recorded for %s\n", app.Addr, app.Applicant)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().Int64Var(&validity, "validity", 0, "application validity in seconds")
	cmd.MarkFlagRequired("validity")
	return cmd
}

func newBountyAssignCmd() *cobra.Command {
	var (
		configPath  string
		as          string
		application string
	)

	cmd := &cobra.Command{
		Use:   "assign <bounty-addr>",
		Short: "Assign a bounty to an applicant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			b, sub, err := ctx.engine.AssignBounty(caller, args[0], application)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned bounty %s to %s (submission %d)\n",
				b.Addr, sub.Assignee, sub.SubmissionIndex)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().StringVar(&application, "application", "", "application address to assign")
	cmd.MarkFlagRequired("application")
	return cmd
}

func newBountyUnassignCmd() *cobra.Command {
	var (
		configPath string
		as         string
	)

	cmd := &cobra.Command{
		Use:   "unassign-overdue <bounty-addr>",
		Short: "Unassign a bounty whose submission window has passed with no work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			b, err := ctx.engine.UnassignOverdue(caller, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unassigned bounty %s, reopened for applications\n", b.Addr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	return cmd
}

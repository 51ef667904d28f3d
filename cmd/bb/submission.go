package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSubmissionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submission",
		Short: "Submission review commands",
	}

	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newSubmissionUpdateCmd())
	cmd.AddCommand(newRequestChangesCmd())
	cmd.AddCommand(newAcceptCmd())
	cmd.AddCommand(newForceAcceptCmd())
	cmd.AddCommand(newRejectCmd())
	cmd.AddCommand(newRejectStaleCmd())
	return cmd
}

func newSubmitCmd() *cobra.Command {
	var (
		configPath string
		as         string
		link       string
	)

	cmd := &cobra.Command{
		Use:   "submit <bounty-addr>",
		Short: "Submit work for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := requireWallet(as)
			if err != nil {
				return err
			}
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}
			sub, err := ctx.engine.Submit(caller, args[0], link)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submission %d of bounty %s is pending review\n",
				sub.SubmissionIndex, args[0])
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().StringVar(&link, "link", "", "link to the completed work")
	cmd.MarkFlagRequired("link")
	return cmd
}

func newSubmissionUpdateCmd() *cobra.Command {
	var (
		configPath string
		as         string
		link       string
	)

	cmd := &cobra.Command{
		Use:   "update <bounty-addr>",
		Short: "Revise a submission after a change request",
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
			sub, err := ctx.engine.UpdateSubmission(caller, args[0], link)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submission %d revised, back under review\n", sub.SubmissionIndex)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().StringVar(&link, "link", "", "link to the revised work")
	return cmd
}

func newRequestChangesCmd() *cobra.Command {
	var (
		configPath string
		as         string
		comment    string
	)

	cmd := &cobra.Command{
		Use:   "request-changes <bounty-addr>",
		Short: "Send a submission back to its assignee for changes",
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
			sub, err := ctx.engine.RequestChanges(caller, args[0], comment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Changes requested on submission %d (%d of 3 used)\n",
				sub.SubmissionIndex, sub.RequestChangeCount)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().StringVar(&comment, "comment", "", "what needs to change")
	return cmd
}

func newAcceptCmd() *cobra.Command {
	var (
		configPath string
		as         string
	)

	cmd := &cobra.Command{
		Use:   "accept <bounty-addr>",
		Short: "Accept a submission and pay out the escrow",
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
			sub, err := ctx.engine.Accept(caller, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted submission %d, bounty %s completed\n",
				sub.SubmissionIndex, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	return cmd
}

func newForceAcceptCmd() *cobra.Command {
	var (
		configPath string
		as         string
	)

	cmd := &cobra.Command{
		Use:   "force-accept <bounty-addr>",
		Short: "Accept a submission the reviewers sat on past the review window",
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
			sub, err := ctx.engine.ForceAccept(caller, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Force-accepted submission %d, bounty %s completed\n",
				sub.SubmissionIndex, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	return cmd
}

func newRejectCmd() *cobra.Command {
	var (
		configPath string
		as         string
		comment    string
	)

	cmd := &cobra.Command{
		Use:   "reject <bounty-addr>",
		Short: "Reject a submission and reopen the bounty",
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
			sub, err := ctx.engine.Reject(caller, args[0], comment)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected submission %d, bounty %s reopened\n",
				sub.SubmissionIndex, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	cmd.Flags().StringVar(&comment, "comment", "", "why the work was rejected")
	return cmd
}

func newRejectStaleCmd() *cobra.Command {
	var (
		configPath string
		as         string
	)

	cmd := &cobra.Command{
		Use:   "reject-stale <bounty-addr>",
		Short: "Reject a submission whose change request went unaddressed",
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
			sub, err := ctx.engine.RejectStale(caller, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected stale submission %d, bounty %s reopened\n",
				sub.SubmissionIndex, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().StringVar(&as, "as", "", "wallet acting as the caller")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quorumforge/bountyboard/internal/herald"
	"github.com/quorumforge/bountyboard/internal/herald/discord"
	"github.com/quorumforge/bountyboard/internal/herald/slack"
	"github.com/quorumforge/bountyboard/internal/linkcheck"
	"github.com/quorumforge/bountyboard/internal/server"
	"github.com/quorumforge/bountyboard/internal/sweep"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		withSweep  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API server",
		Long: `Serves the board over HTTP. Chat announcements and submission link
checks are wired in from the config file. With --sweep, the staleness
sweeper runs alongside the server on the configured cron schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := openContext(configPath)
			if err != nil {
				return err
			}

			if ctx.cfg.LinkCheck.Mode != linkcheck.ModeOff && ctx.cfg.LinkCheck.GitHubToken == "" {
				token, err := promptGitHubToken(cmd)
				if err != nil {
					return err
				}
				if token != "" {
					ctx.engine.Links = linkcheck.New(ctx.cfg.LinkCheck.Mode, token)
				}
			}

			h, err := buildHerald(ctx)
			if err != nil {
				return err
			}
			if h != nil {
				ctx.engine.Herald = h
				defer h.Close()
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if withSweep {
				if !sweep.ValidCron(ctx.cfg.Sweep.Cron) {
					return fmt.Errorf("invalid sweep cron expression %q", ctx.cfg.Sweep.Cron)
				}
				d := sweep.NewDaemon(ctx.engine, ctx.cfg.Authority, ctx.cfg.Sweep.Cron, cmd.OutOrStdout())
				go d.RunLoop(runCtx)
			}

			return server.Start(runCtx, server.StartOpts{
				Engine:    ctx.engine,
				BoardAddr: ctx.boardAddr,
				Port:      ctx.cfg.Server.Port,
				Out:       cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	cmd.Flags().BoolVar(&withSweep, "sweep", false, "run the staleness sweeper alongside the server")
	return cmd
}

// promptGitHubToken reads a token from the terminal without echo. Off a
// terminal (CI, piped stdin) it returns empty and link checks run
// unauthenticated against the public rate limit.
func promptGitHubToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "GitHub token for link checks (empty for anonymous): ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(raw), nil
}

// buildHerald assembles chat adapters from the config. Returns nil when no
// destination is configured.
func buildHerald(ctx *cmdContext) (*herald.Herald, error) {
	var adapters []herald.Adapter

	if ctx.cfg.Herald.Slack.BotToken != "" {
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  ctx.cfg.Herald.Slack.BotToken,
			ChannelID: ctx.cfg.Herald.Slack.Channel,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if ctx.cfg.Herald.Discord.BotToken != "" {
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  ctx.cfg.Herald.Discord.BotToken,
			ChannelID: ctx.cfg.Herald.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if len(adapters) == 0 {
		return nil, nil
	}
	return herald.New(adapters...), nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/swfplayer/internal/config"
	"github.com/jmylchreest/swfplayer/internal/daemon"
	"github.com/jmylchreest/swfplayer/internal/swf"
)

var flashVars []string

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run <movie-url>",
	Short: "Run a movie",
	Long: `Fetch and run a movie as the player's root movie.

The URL may be http(s) or a local file path / file:// URL. Flash-style
parameters can be passed with repeated --param key=value flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&flashVars, "param", nil, "movie parameter as key=value (repeatable)")
	runCmd.Flags().String("spoof-url", "", "URL the root movie reports instead of the fetched one")
	runCmd.Flags().String("load-behavior", "streaming", "load behavior (streaming, delayed, blocking)")

	mustBindPFlag("player.spoofed_url", runCmd.Flags().Lookup("spoof-url"))
	mustBindPFlag("player.load_behavior", runCmd.Flags().Lookup("load-behavior"))
}

func runRun(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	d, err := daemon.New(cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("building daemon: %w", err)
	}

	var params []swf.Parameter
	for _, raw := range flashVars {
		key, value, _ := strings.Cut(raw, "=")
		params = append(params, swf.Parameter{Key: key, Value: value})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := d.Run(ctx, args[0], params); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running player: %w", err)
	}
	return nil
}

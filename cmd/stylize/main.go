package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	date    = "unknown"
)

// errReported marks failures the terminal view has already printed.
var errReported = errors.New("reported")

func main() {
	rootCmd := &cobra.Command{
		Use:   "stylize",
		Short: "Apply artistic styles to images and videos",
		Long: `stylize uploads an image or video to an AI Style Studio server
and prints links to the styled result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("server", serverDefault(), "style studio server URL (env STYLE_STUDIO_URL)")

	rootCmd.AddCommand(
		uploadCmd(),
		stylesCmd(),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func serverDefault() string {
	if url := os.Getenv("STYLE_STUDIO_URL"); url != "" {
		return url
	}
	return "http://localhost:5000"
}

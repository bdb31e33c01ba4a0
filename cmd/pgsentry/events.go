package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lucaderi/pgsentry/internal/pgsentry/config"
	"github.com/lucaderi/pgsentry/internal/pgsentry/eve"
	"github.com/lucaderi/pgsentry/internal/pgsentry/runner"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Convert transaction captures → EVE NDJSON records",
	RunE:  runEvents,
}

var (
	flagInput      string
	flagOutput     string
	flagRejectFile string
	flagQueryCap   int
)

func init() {
	eventsCmd.Flags().StringVar(&flagInput, "input", "", "capture file (default stdin)")
	eventsCmd.Flags().StringVar(&flagOutput, "output", "", "output file (default stdout)")
	eventsCmd.Flags().StringVar(&flagRejectFile, "reject-file", "", "file to store rejected capture lines")
	eventsCmd.Flags().IntVar(&flagQueryCap, "query-cap", 0, "max emitted statement text length (default from config)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	// Flags override config.
	if flagRejectFile != "" {
		cfg.Output.RejectFile = flagRejectFile
	}
	if flagOutput != "" {
		cfg.Output.File = flagOutput
	}
	if flagQueryCap > 0 {
		cfg.Eve.QueryTextCap = flagQueryCap
	}

	var in io.Reader
	inputName := "stdin"
	if flagInput == "" {
		in = os.Stdin
	} else {
		f, err := os.Open(flagInput)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
		inputName = flagInput
	}

	var out io.Writer
	if cfg.Output.File == "" {
		out = os.Stdout
	} else {
		f, err := os.Create(cfg.Output.File)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	eve.Configure(eve.Options{QueryTextCap: cfg.Eve.QueryTextCap})
	eve.Register()

	return runner.RunReplay(context.Background(), in, out, inputName, cfg)
}

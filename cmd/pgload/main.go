package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lucaderi/pgsentry/internal/pgload"
)

func main() {
	configPath := flag.String("config", "", "Path to workload config file")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --config is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := pgload.Run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

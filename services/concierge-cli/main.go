package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/ashendes/welcome-home/internal/client"
)

func main() {
	apiURL := flag.String("api-url", envOr("WELCOME_HOME_API_URL", "http://localhost:4000"), "concierge API base URL")
	timeout := flag.Duration("timeout", 10*time.Second, "per-command request timeout")
	verbose := flag.BoolP("verbose", "v", false, "log debug output to stderr")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	c, err := client.New(*apiURL, *timeout)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(c, os.Stdin, os.Stdout, *timeout)
	fmt.Fprintf(os.Stdout, "Welcome Home concierge (%s). Type 'help' for commands.\n", *apiURL)
	a.run(ctx)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgallion1/studybuddy/internal/config"
	"github.com/dgallion1/studybuddy/internal/render"
	"github.com/dgallion1/studybuddy/internal/session"
	"github.com/dgallion1/studybuddy/internal/studyapi"
	"github.com/dgallion1/studybuddy/internal/studytest"
)

func main() {
	demo := flag.Bool("demo", false, "start an in-process study service and use it")
	serviceURL := flag.String("url", "", "study service base URL (overrides STUDY_SERVICE_URL)")
	renderFormat := flag.String("render", "", "result format: text or html (overrides STUDY_RENDER)")
	flag.Parse()

	cfg := config.Load()
	if *serviceURL != "" {
		cfg.ServiceURL = *serviceURL
	}
	if *renderFormat != "" {
		cfg.RenderFormat = strings.ToLower(*renderFormat)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *demo {
		ts := studytest.Start(log.With("component", "studytest"))
		defer ts.Close()
		cfg.ServiceURL = ts.URL
		log.Info("demo service started", "url", ts.URL)
	}

	client := studyapi.NewClient(cfg.ServiceURL, cfg.RequestTimeout, cfg.MaxErrorBody)
	defer client.Close()

	a := newApp(session.New(client, log), client, os.Stdout, render.Format(cfg.RenderFormat), log)

	log.Info("starting studybuddy", "service_url", cfg.ServiceURL)
	a.run(ctx, os.Stdin)
	log.Info("shutting down...")
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hiloscan/internal/cli"
	"hiloscan/internal/config"
	"hiloscan/internal/svc"
)

const (
	defaultConfigPath = "etc/hiloscan.yaml"
	scanTimeout       = 10 * time.Minute
	lockTTL           = 5 * time.Minute
)

func main() {
	var (
		configPath = flag.String("f", defaultConfigPath, "path to the main config file")
		tickerList = flag.String("tickers", "", "comma-separated tickers to scan instead of the watch list")
		force      = flag.Bool("force", false, "renotify even when the day's signal already exists")
		every      = flag.Duration("every", 0, "rescan interval; zero runs a single batch")
	)
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting HiLo scanner...")

	appCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] Failed to load app config %s: %v", *configPath, err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	svcCtx := svc.NewServiceContext(*appCfg, *configPath)
	if svcCtx.Scanner == nil {
		log.Fatalf("[main] Scanner could not be assembled; check market, postgres and notifier config")
	}

	manual := *tickerList != "" || *force

	if !svcCtx.ScannerConfig.ShouldRun(manual) {
		log.Println("[main] Scanner disabled in configuration. Exiting.")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *every <= 0 {
		runBatch(ctx, svcCtx, *tickerList, *force, manual)
		log.Println("[main] Scan finished")
		return
	}

	log.Printf("[main] Rescanning every %s. Press Ctrl+C to stop.", *every)
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	runBatch(ctx, svcCtx, *tickerList, *force, manual)
	for {
		select {
		case <-ctx.Done():
			log.Println("[main] Shutdown signal received, stopping scanner")
			return
		case <-ticker.C:
			runBatch(ctx, svcCtx, *tickerList, *force, manual)
		}
	}
}

func runBatch(ctx context.Context, svcCtx *svc.ServiceContext, tickerList string, force, manual bool) {
	batchCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	// Guard automatic runs against overlap when several instances share the
	// same Redis.
	if !manual && svcCtx.Repos != nil {
		held, err := svcCtx.Repos.Settings.AcquireScanLock(batchCtx, lockTTL)
		if err != nil {
			log.Printf("[main] Scan lock check failed, proceeding: %v", err)
		} else if !held {
			log.Println("[main] Another scan is in progress, skipping this round")
			return
		}
	}

	tickers := splitTickers(tickerList)
	if len(tickers) == 0 {
		if svcCtx.Repos == nil {
			log.Println("[main] No tickers requested and no watch list available")
			return
		}
		tickers = svcCtx.Repos.Settings.MonitoredTickers(batchCtx)
	}
	log.Printf("[main] Scanning %d assets: %v", len(tickers), tickers)

	batch := svcCtx.Scanner.Run(batchCtx, tickers, force)
	for ticker, err := range batch.Failures {
		log.Printf("[main] %s failed: %v", ticker, err)
	}
	log.Printf("[main] Batch done: %d evaluated, %d failed, digest=%v",
		len(batch.Results), len(batch.Failures), batch.DigestSent)
}

func splitTickers(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tickers := make([]string, 0, len(parts))
	for _, part := range parts {
		ticker := strings.ToUpper(strings.TrimSpace(part))
		if ticker != "" {
			tickers = append(tickers, ticker)
		}
	}
	return tickers
}

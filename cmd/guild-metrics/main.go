package main

import (
	"log"
	"net"
	"sync"

	"guild-metrics/internal/config"
	"guild-metrics/internal/invite"
	"guild-metrics/internal/metrics"
	"guild-metrics/internal/poller"
	"guild-metrics/internal/server"
	"guild-metrics/internal/shutdown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	coord := shutdown.New()
	coord.Listen()

	reg, allMetrics := metrics.NewMetricsRegistry()
	if cfg.RuntimeCollectors {
		metrics.RegisterRuntimeCollectors(reg)
	}

	limiter := server.NewLimiter(cfg.ScrapeRateRPS, cfg.ScrapeRateBurst)
	httpSrv := server.NewHTTPServer(cfg.Addr, reg, limiter)

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Fatalf("listen %s: %v", cfg.Addr, err)
	}

	var wg sync.WaitGroup
	p := poller.NewPoller(invite.NewClient(invite.URL, cfg.FetchTimeout), allMetrics)
	p.Start(coord.Context(), &wg, cfg.PollInterval)

	logStartup(cfg, lis.Addr())

	if err := server.Serve(coord.Context(), httpSrv, lis, cfg.ShutdownTimeout); err != nil {
		log.Printf("HTTP server error: %v", err)
		coord.Signal()
	}

	log.Println("Shutting down...")
	wg.Wait()
	log.Println("Shutdown complete")
}

func logStartup(cfg config.Config, addr net.Addr) {
	log.Printf("Starting server on %s", addr)
	log.Printf("Polling %s every %s", invite.URL, cfg.PollInterval)

	if cfg.ScrapeRateRPS > 0 && cfg.ScrapeRateBurst > 0 {
		log.Printf("scrape rate limit: rps=%.2f burst=%d", cfg.ScrapeRateRPS, cfg.ScrapeRateBurst)
	}
}

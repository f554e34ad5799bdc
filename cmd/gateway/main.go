// Command gateway is the process entry point: it loads configuration,
// wires the ring/journal/fabric/adapter stack together, and runs until a
// shutdown signal arrives. Grounded on go-arcade-arcade/cmd/cli's cobra
// root-command shape and order-matching-engine/cmd/server's
// signal.Notify + context-timeout graceful shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/primevenue/gateway/exchange"
	"github.com/primevenue/gateway/exchange/binance"
	"github.com/primevenue/gateway/exchange/okx"
	"github.com/primevenue/gateway/fabric"
	"github.com/primevenue/gateway/internal/config"
	"github.com/primevenue/gateway/internal/console"
	"github.com/primevenue/gateway/internal/telemetry"
	"github.com/primevenue/gateway/journal"
	"github.com/primevenue/gateway/ringbus"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "gateway is the multi-exchange real-time market-data and order gateway",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the gateway: connect every configured venue and drive strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGateway(configDir, false)
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run the gateway with an attached interactive operator console",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGateway(configDir, true)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gateway version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(console.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing config.yaml")
	rootCmd.AddCommand(runCmd, consoleCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// system is every long-lived component run wires up, kept together so
// shutdown can walk it in reverse dependency order (spec.md §5: strategies
// → fabric → adapters → journal → ring).
type system struct {
	cfg    *config.Config
	ring   *ringbus.MarketRing
	queue  *ringbus.OrderQueue
	jrnl   *journal.Writer
	engine *fabric.Engine
	http   *http.Server
}

func bootstrap(configDir string) (*system, []*console.Handle, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("gateway: load config: %w", err)
	}

	if err := telemetry.Init(telemetry.Conf{
		Output: "file",
		Path:   cfg.LogPath,
		Filename: "gateway.log",
		Level:    cfg.LogLevel,
		RotateSize: 100, RotateNum: 10, MaxAgeDays: 7,
	}); err != nil {
		return nil, nil, fmt.Errorf("gateway: init logging: %w", err)
	}

	ring := ringbus.NewMarketRing(cfg.RingCapacity)
	queue := ringbus.NewOrderQueue(cfg.QueueCapacity)

	var jrnl *journal.Writer
	if cfg.JournalPath != "" {
		jrnl, err = journal.OpenWriter(cfg.JournalPath, cfg.JournalPageSize)
		if err != nil {
			return nil, nil, fmt.Errorf("gateway: open journal: %w", err)
		}
	}

	engine := fabric.NewEngine(ring, queue, jrnl, 0)

	var handles []*console.Handle

	if bn, ok := cfg.Venues["binance"]; ok && (bn.APIKey != "" || bn.SecretKey != "") {
		adapter := binance.NewAdapter(toExchangeConfig(bn), engine)
		if err := engine.AddAdapter(adapter); err != nil {
			return nil, nil, fmt.Errorf("gateway: start binance adapter: %w", err)
		}
		handles = append(handles, &console.Handle{
			Name:    "binance",
			Adapter: adapter,
			Subscribe: func(kind, symbol string) error {
				return binanceSubscribe(adapter, kind, symbol)
			},
			Unsubscribe: func(kind, symbol string) error {
				return adapter.Unsubscribe(binanceStream(kind, symbol))
			},
		})
	}

	if ox, ok := cfg.Venues["okx"]; ok && (ox.APIKey != "" || ox.SecretKey != "") {
		adapter := okx.NewAdapter(toExchangeConfig(ox), engine)
		if err := engine.AddAdapter(adapter); err != nil {
			return nil, nil, fmt.Errorf("gateway: start okx adapter: %w", err)
		}
		handles = append(handles, &console.Handle{
			Name:    "okx",
			Adapter: adapter,
			Subscribe: func(kind, symbol string) error {
				return okxSubscribe(adapter, kind, symbol)
			},
			Unsubscribe: func(kind, symbol string) error {
				ch, instID := okxChannel(kind, symbol)
				return adapter.Unsubscribe(ch, instID)
			},
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	httpSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	return &system{cfg: cfg, ring: ring, queue: queue, jrnl: jrnl, engine: engine, http: httpSrv}, handles, nil
}

func runGateway(configDir string, attachConsole bool) error {
	sys, handles, err := bootstrap(configDir)
	if err != nil {
		return err
	}

	go func() {
		if err := sys.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.L().Errorw("metrics server error", "err", err)
		}
	}()

	egressStop := make(chan struct{})
	egressDone := make(chan struct{})
	go func() {
		sys.engine.RunEgressLoop(egressStop)
		close(egressDone)
	}()

	telemetry.L().Infow("gateway started", "venues", len(handles))

	if attachConsole {
		c := console.New(sys.engine, handles)
		if err := c.Run(); err != nil {
			telemetry.L().Errorw("console error", "err", err)
		}
	} else {
		waitForSignal()
	}

	return shutdown(sys, egressStop, egressDone)
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	telemetry.L().Infow("shutdown signal received")
}

// shutdown tears the system down in reverse dependency order: stop taking
// new strategy output (egress loop), disconnect adapters, close the
// journal, then the metrics server. The ring and queue themselves need no
// explicit close — they're plain in-process memory.
func shutdown(sys *system, egressStop chan struct{}, egressDone chan struct{}) error {
	close(egressStop)
	select {
	case <-egressDone:
	case <-time.After(5 * time.Second):
		telemetry.L().Warnw("egress loop did not drain within grace period")
	}

	sys.engine.Stop()

	if sys.jrnl != nil {
		if err := sys.jrnl.Close(); err != nil {
			telemetry.L().Errorw("journal close error", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sys.http.Shutdown(ctx); err != nil {
		telemetry.L().Errorw("metrics server shutdown error", "err", err)
	}

	telemetry.L().Infow("gateway stopped")
	return nil
}

func toExchangeConfig(v config.VenueConfig) exchange.Config {
	var marketType exchange.MarketType
	switch v.MarketType {
	case "spot":
		marketType = exchange.MarketSpot
	case "coin_futures":
		marketType = exchange.MarketCoinFutures
	default:
		marketType = exchange.MarketUSDTFutures
	}
	return exchange.Config{
		APIKey:              v.APIKey,
		SecretKey:           v.SecretKey,
		Passphrase:          v.Passphrase,
		MarketType:          marketType,
		IsTestnet:           v.Testnet,
		UseProxy:            v.UseProxy,
		ProxyHost:           v.ProxyHost,
		ProxyPort:           v.ProxyPort,
		VerifySSL:           v.VerifySSL,
		PingIntervalSec:     v.PingIntervalSec,
		ConnectTimeoutSec:   v.ConnectTimeoutSec,
		ListenKeyRefreshSec: v.ListenKeyRefreshSec,
		RESTTimeout:         config.RESTTimeout,
	}
}

// binanceSubscribe/binanceStream/okxSubscribe/okxChannel translate the
// console's venue-agnostic (kind, symbol) pair into each venue's own
// subscribe call — Binance builds one stream string per kind, OKX picks a
// channel name and keeps the instID separate.

func binanceStream(kind, symbol string) string {
	switch kind {
	case "ticker":
		return lowerBinance(symbol) + "@ticker"
	case "trades":
		return lowerBinance(symbol) + "@trade"
	case "depth":
		return lowerBinance(symbol) + "@depth5"
	case "kline":
		return lowerBinance(symbol) + "@kline_1m"
	case "markprice":
		return lowerBinance(symbol) + "@markPrice"
	default:
		return lowerBinance(symbol) + "@ticker"
	}
}

func binanceSubscribe(a *binance.Adapter, kind, symbol string) error {
	switch kind {
	case "ticker":
		return a.SubscribeTicker(symbol)
	case "trades":
		return a.SubscribeTrades(symbol)
	case "depth":
		return a.SubscribeOrderBook(symbol, 5)
	case "kline":
		return a.SubscribeKline(symbol, "1m")
	case "markprice":
		return a.SubscribeMarkPrice(symbol)
	default:
		return fmt.Errorf("gateway: unknown subscribe kind %q", kind)
	}
}

func okxChannel(kind, symbol string) (channel, instID string) {
	switch kind {
	case "trades":
		return "trades", symbol
	case "depth":
		return "books5", symbol
	case "kline":
		return "candle1m", symbol
	case "markprice":
		return "mark-price", symbol
	default:
		return "tickers", symbol
	}
}

func okxSubscribe(a *okx.Adapter, kind, symbol string) error {
	switch kind {
	case "ticker":
		return a.SubscribeTicker(symbol)
	case "trades":
		return a.SubscribeTrades(symbol)
	case "depth":
		return a.SubscribeOrderBook(symbol)
	case "kline":
		return a.SubscribeKline(symbol)
	case "markprice":
		return a.SubscribeMarkPrice(symbol)
	default:
		return fmt.Errorf("gateway: unknown subscribe kind %q", kind)
	}
}

func lowerBinance(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

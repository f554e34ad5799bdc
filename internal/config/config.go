// Package config loads the gateway's configuration surface (spec.md §6):
// per-venue credentials, market type, proxy/TLS, connection timing, and the
// ring/queue/journal sizing that internal/telemetry and fabric.Engine need
// at startup. Grounded on go-arcade-arcade/pkg/conf's viper usage, without
// its fsnotify hot-reload or go-kratos logging — this gateway restarts on
// config change rather than hot-swapping a running adapter's credentials
// mid-connection, which a hot-reload would otherwise invite.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// VenueConfig is one venue's credential and connection block, keyed by
// venue name ("binance", "okx") in Config.Venues.
type VenueConfig struct {
	APIKey     string
	SecretKey  string
	Passphrase string // OKX-specific; empty elsewhere

	MarketType string // "spot" | "usdt_futures" | "coin_futures"
	Testnet    bool

	UseProxy  bool
	ProxyHost string
	ProxyPort int
	VerifySSL bool

	PingIntervalSec     int
	ConnectTimeoutSec   int
	ListenKeyRefreshSec int
}

// Config is the top-level gateway configuration, per spec.md §6.
type Config struct {
	Venues map[string]VenueConfig

	RingCapacity  int
	QueueCapacity int

	JournalPath     string
	JournalPageSize int64

	MetricsAddr string
	LogLevel    string
	LogPath     string
}

func defaults(v *viper.Viper) {
	v.SetDefault("ring_capacity", 1<<16)
	v.SetDefault("queue_capacity", 1<<14)
	v.SetDefault("journal.path", "./gateway.journal")
	v.SetDefault("journal.page_size", 64<<20)
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "./log")

	for _, venue := range []string{"binance", "okx"} {
		prefix := "venues." + venue + "."
		v.SetDefault(prefix+"market_type", "usdt_futures")
		v.SetDefault(prefix+"verify_ssl", true)
		v.SetDefault(prefix+"ping_interval_sec", 30)
		v.SetDefault(prefix+"connect_timeout_sec", 5)
		v.SetDefault(prefix+"listen_key_refresh_sec", 3000)
	}
}

// bindEnv wires the §6 environment-variable overrides onto the matching
// viper keys: BINANCE_API_KEY/BINANCE_SECRET_KEY/TESTNET/BINANCE_TESTNET
// and the proxy trio (https_proxy/http_proxy/all_proxy), checked in that
// order since any one of them can carry the proxy URL.
func bindEnv(v *viper.Viper) error {
	binds := map[string]string{
		"venues.binance.api_key":     "BINANCE_API_KEY",
		"venues.binance.secret_key":  "BINANCE_SECRET_KEY",
		"venues.binance.testnet":     "BINANCE_TESTNET",
		"venues.okx.api_key":         "OKX_API_KEY",
		"venues.okx.secret_key":      "OKX_SECRET_KEY",
		"venues.okx.passphrase":      "OKX_PASSPHRASE",
		"venues.okx.testnet":         "OKX_TESTNET",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("config: bind %s: %w", env, err)
		}
	}
	// TESTNET (unprefixed) applies to every venue unless a venue-specific
	// override is also set.
	if err := v.BindEnv("testnet_all", "TESTNET"); err != nil {
		return err
	}
	for _, proxyEnv := range []string{"https_proxy", "http_proxy", "all_proxy"} {
		if err := v.BindEnv("proxy_url", proxyEnv); err != nil {
			return err
		}
	}
	return nil
}

// Load reads configDir/config.{yaml,toml,json} (whichever viper finds
// first), applies defaults, binds environment overrides, and returns a
// populated Config. A missing config file is not an error — an
// environment-only deployment (the common container case) is valid.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(configDir)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read %s: %w", configDir, err)
		}
	}

	cfg := &Config{
		Venues:          make(map[string]VenueConfig),
		RingCapacity:    v.GetInt("ring_capacity"),
		QueueCapacity:   v.GetInt("queue_capacity"),
		JournalPath:     v.GetString("journal.path"),
		JournalPageSize: v.GetInt64("journal.page_size"),
		MetricsAddr:     v.GetString("metrics_addr"),
		LogLevel:        v.GetString("log.level"),
		LogPath:         v.GetString("log.path"),
	}

	testnetAll := v.GetBool("testnet_all")
	proxyURL := v.GetString("proxy_url")

	for _, venue := range []string{"binance", "okx"} {
		prefix := "venues." + venue + "."
		testnet := testnetAll
		if v.IsSet(prefix + "testnet") {
			testnet = v.GetBool(prefix + "testnet")
		}
		vc := VenueConfig{
			APIKey:              v.GetString(prefix + "api_key"),
			SecretKey:           v.GetString(prefix + "secret_key"),
			Passphrase:          v.GetString(prefix + "passphrase"),
			MarketType:          v.GetString(prefix + "market_type"),
			Testnet:             testnet,
			UseProxy:            proxyURL != "" || v.GetBool(prefix+"use_proxy"),
			ProxyHost:           v.GetString(prefix + "proxy_host"),
			ProxyPort:           v.GetInt(prefix + "proxy_port"),
			VerifySSL:           v.GetBool(prefix + "verify_ssl"),
			PingIntervalSec:     v.GetInt(prefix + "ping_interval_sec"),
			ConnectTimeoutSec:   v.GetInt(prefix + "connect_timeout_sec"),
			ListenKeyRefreshSec: v.GetInt(prefix + "listen_key_refresh_sec"),
		}
		if proxyURL != "" && vc.ProxyHost == "" {
			vc.ProxyHost, vc.ProxyPort = splitProxyURL(proxyURL)
		}
		cfg.Venues[venue] = vc
	}

	return cfg, nil
}

// splitProxyURL pulls host/port out of a bare "scheme://host:port" proxy
// URL string; malformed input just yields an empty host, left for the
// adapter's own default to fill in (exchange.Config.WithDefaults).
func splitProxyURL(raw string) (host string, port int) {
	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	parts := strings.SplitN(s, ":", 2)
	host = parts[0]
	if len(parts) == 2 {
		fmt.Sscanf(parts[1], "%d", &port)
	}
	return host, port
}

// RESTTimeout is a fixed sane default — spec.md §6 doesn't expose it as a
// per-venue knob, only WithDefaults' 5s fallback applies.
const RESTTimeout = 5 * time.Second

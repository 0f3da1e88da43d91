// Command broker runs a UDPMQ broker: UDP and optional WebSocket
// listeners over a shared hook-extensible core.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // Import for side effects - registers /debug/pprof handlers
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/hooks"
	"github.com/bromq-dev/udpmq/pkg/listeners"
)

var (
	configFile  = flag.String("config", "", "TOML configuration file (optional)")
	listenAddr  = flag.String("listen", "", "UDP listen address (overrides config)")
	wsAddr      = flag.String("ws-listen", "", "WebSocket listen address (overrides config)")
	metricsAddr = flag.String("metrics", "", "Prometheus /metrics listen address (overrides config)")
	pprofAddr   = flag.String("pprof", "", "pprof HTTP server address (e.g. :6060)")
	logLevel    = flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")

	credentials credentialMap
	acls        aclSlice
)

// Custom flag type for accumulating credentials
type credentialMap map[string]string

func (c *credentialMap) String() string { return "" }
func (c *credentialMap) Set(s string) error {
	username, password, ok := strings.Cut(s, ":")
	if !ok {
		return fmt.Errorf("invalid credential format: %s (expected username:password)", s)
	}
	if *c == nil {
		*c = make(map[string]string)
	}
	(*c)[username] = password
	return nil
}

// Custom flag type for accumulating ACL rules
type aclSlice []hooks.ACLRule

func (a *aclSlice) String() string {
	rules := []string{}
	for _, rule := range *a {
		perm := ""
		if rule.Read {
			perm += "r"
		}
		if rule.Write {
			perm += "w"
		}
		rules = append(rules, fmt.Sprintf("%s:%s:%s", rule.Username, rule.TopicFilter, perm))
	}
	return strings.Join(rules, "\n")
}
func (a *aclSlice) Set(s string) error {
	// Parse from the ends: permissions are last, username is first
	// This allows topic filters to contain colons
	lastColon := strings.LastIndex(s, ":")
	if lastColon == -1 {
		return fmt.Errorf("invalid ACL format: %s (expected username:topicFilter:permissions)", s)
	}
	perm := s[lastColon+1:]
	rest := s[:lastColon]

	username, topic, ok := strings.Cut(rest, ":")
	if !ok {
		return fmt.Errorf("invalid ACL format: %s (expected username:topicFilter:permissions)", s)
	}

	*a = append(*a, hooks.ACLRule{
		Username:    username,
		TopicFilter: topic,
		Read:        strings.Contains(perm, "r"),
		Write:       strings.Contains(perm, "w"),
	})
	return nil
}

func init() {
	flag.Var(&credentials, "credential", "Credential: username:password (can be repeated)")
	flag.Var(&acls, "acl", "ACL rule: username:topicFilter:permissions (can be repeated)")
}

func main() {
	flag.Parse()

	cfg := defaultConfig()
	if *configFile != "" {
		if err := loadConfig(*configFile, &cfg); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Flags override the file.
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}
	if *wsAddr != "" {
		cfg.WSListen = *wsAddr
	}
	if *metricsAddr != "" {
		cfg.MetricsListen = *metricsAddr
	}
	if *pprofAddr != "" {
		cfg.PprofListen = *pprofAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	for username, password := range credentials {
		if cfg.Credentials == nil {
			cfg.Credentials = make(map[string]string)
		}
		cfg.Credentials[username] = password
	}
	cfg.ACLRules = append(cfg.ACLRules, acls...)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	b := broker.New(&broker.Config{
		MaxQoS:          cfg.MaxQoS,
		RetainAvailable: cfg.Retain,
		KeepAliveGrace:  cfg.KeepAliveGrace,
		SweepInterval:   cfg.SweepInterval,
		Logger:          logger,
	})

	registerHooks(b, &cfg, logger)

	if err := b.RestoreSessions(context.Background()); err != nil {
		log.Fatalf("Failed to restore sessions: %v", err)
	}

	udp := listeners.NewUDP("udp", cfg.Listen)
	go func() {
		if err := udp.Serve(b); err != nil {
			log.Fatalf("UDP listener failed: %v", err)
		}
	}()
	log.Printf("UDPMQ broker listening on udp %s", cfg.Listen)

	var ws *listeners.WebSocket
	if cfg.WSListen != "" {
		ws = listeners.NewWebSocket("ws", cfg.WSListen, &listeners.WebSocketConfig{
			Path: cfg.WSPath,
		})
		go func() {
			if err := ws.Serve(b); err != nil {
				log.Fatalf("WebSocket listener failed: %v", err)
			}
		}()
		log.Printf("WebSocket listening on %s%s", cfg.WSListen, cfg.WSPath)
	}

	if cfg.MetricsListen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Printf("Metrics listening on http://%s/metrics", cfg.MetricsListen)
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				log.Printf("Metrics server error: %v", err)
			}
		}()
	}

	if cfg.PprofListen != "" {
		go func() {
			log.Printf("pprof server listening on http://%s/debug/pprof/", cfg.PprofListen)
			if err := http.ListenAndServe(cfg.PprofListen, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	log.Println("Subscribe to $SYS/# to see broker metrics")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	udp.Close()
	if ws != nil {
		ws.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	log.Println("Broker stopped")
}

func registerHooks(b *broker.Broker, cfg *serverConfig, logger *slog.Logger) {
	mustRegister := func(hook broker.Hook) {
		if err := b.RegisterHook(hook); err != nil {
			log.Fatalf("Failed to register hook: %v", err)
		}
	}

	mustRegister(hooks.NewLoggerHook(hooks.LoggerConfig{Logger: logger}))

	sys := hooks.NewSysHook(hooks.SysConfig{
		Publisher: b.Publish,
		Interval:  cfg.SysInterval,
	})
	mustRegister(sys)
	sys.Start()

	if cfg.MetricsListen != "" {
		mustRegister(hooks.NewMetricsHook(prometheus.DefaultRegisterer))
	}

	if len(cfg.Credentials) > 0 {
		mustRegister(hooks.NewAuthHook(hooks.AuthConfig{Credentials: cfg.Credentials}))
		log.Printf("Authentication enabled for %d user(s)", len(cfg.Credentials))
	}

	if len(cfg.ACLRules) > 0 {
		mustRegister(hooks.NewACLHook(hooks.ACLConfig{
			Rules:         cfg.ACLRules,
			DenyByDefault: cfg.DenyACL,
		}))
		log.Printf("ACL enabled with %d rule(s)", len(cfg.ACLRules))
	}

	if cfg.PublishRate > 0 {
		mustRegister(hooks.NewRateLimitHook(hooks.RateLimitConfig{
			PublishRate: cfg.PublishRate,
			BurstSize:   cfg.Burst,
		}))
		log.Printf("Rate limit enabled: %d publishes/s", cfg.PublishRate)
	}

	switch {
	case cfg.RedisAddr != "":
		redisHook, err := hooks.NewRedisHook(hooks.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisPrefix,
			NodeID:    cfg.NodeID,
			Publisher: b.Publish,
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		mustRegister(redisHook)
	case cfg.SnapshotFile != "":
		mustRegister(hooks.NewSnapshotHook(cfg.SnapshotFile))
		log.Printf("Session snapshots: %s", cfg.SnapshotFile)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

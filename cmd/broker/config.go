package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bromq-dev/udpmq/pkg/hooks"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

// serverConfig is the fully resolved broker configuration: defaults,
// overlaid by the TOML file, overlaid by flags.
type serverConfig struct {
	Listen         string
	WSListen       string
	WSPath         string
	MaxQoS         packet.QoS
	Retain         bool
	KeepAliveGrace float64
	SweepInterval  time.Duration
	LogLevel       string
	MetricsListen  string
	PprofListen    string
	SnapshotFile   string
	SysInterval    time.Duration

	Credentials map[string]string
	ACLRules    []hooks.ACLRule
	DenyACL     bool

	PublishRate int
	Burst       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	NodeID        string
}

func defaultConfig() serverConfig {
	return serverConfig{
		Listen:         ":1883",
		WSListen:       "",
		WSPath:         "/udpmq",
		MaxQoS:         packet.QoS2,
		Retain:         true,
		KeepAliveGrace: 1.5,
		SweepInterval:  5 * time.Second,
		LogLevel:       "info",
		SysInterval:    10 * time.Second,
		RedisPrefix:    "udpmq:",
	}
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	Listen         string  `toml:"listen"`
	WSListen       string  `toml:"ws_listen"`
	WSPath         string  `toml:"ws_path"`
	MaxQoS         int     `toml:"max_qos"`
	Retain         bool    `toml:"retain"`
	KeepAliveGrace float64 `toml:"keepalive_grace"`
	SweepInterval  string  `toml:"sweep_interval"`
	LogLevel       string  `toml:"log_level"`
	MetricsListen  string  `toml:"metrics_listen"`
	PprofListen    string  `toml:"pprof_listen"`
	SnapshotFile   string  `toml:"snapshot_file"`
	SysInterval    string  `toml:"sys_interval"`

	Credentials []fileCredential `toml:"credential"`
	ACL         []fileACLRule    `toml:"acl"`
	DenyACL     bool             `toml:"acl_deny_by_default"`

	RateLimit fileRateLimit `toml:"ratelimit"`
	Redis     fileRedis     `toml:"redis"`
}

type fileCredential struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type fileACLRule struct {
	ClientID string `toml:"client_id"`
	Username string `toml:"username"`
	Filter   string `toml:"filter"`
	Access   string `toml:"access"` // "r", "w" or "rw"
}

type fileRateLimit struct {
	PublishRate int `toml:"publish_rate"`
	Burst       int `toml:"burst"`
}

type fileRedis struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix"`
	NodeID    string `toml:"node_id"`
}

// loadConfig overlays a TOML file onto cfg.
func loadConfig(path string, cfg *serverConfig) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("listen") {
		cfg.Listen = raw.Listen
	}
	if meta.IsDefined("ws_listen") {
		cfg.WSListen = raw.WSListen
	}
	if meta.IsDefined("ws_path") {
		cfg.WSPath = raw.WSPath
	}
	if meta.IsDefined("max_qos") {
		if raw.MaxQoS < 0 || raw.MaxQoS > 2 {
			return fmt.Errorf("max_qos must be 0, 1 or 2")
		}
		cfg.MaxQoS = packet.QoS(raw.MaxQoS)
	}
	if meta.IsDefined("retain") {
		cfg.Retain = raw.Retain
	}
	if meta.IsDefined("keepalive_grace") {
		cfg.KeepAliveGrace = raw.KeepAliveGrace
	}
	if meta.IsDefined("sweep_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SweepInterval))
		if err != nil {
			return fmt.Errorf("parse sweep_interval: %w", err)
		}
		cfg.SweepInterval = d
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}
	if meta.IsDefined("metrics_listen") {
		cfg.MetricsListen = raw.MetricsListen
	}
	if meta.IsDefined("pprof_listen") {
		cfg.PprofListen = raw.PprofListen
	}
	if meta.IsDefined("snapshot_file") {
		cfg.SnapshotFile = raw.SnapshotFile
	}
	if meta.IsDefined("sys_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SysInterval))
		if err != nil {
			return fmt.Errorf("parse sys_interval: %w", err)
		}
		cfg.SysInterval = d
	}

	for _, cred := range raw.Credentials {
		if cred.Username == "" {
			return fmt.Errorf("credential with empty username")
		}
		if cfg.Credentials == nil {
			cfg.Credentials = make(map[string]string)
		}
		cfg.Credentials[cred.Username] = cred.Password
	}

	for _, rule := range raw.ACL {
		parsed, err := parseACLRule(rule)
		if err != nil {
			return err
		}
		cfg.ACLRules = append(cfg.ACLRules, parsed)
	}
	if meta.IsDefined("acl_deny_by_default") {
		cfg.DenyACL = raw.DenyACL
	}

	if meta.IsDefined("ratelimit", "publish_rate") {
		cfg.PublishRate = raw.RateLimit.PublishRate
	}
	if meta.IsDefined("ratelimit", "burst") {
		cfg.Burst = raw.RateLimit.Burst
	}

	if meta.IsDefined("redis", "addr") {
		cfg.RedisAddr = raw.Redis.Addr
	}
	if meta.IsDefined("redis", "password") {
		cfg.RedisPassword = raw.Redis.Password
	}
	if meta.IsDefined("redis", "db") {
		cfg.RedisDB = raw.Redis.DB
	}
	if meta.IsDefined("redis", "key_prefix") {
		cfg.RedisPrefix = raw.Redis.KeyPrefix
	}
	if meta.IsDefined("redis", "node_id") {
		cfg.NodeID = raw.Redis.NodeID
	}

	return nil
}

func parseACLRule(rule fileACLRule) (hooks.ACLRule, error) {
	if rule.Filter == "" {
		return hooks.ACLRule{}, fmt.Errorf("acl rule with empty filter")
	}
	for _, c := range rule.Access {
		if c != 'r' && c != 'w' {
			return hooks.ACLRule{}, fmt.Errorf("acl access must be r, w or rw: %q", rule.Access)
		}
	}
	return hooks.ACLRule{
		ClientID:    rule.ClientID,
		Username:    rule.Username,
		TopicFilter: rule.Filter,
		Read:        strings.Contains(rule.Access, "r"),
		Write:       strings.Contains(rule.Access, "w"),
	}, nil
}

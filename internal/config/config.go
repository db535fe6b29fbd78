// Package config reads the preload library's settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const Prefix = "hijack"

const (
	ResolverNext = "next"
	ResolverELF  = "elf"
)

// Config is filled from HIJACK_* variables.
type Config struct {
	// Debug enables debug logging on stderr.
	Debug bool `envconfig:"DEBUG"`
	// Resolver selects how native implementations are found: "next" asks
	// the dynamic loader for the next definition, "elf" reads libc's symbol
	// table.
	Resolver string `envconfig:"RESOLVER" default:"next"`
	// GatewaySymbol names the library kernel's syscall entry point.
	GatewaySymbol string `envconfig:"GATEWAY_SYMBOL" default:"lkl_syscall"`
}

func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch c.Resolver {
	case ResolverNext, ResolverELF:
	default:
		return nil, fmt.Errorf("config: unknown resolver %q", c.Resolver)
	}
	if c.GatewaySymbol == "" {
		return nil, fmt.Errorf("config: empty gateway symbol")
	}
	return &c, nil
}

// Handler returns a stderr log handler at the level Debug selects.
func (c *Config) Handler() slog.Handler {
	return Handler(c.Debug)
}

func Handler(debug bool) slog.Handler {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
}

// Key returns the environment variable that carries the named setting.
func Key(name string) string {
	return strings.ToUpper(Prefix + "_" + name)
}

// Override returns base with every key in overrides replaced or added.
// Malformed entries in base are dropped.
func Override(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		eq := strings.IndexByte(kv, '=')
		if eq <= 0 {
			continue
		}
		if _, drop := overrides[kv[:eq]]; drop {
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

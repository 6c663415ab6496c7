// Package config loads trestle.toml and connection map files.
//
// A configuration file has four optional tables:
//
//	[validator]
//	tolerance = 0.001
//	support_reach = 0.1
//	pattern_tolerance = 0.01
//	angle_tolerance_deg = 2.0
//	rerun = false
//	bridge_fixed_pairs = false
//	connector_radius = 0.01
//
//	[export]
//	dir = "out"
//	stl = true
//	meshes = false
//	mesh_cells = 64
//
//	[cache]
//	backend = "file"   # file, redis or none
//	dir = ".trestle/cache"
//	ttl = "24h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	max_body_bytes = 4194304
//	rules_timeout = "5s"
//
// Missing tables and keys keep their defaults.
package config

import (
	"context"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chazu/trestle/pkg/assembly"
	"github.com/chazu/trestle/pkg/cache"
	"github.com/chazu/trestle/pkg/errors"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "trestle.toml"

// Duration is a time.Duration written as a string ("5s", "24h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Validator mirrors assembly.Options with the angle in degrees.
type Validator struct {
	Tolerance         float64 `toml:"tolerance"`
	SupportReach      float64 `toml:"support_reach"`
	PatternTolerance  float64 `toml:"pattern_tolerance"`
	AngleToleranceDeg float64 `toml:"angle_tolerance_deg"`
	Rerun             bool    `toml:"rerun"`
	BridgeFixedPairs  bool    `toml:"bridge_fixed_pairs"`
	ConnectorRadius   float64 `toml:"connector_radius"`
}

// Export controls scene output.
type Export struct {
	Dir       string `toml:"dir"`
	STL       bool   `toml:"stl"`
	Meshes    bool   `toml:"meshes"`
	MeshCells int    `toml:"mesh_cells"`
}

// Cache selects the generation cache backend.
type Cache struct {
	Backend string            `toml:"backend"`
	Dir     string            `toml:"dir"`
	TTL     Duration          `toml:"ttl"`
	Redis   cache.RedisConfig `toml:"redis"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string   `toml:"addr"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	RulesTimeout Duration `toml:"rules_timeout"`
	// MaxRuleEvals caps concurrent rule evaluations, including runaway ones
	// that have already timed out.
	MaxRuleEvals int `toml:"max_rule_evals"`
}

// Config is the whole file.
type Config struct {
	Validator Validator `toml:"validator"`
	Export    Export    `toml:"export"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	o := assembly.DefaultOptions()
	return Config{
		Validator: Validator{
			Tolerance:         o.Tolerance,
			SupportReach:      o.SupportReach,
			PatternTolerance:  o.PatternTolerance,
			AngleToleranceDeg: o.AngleTolerance * 180 / math.Pi,
			Rerun:             o.Rerun,
			BridgeFixedPairs:  o.BridgeFixedPairs,
			ConnectorRadius:   o.ConnectorRadius,
		},
		Export: Export{Dir: "out", STL: true, MeshCells: 64},
		Cache: Cache{
			Backend: "file",
			Dir:     ".trestle/cache",
			TTL:     Duration{24 * time.Hour},
		},
		Server: Server{
			Addr:         ":8080",
			MaxBodyBytes: 4 << 20,
			RulesTimeout: Duration{5 * time.Second},
			MaxRuleEvals: 8,
		},
	}
}

// Load reads path over the defaults. An empty path reads DefaultFile if it
// exists and returns the defaults otherwise; an explicit path must exist.
// Unknown keys are rejected so typos do not silently fall back.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return cfg, nil
		}
		path = DefaultFile
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	v := c.Validator
	for name, f := range map[string]float64{
		"tolerance":           v.Tolerance,
		"support_reach":       v.SupportReach,
		"pattern_tolerance":   v.PatternTolerance,
		"angle_tolerance_deg": v.AngleToleranceDeg,
		"connector_radius":    v.ConnectorRadius,
	} {
		if f < 0 || math.IsNaN(f) {
			return errors.New(errors.ErrCodeInvalidConfig, "validator.%s must not be negative", name)
		}
	}
	if c.Server.MaxRuleEvals < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_rule_evals must be at least 1")
	}
	switch c.Cache.Backend {
	case "file", "redis", "none", "":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q: expected file, redis or none", c.Cache.Backend)
	}
	return nil
}

// Options converts the validator table.
func (c Config) Options() assembly.Options {
	v := c.Validator
	return assembly.Options{
		Tolerance:        v.Tolerance,
		SupportReach:     v.SupportReach,
		PatternTolerance: v.PatternTolerance,
		AngleTolerance:   v.AngleToleranceDeg * math.Pi / 180,
		Rerun:            v.Rerun,
		BridgeFixedPairs: v.BridgeFixedPairs,
		ConnectorRadius:  v.ConnectorRadius,
	}
}

// OpenCache builds the configured cache backend.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case "none":
		return cache.NullCache{}, nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, c.Cache.Redis)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect redis at %s", c.Cache.Redis.Addr)
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(c.Cache.Dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache dir %s", c.Cache.Dir)
		}
		return fc, nil
	}
}

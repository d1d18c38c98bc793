// Package config loads server configuration from TOML or YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/osckit/internal/charset"
	"github.com/joshuapare/osckit/osc/query"
	"github.com/joshuapare/osckit/pkg/types"
)

const (
	DefaultName      = "osckit"
	DefaultOSCPort   = 1234
	DefaultHTTPPort  = 5678
	DefaultArenaSize = 64 << 10
)

type Config struct {
	Name     string      `toml:"name" yaml:"name"`
	Bind     string      `toml:"bind" yaml:"bind"`
	OSCPort  int         `toml:"osc_port" yaml:"osc_port"`
	HTTPPort int         `toml:"http_port" yaml:"http_port"`
	Charset  string      `toml:"charset" yaml:"charset"`
	Arena    ArenaConfig `toml:"arena" yaml:"arena"`
	Tree     TreeConfig  `toml:"tree" yaml:"tree"`
	Log      LogConfig   `toml:"log" yaml:"log"`
	Nodes    []NodeEntry `toml:"nodes" yaml:"nodes"`
}

type ArenaConfig struct {
	// Size is the allocator capacity in bytes. With Heap it is a limit and
	// 0 means unbounded.
	Size   int  `toml:"size" yaml:"size"`
	Locked bool `toml:"locked" yaml:"locked"`
	Heap   bool `toml:"heap" yaml:"heap"`
}

type TreeConfig struct {
	CreateIntermediate bool `toml:"create_intermediate" yaml:"create_intermediate"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// NodeEntry declares one node to add at startup.
type NodeEntry struct {
	Address  string `toml:"address" yaml:"address"`
	Type     string `toml:"type" yaml:"type"`
	Flags    string `toml:"flags" yaml:"flags"`
	Capacity int    `toml:"capacity" yaml:"capacity"`
	Value    string `toml:"value" yaml:"value"`
}

// Default returns a configuration with every default applied and no nodes.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load reads path, choosing the decoder by extension (.toml, .yaml, .yml),
// applies defaults and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config load failed (%s): unsupported extension %q", path, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = DefaultName
	}
	if cfg.OSCPort == 0 {
		cfg.OSCPort = DefaultOSCPort
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = DefaultHTTPPort
	}
	if cfg.Arena.Size == 0 && !cfg.Arena.Heap {
		cfg.Arena.Size = DefaultArenaSize
	}
}

func Validate(cfg Config) error {
	if err := validPort(cfg.OSCPort); err != nil {
		return fmt.Errorf("osc_port: %w", err)
	}
	if err := validPort(cfg.HTTPPort); err != nil {
		return fmt.Errorf("http_port: %w", err)
	}
	if cfg.Arena.Size < 0 {
		return fmt.Errorf("arena size must not be negative")
	}
	if cfg.Arena.Locked && cfg.Arena.Heap {
		return fmt.Errorf("arena cannot be both locked and heap-backed")
	}
	if _, err := charset.Lookup(cfg.Charset); err != nil {
		return err
	}
	seen := make(map[string]bool, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		if _, err := n.Resolve(); err != nil {
			return fmt.Errorf("node[%d] invalid: %w", i, err)
		}
		if seen[n.Address] {
			return fmt.Errorf("node[%d] invalid: duplicate address %s", i, n.Address)
		}
		seen[n.Address] = true
	}
	return nil
}

func validPort(p int) error {
	if p < 0 || p > 65535 {
		return fmt.Errorf("port %d out of range", p)
	}
	return nil
}

// Node is a resolved NodeEntry.
type Node struct {
	Address  string
	Value    types.Value
	Flags    query.Flags
	Capacity int
}

// Resolve parses the entry's type, flags and initial value.
func (e NodeEntry) Resolve() (Node, error) {
	if strings.TrimSpace(e.Address) == "" {
		return Node{}, fmt.Errorf("address is required")
	}
	typ, err := types.ParseType(e.Type)
	if err != nil {
		return Node{}, fmt.Errorf("%s: %w", e.Address, err)
	}
	flags, err := query.ParseFlags(e.Flags)
	if err != nil {
		return Node{}, fmt.Errorf("%s: %w", e.Address, err)
	}
	v := types.Zero(typ)
	if e.Value != "" {
		v, err = types.ParseValue(typ, e.Value)
		if err != nil {
			return Node{}, fmt.Errorf("%s: %w", e.Address, err)
		}
	}
	if e.Capacity < 0 {
		return Node{}, fmt.Errorf("%s: negative capacity", e.Address)
	}
	if typ == types.TypeString && e.Capacity > 0 && len(v.S) > e.Capacity {
		return Node{}, fmt.Errorf("%s: %w", e.Address, types.ErrStringBufferOverflow)
	}
	return Node{Address: e.Address, Value: v, Flags: flags, Capacity: e.Capacity}, nil
}

// Populate adds every configured node to t in file order.
func Populate(t *query.Tree, entries []NodeEntry) error {
	for i, e := range entries {
		n, err := e.Resolve()
		if err != nil {
			return fmt.Errorf("node[%d]: %w", i, err)
		}
		node, err := t.AddValue(n.Address, n.Value, n.Capacity)
		if err != nil {
			return fmt.Errorf("node[%d]: %w", i, err)
		}
		if err := node.SetFlags(n.Flags); err != nil {
			return fmt.Errorf("node[%d]: %w", i, err)
		}
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/joshuapare/osckit/internal/charset"
	"github.com/joshuapare/osckit/internal/config"
	"github.com/joshuapare/osckit/osc/alloc"
	"github.com/joshuapare/osckit/osc/query"
)

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildTree creates the allocator and tree described by cfg and adds the
// configured nodes. The returned function releases the allocator.
func buildTree(cfg config.Config, opts ...query.Option) (*query.Tree, func() error, error) {
	a, closeFn, err := newAllocator(cfg.Arena)
	if err != nil {
		return nil, nil, err
	}

	cs, err := charset.Lookup(cfg.Charset)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	opts = append(opts, query.WithStringDecoder(cs.Decode))
	if cfg.Tree.CreateIntermediate {
		opts = append(opts, query.WithFlags(query.CreateIntermediate))
	}

	t, err := query.New(a, opts...)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if err := config.Populate(t, cfg.Nodes); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to build tree: %w", err)
	}
	return t, closeFn, nil
}

func newAllocator(cfg config.ArenaConfig) (alloc.Allocator, func() error, error) {
	nop := func() error { return nil }
	switch {
	case cfg.Heap:
		return alloc.NewHeap(cfg.Size), nop, nil
	case cfg.Locked:
		p, err := alloc.NewLockedPool(cfg.Size)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to lock arena: %w", err)
		}
		return p, p.Close, nil
	default:
		p := alloc.NewPool(cfg.Size)
		return p, p.Close, nil
	}
}

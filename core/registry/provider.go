package registry

import (
	"context"
	"fmt"

	"github.com/artpar/confsync/core/schema"
)

// Provider discovers module declarations. How it finds them is its own
// business; the registry only inspects what it returns.
type Provider interface {
	Modules(ctx context.Context) ([]schema.Module, error)
}

// Static serves a fixed list of declarations.
type Static []schema.Module

// Modules returns a copy of the list.
func (s Static) Modules(ctx context.Context) ([]schema.Module, error) {
	return append([]schema.Module(nil), s...), nil
}

// Dirs loads YAML declarations from directories.
type Dirs []string

// Modules parses every directory in order.
func (d Dirs) Modules(ctx context.Context) ([]schema.Module, error) {
	var mods []schema.Module
	for _, dir := range d {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := schema.ParseDir(dir)
		if err != nil {
			return nil, fmt.Errorf("load modules from %s: %w", dir, err)
		}
		mods = append(mods, found...)
	}
	return mods, nil
}

// Multi concatenates the output of several providers.
type Multi []Provider

// Modules queries each provider in order.
func (m Multi) Modules(ctx context.Context) ([]schema.Module, error) {
	var mods []schema.Module
	for _, p := range m {
		found, err := p.Modules(ctx)
		if err != nil {
			return nil, err
		}
		mods = append(mods, found...)
	}
	return mods, nil
}

// Func adapts a function to Provider.
type Func func(ctx context.Context) ([]schema.Module, error)

// Modules calls f.
func (f Func) Modules(ctx context.Context) ([]schema.Module, error) {
	return f(ctx)
}

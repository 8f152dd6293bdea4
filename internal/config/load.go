// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/matt-FFFFFF/fanout/internal/ctxlog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// Load reads the configuration at src on top of Default. src is a local path
// or any go-getter URL.
func Load(ctx context.Context, src string) (*Config, error) {
	name, data, err := read(ctx, src)
	if err != nil {
		return nil, err
	}

	return Parse(Default(), name, data)
}

// Parse decodes data onto a copy of base. The file name extension selects the
// decoder. Keys absent from the file keep base's values.
func Parse(base *Config, filename string, data []byte) (*Config, error) {
	c := *base
	c.Env = make(map[string]string, len(base.Env))

	for k, v := range base.Env {
		c.Env[k] = v
	}

	f := new(file)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, f, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParseConfig, filename, err)
		}
	case ".hcl", ".json":
		if err := hclsimple.Decode(filename, data, evalContext(), f); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParseConfig, filename, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}

	if err := f.apply(&c); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParseConfig, filename, err)
	}

	return &c, nil
}

// evalContext exposes the process environment to HCL expressions as env.NAME.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" || !hclIdentifier(k) {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": env,
		},
	}
}

func hclIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}

	return true
}

// read returns the file name and content of src. Local files are read through
// FsFactory; everything else goes through go-getter.
func read(ctx context.Context, src string) (string, []byte, error) {
	if src == "" {
		return "", nil, ErrGetConfigFile
	}

	fs := FsFactory()

	if ok, _ := afero.Exists(fs, src); ok {
		ctxlog.Debug(ctx, "reading local config file", "path", src)

		data, err := afero.ReadFile(fs, src)
		if err != nil {
			return "", nil, errors.Join(ErrGetConfigFile, err)
		}

		return filepath.Base(src), data, nil
	}

	ctxlog.Debug(ctx, "fetching config file", "url", src)

	return getURL(ctx, src)
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/tagvault"
	"github.com/aretw0/tagvault/pkg/adapters/sim"
	"github.com/aretw0/tagvault/pkg/vault"
)

// openImage loads a tag image into a simulated reader and builds a vault over it.
// adjust may override the loaded configuration.
func openImage(path string, adjust ...func(*tagvault.Config)) (*vault.Vault, *sim.Reader, *sim.Tag, error) {
	tag, err := sim.LoadImage(path)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := tagvault.LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, fn := range adjust {
		fn(&cfg)
	}

	reader := sim.NewReader()
	reader.Place(tag)
	v, err := tagvault.NewVault(reader, cfg, tagvault.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build vault: %w", err)
	}
	return v, reader, tag, nil
}

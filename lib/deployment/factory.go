// Copyright 2026 The Fuzzdepot Authors
// SPDX-License-Identifier: Apache-2.0

package deployment

import (
	"fmt"
	"log/slog"

	"github.com/fuzzdepot/fuzzdepot/lib/config"
	"github.com/fuzzdepot/fuzzdepot/lib/fetch"
	"github.com/fuzzdepot/fuzzdepot/lib/filestore"
)

// New selects and constructs the deployment strategy for cfg. Internal
// platforms run against the managed fuzzing service; every other
// platform gets the lite strategy backed by the configured filestore.
// This is the single seam deciding platform policy; no other component
// inspects cfg.Platform.
func New(cfg *config.Config, logger *slog.Logger) (Deployment, error) {
	if cfg.Platform.Internal() {
		logger.Info("using managed deployment", "platform", cfg.Platform)
		return NewManaged(cfg, fetch.New(), logger), nil
	}

	store, err := filestore.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("selecting filestore: %w", err)
	}
	logger.Info("using lite deployment", "platform", cfg.Platform, "storage", cfg.Storage.Kind)
	return NewLite(cfg, store, logger), nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxelcraft.ai/durability/internal/persistence/indexdb"
	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/tuning"
	"voxelcraft.ai/durability/internal/sim/world"
)

type runtimeIndex interface {
	world.AuditSink
	Close() error
	UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error
	Stats() indexdb.Stats
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported VC_INDEX_BACKEND: %s", backend)
	}
}

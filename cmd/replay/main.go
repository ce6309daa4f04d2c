package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	persistlog "voxelcraft.ai/durability/internal/persistence/log"
	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/world"
)

func main() {
	var (
		auditDir  = flag.String("audit", "", "audit dir containing audit-*.jsonl.zst")
		configDir = flag.String("configs", "./configs", "config directory")
		fromMs    = flag.Int64("from_ms", 0, "skip entries before this game time (optional)")
		toMs      = flag.Int64("to_ms", 0, "stop after this game time (optional)")
	)
	flag.Parse()

	if *auditDir == "" {
		fmt.Fprintln(os.Stderr, "missing -audit")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}

	files, err := persistlog.AuditFiles(*auditDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list audit:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no audit files found in", *auditDir)
		os.Exit(1)
	}

	var entries []world.AuditEntry
	for _, path := range files {
		es, err := persistlog.ReadAll(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, e := range es {
			if e.TimeMs < *fromMs {
				continue
			}
			if *toMs != 0 && e.TimeMs > *toMs {
				continue
			}
			entries = append(entries, e)
		}
	}

	rep, err := verify(entries, cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: entries=%d files=%d runs=%d items_destroyed=%d blocks_replaced=%d\n",
		rep.Entries, len(files), rep.Runs, rep.ItemsDestroyed, rep.BlocksReplaced)
	actions := make([]string, 0, len(rep.ByAction))
	for a := range rep.ByAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		fmt.Printf("  %-22s %d\n", a, rep.ByAction[a])
	}
}

package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelcraft.ai/durability/internal/sim/catalogs"
	"voxelcraft.ai/durability/internal/sim/tuning"
	"voxelcraft.ai/durability/internal/sim/world"
)

// SQLiteIndex is a read-model of the audit stream. Writes are queued to a
// single writer goroutine and dropped when the queue is full; the JSONL audit
// log remains the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan world.AuditEntry
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAudit atomic.Uint64
	written   atomic.Uint64
}

type Stats struct {
	QueueDepth     int
	QueueCapacity  int
	DropAuditTotal uint64
	WrittenTotal   uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan world.AuditEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			run TEXT NOT NULL,
			time_ms INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			world TEXT NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block INTEGER NOT NULL,
			to_block INTEGER NOT NULL,
			reason TEXT,
			entity_id TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run, time_ms, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_action_time ON audits(action, time_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_time ON audits(time_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_entity ON audits(entity_id);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos_time ON audits(x, z, y, time_ms);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropAuditTotal: s.dropAudit.Load(),
		WrittenTotal:   s.written.Load(),
	}
}

func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	raw := map[string][]byte{}
	read := func(name, path string) {
		b, err := os.ReadFile(path)
		if err != nil {
			return
		}
		raw[name] = b
	}
	if configDir != "" {
		read("blocks_defs", filepath.Join(configDir, "blocks.json"))
		read("items_defs", filepath.Join(configDir, "items.json"))
		read("damage_types", filepath.Join(configDir, "damage_types.json"))
	}

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b := raw["blocks_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b := raw["items_defs"]; len(b) > 0 {
		rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	if b := raw["damage_types"]; len(b) > 0 {
		rows = append(rows, kv{name: "damage_types", digest: cats.DamageTypes.Digest, json: b})
	} else {
		// Canonicalize when the file is absent (catalog defaulted to empty).
		ids := make([]string, 0, len(cats.DamageTypes.ByID))
		for id := range cats.DamageTypes.ByID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		if b, _ := json.Marshal(ids); len(b) > 0 {
			rows = append(rows, kv{name: "damage_types", digest: cats.DamageTypes.Digest, json: b})
		}
	}

	// Tuning: store the values we actually apply (canonical JSON).
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','2')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Plain INSERT: rows from earlier runs are never replaced.
	insertAudit, _ := s.db.Prepare(`INSERT INTO audits(run,time_ms,seq,world,actor,action,x,y,z,from_block,to_block,reason,entity_id,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		pending       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastRun       string
		lastAuditTime int64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err == nil {
			s.written.Add(uint64(pending))
		}
		tx = nil
		opCount = 0
		pending = 0
		lastCommit = time.Now()
	}
	// A failed insert loses the open batch; count all of it as dropped.
	rollback := func() {
		if tx == nil {
			return
		}
		s.dropAudit.Add(uint64(pending))
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		pending = 0
		lastCommit = time.Now()
	}

	for a := range s.ch {
		begin()
		if tx == nil || insertAudit == nil {
			s.dropAudit.Add(1)
			continue
		}
		if a.Run != lastRun || a.TimeMs != lastAuditTime {
			lastRun = a.Run
			lastAuditTime = a.TimeMs
			auditSeq = 0
		}
		seq := auditSeq
		auditSeq++
		raw, _ := json.Marshal(a)
		entityID, _ := a.Details["entity_id"].(string)
		if _, err := tx.Stmt(insertAudit).Exec(
			a.Run,
			a.TimeMs,
			seq,
			a.World,
			a.Actor,
			a.Action,
			a.Pos[0], a.Pos[1], a.Pos[2],
			int64(a.From),
			int64(a.To),
			a.Reason,
			entityID,
			string(raw),
		); err != nil {
			s.dropAudit.Add(1)
			rollback()
			continue
		}
		opCount++
		pending++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

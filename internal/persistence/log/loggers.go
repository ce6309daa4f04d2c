package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"voxelcraft.ai/durability/internal/sim/world"
)

// JSONLZstdWriter appends JSON lines to hourly zstd-compressed files named
// <prefix>-<hour>[-<suffix>].jsonl.zst.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	suffix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	name := w.prefix + "-" + hour
	if w.suffix != "" {
		name += "-" + w.suffix
	}
	return filepath.Join(w.baseDir, name+".jsonl.zst")
}

// NewRunID names one server process. It sorts by start time, so audit files
// of the same hour list in run order.
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102T150405Z") + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// AuditLogger writes the audit entries of one run into
// <worldDir>/audit/audit-<hour>-<run>.jsonl.zst. A run never appends to a
// file of another run.
type AuditLogger struct {
	w   *JSONLZstdWriter
	run string
}

func NewAuditLogger(worldDir, runID string) *AuditLogger {
	w := NewJSONLZstdWriter(AuditDir(worldDir), "audit")
	w.suffix = runID
	return &AuditLogger{w: w, run: runID}
}

func AuditDir(worldDir string) string { return filepath.Join(worldDir, "audit") }

func (l *AuditLogger) WriteAudit(v world.AuditEntry) error {
	if v.Run == "" {
		v.Run = l.run
	}
	return l.w.Write(v)
}

func (l *AuditLogger) Close() error { return l.w.Close() }

// AuditFiles lists the audit files in dir in name order.
func AuditFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "audit-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// LastTimeMs returns the latest game time recorded in the world's audit log,
// or 0 for a world that has none. Entries decoded before a truncated tail
// still count; files with nothing readable are skipped.
func LastTimeMs(worldDir string) (int64, error) {
	files, err := AuditFiles(AuditDir(worldDir))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var last int64
	for _, path := range files {
		entries, _ := ReadAll(path)
		for _, e := range entries {
			if e.TimeMs > last {
				last = e.TimeMs
			}
		}
	}
	return last, nil
}

// ReadAll decodes every entry of one audit file, in order.
func ReadAll(path string) ([]world.AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []world.AuditEntry
	jd := json.NewDecoder(dec)
	for jd.More() {
		var e world.AuditEntry
		if err := jd.Decode(&e); err != nil {
			return out, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
	return out, nil
}

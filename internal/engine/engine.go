// Package engine is the storage engine (L1): the authoritative in-memory
// view of committed key -> value state, backed by the append-only log
// backend (internal/walog). It replays the log at open with commit-marker
// semantics, exposes get/set/del/scan, and triggers compaction.
package engine

import (
	"fmt"
	"sort"

	"tegdb/internal/dberr"
	"tegdb/internal/kv"
	"tegdb/internal/walog"
)

// recordOverhead is the framing cost (the two 4-byte length prefixes) every
// log record carries in addition to its key and value bytes.
const recordOverhead = 8

// Engine is the single-writer storage engine for one open database file.
// It is not safe for concurrent use from multiple goroutines.
type Engine struct {
	log    *walog.Log
	cfg    Config
	values map[string][]byte
	sorted []string // keys, kept in ascending order

	activeDataSize int64

	// compactionSuppressed is set for the lifetime of an in-flight
	// transaction so a mid-transaction Set cannot straddle a compaction:
	// compacting would bake an uncommitted write into the rewritten log
	// with no undo history to recover it from on a later crash.
	compactionSuppressed bool
}

// undoOp records one replay-time mutation so recovery can reverse it if no
// later commit marker confirms it.
type undoOp struct {
	key      string
	hadPrior bool
	prior    []byte
}

// Open opens or creates the database file at path, replays it per the
// commit-marker protocol, and runs compaction if cfg.AutoCompact is set and
// the thresholds are already exceeded.
func Open(path string, cfg Config) (*Engine, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}

	log, err := walog.Open(path, cfg.logConfig())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		log:    log,
		cfg:    cfg,
		values: make(map[string][]byte),
	}

	if err := e.replay(); err != nil {
		log.Close()
		return nil, err
	}

	if cfg.ResidentKeysCap > 0 && len(e.values) > cfg.ResidentKeysCap {
		log.Close()
		return nil, fmt.Errorf("%w: replay produced %d resident keys, cap is %d", dberr.ErrOutOfMemoryQuota, len(e.values), cfg.ResidentKeysCap)
	}

	if cfg.AutoCompact {
		if err := e.maybeCompact(); err != nil {
			log.Close()
			return nil, err
		}
	}

	return e, nil
}

// replay applies every record in file order to the in-memory map, tracking
// an undo list of operations seen since the last commit marker, and undoes
// that list in reverse once the scan stops (at end of file or at the first
// corrupt record — both look identical to replay).
func (e *Engine) replay() error {
	var pending []undoOp

	err := e.log.ScanForReplay(func(rec walog.ReplayEntry) error {
		key := string(rec.Key)

		if key == walog.CommitMarkerKey {
			pending = pending[:0]
			return nil
		}

		prior, hadPrior := e.values[key]
		pending = append(pending, undoOp{key: key, hadPrior: hadPrior, prior: prior})

		if rec.IsDel {
			e.applyDelete(key)
		} else {
			e.applySet(key, rec.Value)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := len(pending) - 1; i >= 0; i-- {
		op := pending[i]
		if op.hadPrior {
			e.applySet(op.key, op.prior)
		} else {
			e.applyDelete(op.key)
		}
	}
	return nil
}

// Get returns a shared handle to the current value for key and whether it
// is present. The returned slice must not be mutated by the caller.
func (e *Engine) Get(key []byte) ([]byte, bool) {
	v, ok := e.values[string(key)]
	return v, ok
}

// Set installs value for key. An empty value is equivalent to Delete. A
// value identical to the current one is a no-op (no log record appended).
func (e *Engine) Set(key, value []byte) error {
	if len(value) == 0 {
		return e.Delete(key)
	}

	k := string(key)
	if existing, ok := e.values[k]; ok && bytesEqual(existing, value) {
		return nil
	}

	isNew := !e.contains(k)
	if isNew && e.cfg.ResidentKeysCap > 0 && len(e.values) >= e.cfg.ResidentKeysCap {
		return fmt.Errorf("%w: inserting key would exceed resident-keys cap %d", dberr.ErrOutOfMemoryQuota, e.cfg.ResidentKeysCap)
	}

	if err := e.log.WriteEntry(key, value); err != nil {
		return err
	}

	if old, ok := e.values[k]; ok {
		e.activeDataSize -= int64(recordOverhead + len(k) + len(old))
	}
	e.applySet(k, append([]byte(nil), value...))
	e.activeDataSize += int64(recordOverhead + len(k) + len(value))

	if !e.compactionSuppressed {
		if err := e.maybeCompact(); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes key; a no-op if key is absent.
func (e *Engine) Delete(key []byte) error {
	k := string(key)
	if !e.contains(k) {
		return nil
	}

	if err := e.log.WriteEntry(key, nil); err != nil {
		return err
	}

	old := e.values[k]
	e.activeDataSize -= int64(recordOverhead + len(k) + len(old))
	e.applyDelete(k)
	return nil
}

func (e *Engine) contains(k string) bool {
	_, ok := e.values[k]
	return ok
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applySet installs value for k in the map and sorted key index without
// touching the log or active-data-size bookkeeping (used by replay, Set,
// and rollback).
func (e *Engine) applySet(k string, value []byte) {
	if _, exists := e.values[k]; !exists {
		e.insertSorted(k)
	}
	e.values[k] = value
}

// applyDelete removes k from the map and sorted key index.
func (e *Engine) applyDelete(k string) {
	if _, exists := e.values[k]; !exists {
		return
	}
	delete(e.values, k)
	i := sort.SearchStrings(e.sorted, k)
	if i < len(e.sorted) && e.sorted[i] == k {
		e.sorted = append(e.sorted[:i], e.sorted[i+1:]...)
	}
}

func (e *Engine) insertSorted(k string) {
	i := sort.SearchStrings(e.sorted, k)
	e.sorted = append(e.sorted, "")
	copy(e.sorted[i+1:], e.sorted[i:])
	e.sorted[i] = k
}

// Scan yields (key, value) pairs in key order over the half-open range
// [start, end). Iteration is lazy over a snapshot of the current key order.
func (e *Engine) Scan(start, end []byte) kv.Iterator {
	lo := sort.SearchStrings(e.sorted, string(start))
	var hi int
	if end == nil {
		hi = len(e.sorted)
	} else {
		hi = sort.SearchStrings(e.sorted, string(end))
	}
	if hi < lo {
		hi = lo
	}
	keys := append([]string(nil), e.sorted[lo:hi]...)
	return &engineIterator{e: e, keys: keys, pos: -1}
}

type engineIterator struct {
	e    *Engine
	keys []string
	pos  int
}

func (it *engineIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *engineIterator) Key() []byte {
	return []byte(it.keys[it.pos])
}

func (it *engineIterator) Value() []byte {
	return it.e.values[it.keys[it.pos]]
}

// ActiveDataSize returns the cached running total of (key length + value
// length + framing overhead) over every resident entry.
func (e *Engine) ActiveDataSize() int64 { return e.activeDataSize }

// LogSize returns the current on-disk size of the log backing this engine.
func (e *Engine) LogSize() int64 { return e.log.Size() }

// KeyCount returns the number of resident keys.
func (e *Engine) KeyCount() int { return len(e.values) }

// SuppressCompaction defers the compaction trigger until ResumeCompaction
// is called, so a mid-transaction write cannot be straddled by a
// compaction (see the compactionSuppressed field doc).
func (e *Engine) SuppressCompaction() { e.compactionSuppressed = true }

// ResumeCompaction re-enables the compaction trigger and runs it once to
// catch up on anything deferred while suppressed.
func (e *Engine) ResumeCompaction() error {
	e.compactionSuppressed = false
	return e.maybeCompact()
}

// WriteCommitMarker appends the reserved commit-marker record directly to
// the log and flushes it, without touching the in-memory map: the marker
// is never part of user data and is never visible through Get/Scan.
func (e *Engine) WriteCommitMarker() error {
	if err := e.log.WriteEntry([]byte(walog.CommitMarkerKey), nil); err != nil {
		return err
	}
	return e.log.SyncAll()
}

// Close releases the engine's exclusive hold on its log file.
func (e *Engine) Close() error {
	return e.log.Close()
}

// Path returns the path of the engine's backing file.
func (e *Engine) Path() string { return e.log.Path() }

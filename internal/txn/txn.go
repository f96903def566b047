// Package txn is the single-writer transactional layer (L2): write-through
// mutations against the storage engine guarded by an in-memory undo log,
// auto-rollback on drop, and commit-marker durability.
package txn

import (
	"fmt"

	"tegdb/internal/dberr"
	"tegdb/internal/engine"
	"tegdb/internal/kv"
)

// undoEntry is one pre-image recorded before a mutation, so Rollback can
// restore the engine to its pre-transaction state without reading the log.
type undoEntry struct {
	key      []byte
	hadPrior bool
	prior    []byte
}

// Transaction groups mutations against one Engine with all-or-nothing
// visibility across a process crash. Reads pass straight through to the
// engine (write-through): a transaction sees its own writes immediately,
// and no other transaction can run concurrently with it.
type Transaction struct {
	eng       *engine.Engine
	undo      []undoEntry
	wrote     bool
	finalized bool
}

// Begin starts a transaction against eng, suppressing the engine's
// compaction trigger for the transaction's lifetime so a mid-transaction
// write cannot be straddled by a compaction.
func Begin(eng *engine.Engine) *Transaction {
	eng.SuppressCompaction()
	return &Transaction{eng: eng}
}

// Get passes straight through to the engine.
func (t *Transaction) Get(key []byte) ([]byte, bool) {
	return t.eng.Get(key)
}

// Scan passes straight through to the engine.
func (t *Transaction) Scan(start, end []byte) kv.Iterator {
	return t.eng.Scan(start, end)
}

// Set records the pre-image of key (unless this is a no-op: the value
// equals the current one, or it is empty and the key is already absent)
// then writes through to the engine. If the engine write fails, the
// just-recorded undo entry is discarded so Rollback never re-applies work
// that was never actually committed to the engine.
func (t *Transaction) Set(key, value []byte) error {
	if t.finalized {
		return dberr.ErrTransactionAlreadyFinalized
	}

	prior, hadPrior := t.eng.Get(key)
	if len(value) == 0 {
		return t.Delete(key)
	}
	if hadPrior && bytesEqual(prior, value) {
		return nil
	}

	t.undo = append(t.undo, undoEntry{key: append([]byte(nil), key...), hadPrior: hadPrior, prior: append([]byte(nil), prior...)})
	if err := t.eng.Set(key, value); err != nil {
		t.undo = t.undo[:len(t.undo)-1]
		return err
	}
	t.wrote = true
	return nil
}

// Delete records the pre-image of key (unless it is already absent, a
// no-op) then writes the delete through to the engine.
func (t *Transaction) Delete(key []byte) error {
	if t.finalized {
		return dberr.ErrTransactionAlreadyFinalized
	}

	prior, hadPrior := t.eng.Get(key)
	if !hadPrior {
		return nil
	}

	t.undo = append(t.undo, undoEntry{key: append([]byte(nil), key...), hadPrior: true, prior: append([]byte(nil), prior...)})
	if err := t.eng.Delete(key); err != nil {
		t.undo = t.undo[:len(t.undo)-1]
		return err
	}
	t.wrote = true
	return nil
}

// Commit makes every write in this transaction durable: if any writes
// occurred, a commit marker is appended and the undo log is cleared. A
// read-only transaction commits without writing anything (no marker is
// appended).
func (t *Transaction) Commit() error {
	if t.finalized {
		return dberr.ErrTransactionAlreadyFinalized
	}
	t.finalized = true
	defer t.eng.ResumeCompaction()

	if t.wrote {
		if err := t.eng.WriteCommitMarker(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	t.undo = nil
	return nil
}

// Rollback reverses every write in this transaction by walking the undo
// log in reverse and restoring each pre-image through the engine.
func (t *Transaction) Rollback() error {
	if t.finalized {
		return dberr.ErrTransactionAlreadyFinalized
	}
	t.finalized = true
	defer t.eng.ResumeCompaction()

	for i := len(t.undo) - 1; i >= 0; i-- {
		op := t.undo[i]
		var err error
		if op.hadPrior {
			err = t.eng.Set(op.key, op.prior)
		} else {
			err = t.eng.Delete(op.key)
		}
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
	}
	t.undo = nil
	return nil
}

// Finalized reports whether Commit or Rollback has already run.
func (t *Transaction) Finalized() bool { return t.finalized }

// Close implements the "drop rolls back silently" rule for callers that
// did not explicitly commit or roll back: it rolls back if not already
// finalized, swallowing any error from the implicit rollback.
func (t *Transaction) Close() {
	if t.finalized {
		return
	}
	_ = t.Rollback()
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

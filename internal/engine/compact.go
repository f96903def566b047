package engine

import (
	"github.com/google/uuid"

	"tegdb/internal/walog"
)

// maybeCompact runs compact if the current log size exceeds the
// compaction floor and the ratio of log size to active data size exceeds
// the configured factor.
func (e *Engine) maybeCompact() error {
	floor := e.cfg.compactionFloor()
	logSize := e.log.Size()
	if logSize <= floor {
		return nil
	}
	active := e.activeDataSize
	if active <= 0 {
		active = 1
	}
	ratio := float64(logSize) / float64(active)
	if ratio <= e.cfg.compactionRatio() {
		return nil
	}
	return e.Compact()
}

// Compact rewrites the log to contain exactly one record per live key,
// preserving key order, followed by a commit marker, then atomically
// replaces the original file.
func (e *Engine) Compact() error {
	original := e.log.Path()
	// The uuid suffix keeps a retried compaction (e.g. after a crash left a
	// stale .new file behind) from colliding with one still in flight.
	newPath := original + ".new." + uuid.NewString()

	newLog, err := walog.Open(newPath, e.cfg.logConfig())
	if err != nil {
		return err
	}

	for _, k := range e.sorted {
		if err := newLog.WriteEntry([]byte(k), e.values[k]); err != nil {
			newLog.Close()
			return err
		}
	}
	// Replay undoes every record not followed by a commit marker, so the
	// rewritten log must end with one for its contents to survive a reopen.
	if err := newLog.WriteEntry([]byte(walog.CommitMarkerKey), nil); err != nil {
		newLog.Close()
		return err
	}

	if err := newLog.RenameTo(original); err != nil {
		newLog.Close()
		return err
	}

	if err := e.log.Close(); err != nil {
		newLog.Close()
		return err
	}

	e.log = newLog
	e.activeDataSize = 0
	for _, k := range e.sorted {
		e.activeDataSize += int64(recordOverhead + len(k) + len(e.values[k]))
	}
	return nil
}

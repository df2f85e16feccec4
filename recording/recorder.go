// Package recording persists simulated cache accesses into a SQLite
// database for offline analysis. Recording is an observer on the
// replay; it never influences the simulation itself.
package recording

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/trace"
)

const batchSize = 100000

// accessEntry is one row of the accesses table.
type accessEntry struct {
	seq      uint64
	op       string
	addr     uint64
	size     uint64
	setIndex uint64
	tag      uint64
	way      int
	outcome  string
}

// Recorder writes one row per simulated cache-line access into a
// SQLite database, batching inserts into transactions. It implements
// trace.Observer.
type Recorder struct {
	db *sql.DB

	seq     uint64
	entries []accessEntry
	// err latches the first batch-flush failure; Close surfaces it.
	err error
}

// New creates a Recorder backed by the database file name+".sqlite3".
// With an empty name, a unique one is generated. The file must not
// already exist. A final flush is registered with atexit; it runs on
// processes that exit through atexit.Exit, as the csim command does,
// so buffered rows survive fatal paths that never reach Close.
func New(name string) (*Recorder, error) {
	if name == "" {
		name = "cachesim_accesses_" + xid.New().String()
	}
	filename := name + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording database: %w", err)
	}

	createTableSQL := `CREATE TABLE accesses (
	seq INTEGER,
	op TEXT,
	addr INTEGER,
	size INTEGER,
	set_index INTEGER,
	tag INTEGER,
	way INTEGER,
	outcome TEXT
);`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create accesses table: %w", err)
	}

	r := &Recorder{db: db}

	atexit.Register(func() { _ = r.Flush() })

	return r, nil
}

// Observe buffers one access row. Rows are flushed to the database in
// batches. The Observer interface has no error return, so a failed
// batch flush drops the batch, logs the failure, and latches the error
// for Close to surface.
func (r *Recorder) Observe(rec trace.Record, addr uint64, result cache.AccessResult) {
	r.entries = append(r.entries, accessEntry{
		seq:      r.seq,
		op:       rec.Op.String(),
		addr:     addr,
		size:     rec.Size,
		setIndex: result.SetIndex,
		tag:      result.Tag,
		way:      result.WayID,
		outcome:  outcome(result),
	})
	r.seq++

	if len(r.entries) >= batchSize {
		if err := r.Flush(); err != nil {
			logrus.Errorf("Failed to record access batch: %v", err)
			if r.err == nil {
				r.err = err
			}
			r.entries = nil
		}
	}
}

// Flush writes all buffered rows inside a single transaction.
func (r *Recorder) Flush() error {
	if len(r.entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin recording transaction: %w", err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO accesses VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.entries {
		_, err := stmt.Exec(
			int64(e.seq), e.op, int64(e.addr), int64(e.size),
			int64(e.setIndex), int64(e.tag), e.way, e.outcome)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert access row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recording transaction: %w", err)
	}

	r.entries = nil

	return nil
}

// Close flushes any buffered rows and closes the database. It reports
// the first batch flush that failed during Observe, if any.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}

	if err := r.db.Close(); err != nil {
		return err
	}

	return r.err
}

func outcome(result cache.AccessResult) string {
	switch {
	case result.Hit:
		return "hit"
	case result.Evicted:
		return "miss+eviction"
	default:
		return "miss"
	}
}

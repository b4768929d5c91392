package session

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

// Record describes one finished task.
type Record struct {
	Session  string
	Task     string
	Symbol   string
	Func     uint64
	Args     string
	Status   string
	Error    string
	Start    time.Time
	Duration time.Duration
}

// Recorder keeps a trace of executed tasks.
type Recorder interface {
	Record(Record) error
	Flush() error
	Close() error
}

type nopRecorder struct{}

func (nopRecorder) Record(Record) error { return nil }
func (nopRecorder) Flush() error        { return nil }
func (nopRecorder) Close() error        { return nil }

// SQLiteRecorder writes records into a SQLite database in batches.
type SQLiteRecorder struct {
	mu        sync.Mutex
	db        *sql.DB
	statement *sql.Stmt
	pending   []Record
	batchSize int
}

// NewSQLiteRecorder opens (or creates) the database at path.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	r := &SQLiteRecorder{db: db, batchSize: 1000}
	if err = r.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) createTable() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS exec_trace (
			session  TEXT NOT NULL,
			task     TEXT NOT NULL PRIMARY KEY,
			symbol   TEXT,
			func     INTEGER NOT NULL,
			args     TEXT,
			status   TEXT NOT NULL,
			error    TEXT,
			start    INTEGER NOT NULL,
			duration INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create exec_trace: %w", err)
	}
	r.statement, err = r.db.Prepare(`INSERT INTO exec_trace VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	return err
}

// Record buffers rec and flushes once a batch is full. A failed flush keeps
// the batch buffered.
func (r *SQLiteRecorder) Record(rec Record) error {
	r.mu.Lock()
	r.pending = append(r.pending, rec)
	full := len(r.pending) >= r.batchSize
	r.mu.Unlock()
	if full {
		return r.Flush()
	}
	return nil
}

// Flush writes all buffered records in one transaction.
func (r *SQLiteRecorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return nil
	}
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(r.statement)
	for _, rec := range r.pending {
		_, err = stmt.Exec(rec.Session, rec.Task, rec.Symbol, int64(rec.Func), rec.Args,
			rec.Status, rec.Error, rec.Start.UnixNano(), int64(rec.Duration))
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}

func (r *SQLiteRecorder) Close() error {
	err := r.Flush()
	r.statement.Close()
	if cerr := r.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// Records reads back every record of session ordered by start time.
func (r *SQLiteRecorder) Records(session string) ([]Record, error) {
	rows, err := r.db.Query(`SELECT session, task, symbol, func, args, status, error, start, duration
		FROM exec_trace WHERE session = ? ORDER BY start, rowid`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var rec Record
		var fn, start, duration int64
		err = rows.Scan(&rec.Session, &rec.Task, &rec.Symbol, &fn, &rec.Args, &rec.Status, &rec.Error, &start, &duration)
		if err != nil {
			return nil, err
		}
		rec.Func = uint64(fn)
		rec.Start = time.Unix(0, start)
		rec.Duration = time.Duration(duration)
		records = append(records, rec)
	}
	return records, rows.Err()
}

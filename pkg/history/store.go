package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hexwave/wifidash/internal/utils"
	"github.com/hexwave/wifidash/pkg/netevent"
)

// ErrNotFound is returned when no entry exists for the requested BSSID.
var ErrNotFound = errors.New("history: entry not found")

// DB is the durable network history store. All mutating operations run
// inside SQLite transactions, so concurrent readers in the same process
// always observe complete entries.
type DB struct {
	sql *sql.DB

	now func() time.Time // swapped out in tests
}

// Open opens (or creates) the history database. A corrupt or truncated
// file must not prevent startup: it is moved aside and the store starts
// empty, with the condition logged.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := open(path)
	if err != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, backup); renameErr != nil {
			return nil, fmt.Errorf("open history db %s: %w", path, err)
		}
		utils.Log.Warnf("History database was unreadable (%v); moved it to %s and starting from an empty store", err, backup)
		if db, err = open(path); err != nil {
			return nil, fmt.Errorf("reopen history db %s: %w", path, err)
		}
	}

	return &DB{sql: db, now: time.Now}, nil
}

func open(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ap_history (
  bssid            TEXT PRIMARY KEY,
  ssid             TEXT NOT NULL DEFAULT '',
  channel          INTEGER,
  rssi             INTEGER,
  whitelisted      INTEGER NOT NULL DEFAULT 0 CHECK (whitelisted IN (0,1)),
  first_seen_at    INTEGER NOT NULL,
  last_seen_at     INTEGER NOT NULL,
  capture_path     TEXT,
  cracked_password TEXT,
  cracked_at       INTEGER
);
CREATE INDEX IF NOT EXISTS idx_history_last_seen ON ap_history(last_seen_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	// A single connection serializes mutating transactions. With a pool,
	// two deferred transactions that both upgrade to a write collide with
	// SQLITE_BUSY (busy_timeout does not cover that upgrade), so
	// concurrent writers would fail instead of waiting their turn.
	db.SetMaxOpenConns(1)
	return db, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Upsert merges a normalized record into the store. Unknown BSSIDs get a
// new entry with first_seen_at = last_seen_at = now; known ones are
// merged last-write-wins per field, where an unset field never erases a
// previously stored value. Capture path, whitelist state and cracked
// results are owned by their own operations and left untouched.
func (d *DB) Upsert(ctx context.Context, rec netevent.Record) (Entry, error) {
	bssid := utils.NormalizeBSSID(rec.BSSID)
	if bssid == "" {
		return Entry{}, errors.New("history: record without bssid")
	}
	now := d.now().UTC().Truncate(time.Second)

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	entry, err := getTx(ctx, tx, bssid)
	switch {
	case errors.Is(err, ErrNotFound):
		err = nil
		entry = Entry{
			BSSID:       bssid,
			SSID:        rec.SSID,
			Channel:     rec.Channel,
			RSSI:        rec.RSSI,
			FirstSeenAt: now,
			LastSeenAt:  now,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ap_history(bssid, ssid, channel, rssi, first_seen_at, last_seen_at) VALUES(?,?,?,?,?,?)`,
			entry.BSSID, entry.SSID, nullInt(entry.Channel), nullInt(entry.RSSI),
			entry.FirstSeenAt.Unix(), entry.LastSeenAt.Unix())
		if err != nil {
			return Entry{}, err
		}
	case err != nil:
		return Entry{}, err
	default:
		if rec.SSID != "" {
			entry.SSID = rec.SSID
		}
		if rec.Channel != nil {
			entry.Channel = rec.Channel
		}
		if rec.RSSI != nil {
			entry.RSSI = rec.RSSI
		}
		if now.After(entry.LastSeenAt) {
			entry.LastSeenAt = now
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE ap_history SET ssid = ?, channel = ?, rssi = ?, last_seen_at = ? WHERE bssid = ?`,
			entry.SSID, nullInt(entry.Channel), nullInt(entry.RSSI), entry.LastSeenAt.Unix(), entry.BSSID)
		if err != nil {
			return Entry{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// RecordCapture remembers the handshake file for a BSSID, newest wins.
// It creates a minimal entry when the BSSID was never observed before (a
// capture can be the first thing we learn about a network). It does not
// touch any other field.
func (d *DB) RecordCapture(ctx context.Context, bssid, path string) error {
	bssid = utils.NormalizeBSSID(bssid)
	if bssid == "" || path == "" {
		return errors.New("history: capture needs bssid and path")
	}
	now := d.now().UTC().Truncate(time.Second)

	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO ap_history(bssid, capture_path, first_seen_at, last_seen_at) VALUES(?,?,?,?)
		 ON CONFLICT(bssid) DO UPDATE SET capture_path = excluded.capture_path`,
		bssid, path, now.Unix(), now.Unix())
	return err
}

// SetWhitelist toggles the whitelist flag without affecting any other
// field.
func (d *DB) SetWhitelist(ctx context.Context, bssid string, whitelisted bool) error {
	bssid = utils.NormalizeBSSID(bssid)
	res, err := d.sql.ExecContext(ctx,
		`UPDATE ap_history SET whitelisted = ? WHERE bssid = ?`, boolToInt(whitelisted), bssid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the entry for a BSSID, or ErrNotFound.
func (d *DB) Get(ctx context.Context, bssid string) (Entry, error) {
	row := d.sql.QueryRowContext(ctx, selectCols+` WHERE bssid = ?`, utils.NormalizeBSSID(bssid))
	return scanEntry(row)
}

// List returns all entries, most recently seen first.
func (d *DB) List(ctx context.Context) ([]Entry, error) {
	rows, err := d.sql.QueryContext(ctx, selectCols+` ORDER BY last_seen_at DESC, bssid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ApplyCracked merges externally-sourced cracked passwords into matching
// entries in a single transaction: either every matching entry is
// updated or none is. Matching is by BSSID first, with a display-name
// fallback for services that key results by ESSID only. A changed
// password replaces the old one and refreshes cracked_at; an unchanged
// one is left alone. Returns the number of entries updated.
func (d *DB) ApplyCracked(ctx context.Context, byBSSID, bySSID map[string]string) (int, error) {
	now := d.now().UTC().Truncate(time.Second)

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT bssid, ssid, COALESCE(cracked_password, '') FROM ap_history ORDER BY bssid`)
	if err != nil {
		return 0, err
	}

	type pending struct{ bssid, password string }
	var updates []pending
	for rows.Next() {
		var bssid, ssid, current string
		if err = rows.Scan(&bssid, &ssid, &current); err != nil {
			rows.Close()
			return 0, err
		}
		password, ok := byBSSID[bssid]
		if !ok && ssid != "" {
			password, ok = bySSID[ssid]
		}
		if !ok || password == "" || password == current {
			continue
		}
		updates = append(updates, pending{bssid: bssid, password: password})
	}
	if err = rows.Close(); err != nil {
		return 0, err
	}

	for _, u := range updates {
		if _, err = tx.ExecContext(ctx,
			`UPDATE ap_history SET cracked_password = ?, cracked_at = ? WHERE bssid = ?`,
			u.password, now.Unix(), u.bssid); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(updates), nil
}

// Reset drops every entry. Manual purge only; nothing in the pipeline
// calls this automatically.
func (d *DB) Reset(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM ap_history`)
	return err
}

const selectCols = `SELECT bssid, ssid, channel, rssi, whitelisted, first_seen_at, last_seen_at, capture_path, cracked_password, cracked_at FROM ap_history`

type rowScanner interface {
	Scan(dest ...any) error
}

func getTx(ctx context.Context, tx *sql.Tx, bssid string) (Entry, error) {
	row := tx.QueryRowContext(ctx, selectCols+` WHERE bssid = ?`, bssid)
	return scanEntry(row)
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e                    Entry
		channel, rssi        sql.NullInt64
		whitelisted          int
		firstSeen, lastSeen  int64
		capturePath, cracked sql.NullString
		crackedAt            sql.NullInt64
	)
	err := row.Scan(&e.BSSID, &e.SSID, &channel, &rssi, &whitelisted,
		&firstSeen, &lastSeen, &capturePath, &cracked, &crackedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}

	if channel.Valid {
		n := int(channel.Int64)
		e.Channel = &n
	}
	if rssi.Valid {
		n := int(rssi.Int64)
		e.RSSI = &n
	}
	e.Whitelisted = whitelisted == 1
	e.FirstSeenAt = time.Unix(firstSeen, 0).UTC()
	e.LastSeenAt = time.Unix(lastSeen, 0).UTC()
	e.CapturePath = capturePath.String
	e.CrackedPassword = cracked.String
	if crackedAt.Valid {
		t := time.Unix(crackedAt.Int64, 0).UTC()
		e.CrackedAt = &t
	}
	return e, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableElements = "matrix_elements"
	dbTimeout     = 3 * time.Second
)

// elementDB persists computed matrix elements keyed by operator and state
// pair, so that expensive element sets survive across processes.
type elementDB struct {
	path string
	db   *sql.DB
}

func newElementDB(dbPath string) (*elementDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}

	return &elementDB{path: dbPath, db: db}, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		method INTEGER, kappa INTEGER,
		species1 TEXT, n1 INTEGER, l1 INTEGER, j1 INTEGER, m1 INTEGER,
		species2 TEXT, n2 INTEGER, l2 INTEGER, j2 INTEGER, m2 INTEGER,
		value REAL,
		PRIMARY KEY (method, kappa, species1, n1, l1, j1, m1, species2, n2, l2, j2, m2)) STRICT`,
		tableElements)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (d *elementDB) Close() error {
	return d.db.Close()
}

func (d *elementDB) get(k elemKey) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT value FROM %s
		WHERE method=? AND kappa=?
		AND species1=? AND n1=? AND l1=? AND j1=? AND m1=?
		AND species2=? AND n2=? AND l2=? AND j2=? AND m2=?`, tableElements)
	var v float64
	err := d.db.QueryRowContext(ctx, sqlStr,
		k.method, k.kappa,
		k.row.species, k.row.n, k.row.l, k.row.j2, k.row.m2,
		k.col.species, k.col.n, k.col.l, k.col.j2, k.col.m2).Scan(&v)
	switch {
	case err == sql.ErrNoRows:
		return 0, false, nil
	case err != nil:
		return 0, false, errors.Wrap(err, "")
	default:
		return v, true, nil
	}
}

func (d *elementDB) put(k elemKey, v float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s
		(method, kappa, species1, n1, l1, j1, m1, species2, n2, l2, j2, m2, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, tableElements)
	args := []any{
		k.method, k.kappa,
		k.row.species, k.row.n, k.row.l, k.row.j2, k.row.m2,
		k.col.species, k.col.n, k.col.l, k.col.j2, k.col.m2,
		v,
	}
	if _, err := d.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
	}
	return nil
}

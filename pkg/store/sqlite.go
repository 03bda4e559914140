package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/matzehuels/catgraph/pkg/cache"
	"github.com/matzehuels/catgraph/pkg/category"
	cgerrors "github.com/matzehuels/catgraph/pkg/errors"
	"github.com/matzehuels/catgraph/pkg/hierarchy"
	"github.com/matzehuels/catgraph/pkg/simgraph"
)

const driverSQLite = "sqlite"

// SQLiteStore is the default Store, backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// schema. It enables WAL mode for concurrent readers.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// foreign keys and busy timeout are per connection, so they go in the DSN
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, cgerrors.Wrap(cgerrors.ErrCodeStoreUnavailable, err, "open %s", path)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		parent_id INTEGER REFERENCES categories(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_categories_parent ON categories(parent_id);

	-- one row per unordered pair, smaller id first
	CREATE TABLE IF NOT EXISTS similarities (
		low INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		high INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		PRIMARY KEY (low, high),
		CHECK (low < high)
	) WITHOUT ROWID;

	CREATE INDEX IF NOT EXISTS idx_similarities_high ON similarities(high);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// run executes fn with retries on a busy database and reports the
// operation to the store hooks.
func (s *SQLiteStore) run(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := cache.RetryWithBackoff(ctx, func() error {
		return classify(fn())
	})
	observe(ctx, driverSQLite, op, start, err)
	return err
}

// tx runs fn in a transaction through run.
func (s *SQLiteStore) tx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return s.run(ctx, op, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrUnavailable, err))
	}
	return err
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == code
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q querier, id category.ID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

type scanner interface {
	Scan(dest ...any) error
}

const nodeColumns = "id, name, description, image, parent_id"

func scanNode(row scanner) (category.Node, error) {
	var (
		n      category.Node
		parent sql.NullInt64
	)
	if err := row.Scan(&n.ID, &n.Name, &n.Description, &n.Image, &parent); err != nil {
		return category.Node{}, err
	}
	if parent.Valid {
		n.ParentID = category.Ptr(parent.Int64)
	}
	return n, nil
}

func nullable(id *category.ID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// ListNodes returns every category ordered by id.
func (s *SQLiteStore) ListNodes(ctx context.Context) ([]category.Node, error) {
	var nodes []category.Node
	err := s.run(ctx, "list_nodes", func() error {
		nodes = nodes[:0]
		rows, err := s.db.QueryContext(ctx, "SELECT "+nodeColumns+" FROM categories ORDER BY id")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			n, err := scanNode(rows)
			if err != nil {
				return err
			}
			nodes = append(nodes, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unavailable(err, "list categories")
	}
	return nodes, nil
}

// ListPairs returns every stored link as (low, high).
func (s *SQLiteStore) ListPairs(ctx context.Context) ([]category.Pair, error) {
	var pairs []category.Pair
	err := s.run(ctx, "list_pairs", func() error {
		pairs = pairs[:0]
		rows, err := s.db.QueryContext(ctx, "SELECT low, high FROM similarities ORDER BY low, high")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p category.Pair
			if err := rows.Scan(&p.From, &p.To); err != nil {
				return err
			}
			pairs = append(pairs, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unavailable(err, "list similarities")
	}
	return pairs, nil
}

// Create inserts a category.
func (s *SQLiteStore) Create(ctx context.Context, c NewCategory) (category.Node, error) {
	if err := validateNew(c); err != nil {
		return category.Node{}, err
	}
	var id category.ID
	err := s.tx(ctx, "create", func(tx *sql.Tx) error {
		if c.ParentID != nil {
			ok, err := exists(ctx, tx, *c.ParentID)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(*c.ParentID)
			}
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO categories (name, description, image, parent_id) VALUES (?, ?, ?, ?)",
			c.Name, c.Description, c.Image, nullable(c.ParentID))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return category.Node{}, unavailable(err, "create category")
	}
	return category.Node{ID: id, Name: c.Name, Description: c.Description, Image: c.Image, ParentID: c.ParentID}, nil
}

// CreateMany inserts a batch of categories in one transaction.
func (s *SQLiteStore) CreateMany(ctx context.Context, cs []NewCategory) ([]category.ID, error) {
	for _, c := range cs {
		if err := validateNew(c); err != nil {
			return nil, err
		}
	}
	ids := make([]category.ID, len(cs))
	err := s.tx(ctx, "create_many", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO categories (name, description, image, parent_id) VALUES (?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range cs {
			parent, err := batchParent(c.ParentID, ids, i)
			if err != nil {
				return err
			}
			res, err := stmt.ExecContext(ctx, c.Name, c.Description, c.Image, nullable(parent))
			if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
				return notFound(*parent)
			}
			if err != nil {
				return err
			}
			if ids[i], err = res.LastInsertId(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err, "create categories")
	}
	return ids, nil
}

// batchParent resolves a negated batch position to an assigned id.
func batchParent(parent *category.ID, assigned []category.ID, i int) (*category.ID, error) {
	if parent == nil || *parent > 0 {
		return parent, nil
	}
	pos := int(-*parent) - 1
	if pos < 0 || pos >= i {
		return nil, cgerrors.New(cgerrors.ErrCodeInvalidInput, "entry %d refers to batch entry %d which is not before it", i, pos)
	}
	return category.Ptr(assigned[pos]), nil
}

// InsertNodes inserts categories with explicit ids.
func (s *SQLiteStore) InsertNodes(ctx context.Context, nodes []category.Node) error {
	for _, n := range nodes {
		if err := cgerrors.ValidateID(n.ID); err != nil {
			return err
		}
		if err := validateNew(NewCategory{Name: n.Name, Image: n.Image}); err != nil {
			return err
		}
	}
	err := s.tx(ctx, "insert_nodes", func(tx *sql.Tx) error {
		known := make(map[category.ID]bool, len(nodes))
		for _, n := range nodes {
			known[n.ID] = true
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO categories (id, name, description, image, parent_id) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()

		// parents may come later in the batch
		if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
			return err
		}
		for _, n := range nodes {
			parent := n.ParentID
			if parent != nil && !known[*parent] {
				ok, err := exists(ctx, tx, *parent)
				if err != nil {
					return err
				}
				if !ok {
					parent = nil
				}
			}
			_, err := stmt.ExecContext(ctx, n.ID, n.Name, n.Description, n.Image, nullable(parent))
			if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) {
				return cgerrors.New(cgerrors.ErrCodeInvalidInput, "category %d already exists", n.ID)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return unavailableOrNil(err, "insert categories")
}

func unavailableOrNil(err error, op string) error {
	if err == nil {
		return nil
	}
	return unavailable(err, op)
}

// Get returns one category with its similar count.
func (s *SQLiteStore) Get(ctx context.Context, id category.ID) (Detail, error) {
	var d Detail
	err := s.run(ctx, "get", func() error {
		n, err := scanNode(s.db.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM categories WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(id)
		}
		if err != nil {
			return err
		}
		d.Node = n
		return s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM similarities WHERE low = ? OR high = ?", id, id).Scan(&d.SimilarCount)
	})
	if err != nil {
		return Detail{}, unavailable(err, "get category")
	}
	return d, nil
}

// List returns one page of categories ordered by id.
func (s *SQLiteStore) List(ctx context.Context, page, pageSize int) (Page, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if err := cgerrors.ValidatePage(page, pageSize); err != nil {
		return Page{}, err
	}
	p := Page{Items: []category.Node{}, Page: page, PageSize: pageSize}
	err := s.run(ctx, "list", func() error {
		p.Items = p.Items[:0]
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&p.Total); err != nil {
			return err
		}
		rows, err := s.db.QueryContext(ctx,
			"SELECT "+nodeColumns+" FROM categories ORDER BY id LIMIT ? OFFSET ?",
			pageSize, (page-1)*pageSize)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			n, err := scanNode(rows)
			if err != nil {
				return err
			}
			p.Items = append(p.Items, n)
		}
		return rows.Err()
	})
	if err != nil {
		return Page{}, unavailable(err, "list categories")
	}
	return p, nil
}

// Move reparents a category after checking the move keeps the forest acyclic.
func (s *SQLiteStore) Move(ctx context.Context, id category.ID, parent *category.ID) (category.Node, error) {
	var n category.Node
	err := s.tx(ctx, "move", func(tx *sql.Tx) error {
		cur, err := scanNode(tx.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM categories WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(id)
		}
		if err != nil {
			return err
		}

		if parent != nil {
			ok, err := exists(ctx, tx, *parent)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(*parent)
			}
			var walkErr error
			parentOf := func(c category.ID) (category.ID, bool) {
				var p sql.NullInt64
				if err := tx.QueryRowContext(ctx, "SELECT parent_id FROM categories WHERE id = ?", c).Scan(&p); err != nil {
					if !errors.Is(err, sql.ErrNoRows) {
						walkErr = err
					}
					return 0, false
				}
				return p.Int64, p.Valid
			}
			cycle := hierarchy.WouldCycle(parentOf, id, *parent)
			if walkErr != nil {
				return walkErr
			}
			if cycle {
				return cgerrors.New(cgerrors.ErrCodeCycle, "category %d cannot move under its own descendant %d", id, *parent)
			}
		}

		if _, err := tx.ExecContext(ctx, "UPDATE categories SET parent_id = ? WHERE id = ?", nullable(parent), id); err != nil {
			return err
		}
		cur.ParentID = parent
		n = cur
		return nil
	})
	if err != nil {
		return category.Node{}, unavailable(err, "move category")
	}
	return n, nil
}

// Delete removes a category. Children become roots and links are dropped.
func (s *SQLiteStore) Delete(ctx context.Context, id category.ID) error {
	err := s.run(ctx, "delete", func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return notFound(id)
		}
		return nil
	})
	return unavailableOrNil(err, "delete category")
}

// Link stores the canonical pair for a~b.
func (s *SQLiteStore) Link(ctx context.Context, a, b category.ID) (bool, error) {
	if err := cgerrors.ValidateLink(a, b); err != nil {
		return false, err
	}
	e, _ := simgraph.Canonical(a, b)
	var created bool
	err := s.tx(ctx, "link", func(tx *sql.Tx) error {
		for _, id := range []category.ID{e.Low, e.High} {
			ok, err := exists(ctx, tx, id)
			if err != nil {
				return err
			}
			if !ok {
				return notFound(id)
			}
		}
		res, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO similarities (low, high) VALUES (?, ?)", e.Low, e.High)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		created = n == 1
		return err
	})
	if err != nil {
		return false, unavailable(err, "link categories")
	}
	return created, nil
}

// Unlink removes the canonical pair for a~b.
func (s *SQLiteStore) Unlink(ctx context.Context, a, b category.ID) (bool, error) {
	if err := cgerrors.ValidateLink(a, b); err != nil {
		return false, err
	}
	e, _ := simgraph.Canonical(a, b)
	var removed bool
	err := s.run(ctx, "unlink", func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM similarities WHERE low = ? AND high = ?", e.Low, e.High)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		removed = n == 1
		return err
	})
	if err != nil {
		return false, unavailable(err, "unlink categories")
	}
	return removed, nil
}

// AddSimilarities canonicalizes and deduplicates pairs in memory, then
// inserts them in one transaction. Pairs naming an unknown category are
// skipped. Re-submitting a batch inserts nothing.
func (s *SQLiteStore) AddSimilarities(ctx context.Context, pairs []category.Pair) (int, error) {
	edges := simgraph.Normalize(pairs)
	if len(edges) == 0 {
		return 0, nil
	}
	var inserted int
	err := s.tx(ctx, "add_similarities", func(tx *sql.Tx) error {
		inserted = 0
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO similarities (low, high)
			SELECT ?, ?
			WHERE EXISTS (SELECT 1 FROM categories WHERE id = ?)
			  AND EXISTS (SELECT 1 FROM categories WHERE id = ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range edges {
			res, err := stmt.ExecContext(ctx, e.Low, e.High, e.Low, e.High)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, unavailable(err, "add similarities")
	}
	return inserted, nil
}

// Similar returns the ids linked to id.
func (s *SQLiteStore) Similar(ctx context.Context, id category.ID) ([]category.ID, error) {
	ids := []category.ID{}
	err := s.run(ctx, "similar", func() error {
		ids = ids[:0]
		ok, err := exists(ctx, s.db, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(id)
		}
		rows, err := s.db.QueryContext(ctx, `
			SELECT high FROM similarities WHERE low = ?
			UNION
			SELECT low FROM similarities WHERE high = ?
			ORDER BY 1`, id, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var other category.ID
			if err := rows.Scan(&other); err != nil {
				return err
			}
			ids = append(ids, other)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unavailable(err, "list similar categories")
	}
	return ids, nil
}

// Clear deletes everything and restarts id assignment at 1.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := s.tx(ctx, "clear", func(tx *sql.Tx) error {
		for _, q := range []string{
			"DELETE FROM similarities",
			"DELETE FROM categories",
			"DELETE FROM sqlite_sequence WHERE name = 'categories'",
		} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	return unavailableOrNil(err, "clear store")
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

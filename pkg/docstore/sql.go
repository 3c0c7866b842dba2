package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// documentRow is the single table behind the SQL backend. Bodies hold
// canonical extended JSON so that dates and numbers keep their bson types.
// Version increases on every rewrite; updates are conditional on it.
type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:64"`
	Body       string `gorm:"type:text;not null"`
	Version    int64  `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// documentKey claims one value of a unique field. The primary key makes the
// database reject a second claim, so uniqueness holds across connections.
type documentKey struct {
	Collection string `gorm:"primaryKey;size:64"`
	Field      string `gorm:"primaryKey;size:64"`
	Value      string `gorm:"primaryKey;size:255"`
	DocID      string `gorm:"size:64;not null;index"`
}

func (documentKey) TableName() string { return "document_keys" }

// errStale marks a rewrite that lost to a concurrent writer.
var errStale = errors.New("docstore: document changed concurrently")

// maxWriteAttempts bounds how often a stale rewrite is re-read and retried.
const maxWriteAttempts = 5

func (documentRow) TableName() string { return "documents" }

// SQL is a Store on top of any gorm dialect. Queries are evaluated in
// process after loading a collection, which suits the modest collections of
// a single-tenant deployment; writes run in transactions.
type SQL struct {
	db *gorm.DB

	mu     sync.RWMutex
	unique map[string][]string
}

// OpenSQL opens driver (sqlite, postgres, mysql, sqlserver) at dsn and
// migrates the documents table.
func OpenSQL(driver, dsn string) (*SQL, error) {
	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("docstore: build dialector: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("docstore: get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(2 * time.Minute)
	if driver == "sqlite" {
		// sqlite allows one writer; serialise through a single connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&documentRow{}, &documentKey{}); err != nil {
		return nil, fmt.Errorf("docstore: migrate: %w", err)
	}
	return &SQL{db: db, unique: make(map[string][]string)}, nil
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql, sqlserver)", driver)
	}
}

func (s *SQL) Collection(name string) Collection {
	return &sqlCollection{store: s, name: name}
}

// EnsureIndex records unique fields and claims the values already stored.
// Bodies have no per-field columns, so each value is held as a row in
// document_keys.
func (s *SQL) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if !unique {
		return nil
	}
	s.mu.Lock()
	for _, f := range s.unique[collection] {
		if f == field {
			s.mu.Unlock()
			return nil
		}
	}
	s.unique[collection] = append(s.unique[collection], field)
	s.mu.Unlock()

	c := &sqlCollection{store: s, name: collection}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docs, _, err := c.load(tx)
		if err != nil {
			return err
		}
		for _, d := range docs {
			v, ok := keyValue(d, field)
			if !ok {
				continue
			}
			key := documentKey{Collection: collection, Field: field, Value: v, DocID: d[IDField].(string)}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&key).Error; err != nil {
				return fmt.Errorf("docstore: claim %s.%s: %w", collection, field, err)
			}
		}
		return nil
	})
}

func (s *SQL) uniqueFields(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unique[collection]
}

func (s *SQL) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQL) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqlCollection struct {
	store *SQL
	name  string
}

func encodeBody(d bson.M) (string, error) {
	b, err := bson.MarshalExtJSON(d, true, false)
	if err != nil {
		return "", fmt.Errorf("docstore: encode body: %w", err)
	}
	return string(b), nil
}

func decodeBody(body string) (bson.M, error) {
	var d bson.M
	if err := bson.UnmarshalExtJSON([]byte(body), true, &d); err != nil {
		return nil, fmt.Errorf("docstore: decode body: %w", err)
	}
	return d, nil
}

// load returns the collection's documents in insertion order, keyed by id.
func (c *sqlCollection) load(tx *gorm.DB) ([]bson.M, map[string]bson.M, error) {
	var rows []documentRow
	if err := tx.Where("collection = ?", c.name).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("docstore: load %s: %w", c.name, err)
	}
	docs := make([]bson.M, 0, len(rows))
	byID := make(map[string]bson.M, len(rows))
	for _, r := range rows {
		d, err := decodeBody(r.Body)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, d)
		byID[r.ID] = d
	}
	return docs, byID, nil
}

// keyValue returns the claim value of a unique field, if d sets it.
func keyValue(d bson.M, field string) (string, bool) {
	v, ok := d[field]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(normalize(v)), true
}

// claim moves the unique-field claims of id from prev to next. prev is nil
// for a new document.
func (c *sqlCollection) claim(tx *gorm.DB, id string, prev, next bson.M) error {
	for _, field := range c.store.uniqueFields(c.name) {
		old, hadOld := keyValue(prev, field)
		cur, hasCur := keyValue(next, field)
		if hadOld == hasCur && old == cur {
			continue
		}
		if hadOld {
			err := tx.Where("collection = ? AND field = ? AND value = ? AND doc_id = ?", c.name, field, old, id).
				Delete(&documentKey{}).Error
			if err != nil {
				return fmt.Errorf("docstore: release %s.%s: %w", c.name, field, err)
			}
		}
		if hasCur {
			key := documentKey{Collection: c.name, Field: field, Value: cur, DocID: id}
			if err := tx.Create(&key).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicate
				}
				return fmt.Errorf("docstore: claim %s.%s: %w", c.name, field, err)
			}
		}
	}
	return nil
}

// insert creates id with body d.
func (c *sqlCollection) insert(tx *gorm.DB, id string, d bson.M) error {
	if err := c.claim(tx, id, nil, d); err != nil {
		return err
	}
	body, err := encodeBody(d)
	if err != nil {
		return err
	}
	row := documentRow{Collection: c.name, ID: id, Body: body, Version: 1}
	if err := tx.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("docstore: insert: %w", err)
	}
	return nil
}

// rewrite replaces the body of row with d, provided nobody rewrote it since
// row was read. A concurrent rewrite yields errStale.
func (c *sqlCollection) rewrite(tx *gorm.DB, row documentRow, prev, d bson.M) error {
	if err := c.claim(tx, row.ID, prev, d); err != nil {
		return err
	}
	body, err := encodeBody(d)
	if err != nil {
		return err
	}
	res := tx.Model(&documentRow{}).
		Where("collection = ? AND id = ? AND version = ?", c.name, row.ID, row.Version).
		Updates(map[string]any{
			"body":       body,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("docstore: save: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errStale
	}
	return nil
}

// retryStale runs fn in a fresh transaction until it does not lose a race
// with a concurrent writer. Each attempt re-reads, so preconditions are
// evaluated against the row it finally overwrites.
func (c *sqlCollection) retryStale(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		err = c.store.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, errStale) {
			return err
		}
	}
	return err
}

func (c *sqlCollection) Add(ctx context.Context, doc any) (string, error) {
	d, err := toDoc(doc)
	if err != nil {
		return "", err
	}
	id := ensureID(d)
	err = c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return c.insert(tx, id, d)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *sqlCollection) Set(ctx context.Context, id string, doc any) error {
	d, err := toDoc(doc)
	if err != nil {
		return err
	}
	d[IDField] = id
	return c.retryStale(ctx, func(tx *gorm.DB) error {
		row, prev, err := c.read(tx, id)
		if errors.Is(err, ErrNotFound) {
			return c.insert(tx, id, d)
		}
		if err != nil {
			return err
		}
		return c.rewrite(tx, row, prev, d)
	})
}

func (c *sqlCollection) read(tx *gorm.DB, id string) (documentRow, bson.M, error) {
	var row documentRow
	err := tx.Where("collection = ? AND id = ?", c.name, id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, nil, ErrNotFound
	}
	if err != nil {
		return row, nil, fmt.Errorf("docstore: read: %w", err)
	}
	d, err := decodeBody(row.Body)
	return row, d, err
}

func (c *sqlCollection) Get(ctx context.Context, id string, dest any) error {
	_, d, err := c.read(c.store.db.WithContext(ctx), id)
	if err != nil {
		return err
	}
	return decodeOne(d, dest)
}

func (c *sqlCollection) Update(ctx context.Context, id string, fields map[string]any, preconditions ...Filter) error {
	err := c.retryStale(ctx, func(tx *gorm.DB) error {
		row, d, err := c.read(tx, id)
		if err != nil {
			return err
		}
		if !matches(d, preconditions) {
			return ErrPrecondition
		}
		merged, err := mergeFields(d, fields)
		if err != nil {
			return err
		}
		return c.rewrite(tx, row, d, merged)
	})
	if errors.Is(err, errStale) {
		// Still contended after every attempt; the caller sees the same
		// outcome as a failed precondition.
		return ErrPrecondition
	}
	return err
}

func (c *sqlCollection) Delete(ctx context.Context, id string) error {
	return c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.remove(tx, []string{id}); err != nil {
			return fmt.Errorf("docstore: delete: %w", err)
		}
		return nil
	})
}

// remove deletes ids and releases their unique-field claims.
func (c *sqlCollection) remove(tx *gorm.DB, ids []string) error {
	if err := tx.Where("collection = ? AND id IN ?", c.name, ids).Delete(&documentRow{}).Error; err != nil {
		return err
	}
	return tx.Where("collection = ? AND doc_id IN ?", c.name, ids).Delete(&documentKey{}).Error
}

func (c *sqlCollection) Find(ctx context.Context, q Query, dest any) error {
	docs, _, err := c.load(c.store.db.WithContext(ctx))
	if err != nil {
		return err
	}
	return decodeAll(selectDocs(docs, q), dest)
}

func (c *sqlCollection) IDs(ctx context.Context, filters ...Filter) ([]string, error) {
	docs, _, err := c.load(c.store.db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	selected := selectDocs(docs, Query{Filters: filters})
	ids := make([]string, 0, len(selected))
	for _, d := range selected {
		ids = append(ids, d[IDField].(string))
	}
	return ids, nil
}

func (c *sqlCollection) BatchDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.remove(tx, ids); err != nil {
			return fmt.Errorf("docstore: batch delete: %w", err)
		}
		return nil
	})
}

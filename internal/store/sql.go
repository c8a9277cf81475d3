package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// document is one row of the documents table.
type document struct {
	ID        string `gorm:"primaryKey;size:191"`
	Version   int64  `gorm:"not null"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (document) TableName() string { return "documents" }

// documentIndex is one indexed field of a document.
type documentIndex struct {
	DocID string `gorm:"primaryKey;size:191"`
	Field string `gorm:"primaryKey;size:64;index:idx_document_indexes_field_value,priority:1"`
	Value int64  `gorm:"not null;index:idx_document_indexes_field_value,priority:2"`
}

func (documentIndex) TableName() string { return "document_indexes" }

// SQL is a Store backed by a relational database through gorm.
// Subscriptions are served from the committing process.
type SQL struct {
	db     *gorm.DB
	hub    hub
	logger *log.Logger
}

var _ Store = (*SQL)(nil)

// Dialector returns the gorm dialector for a driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return sqlite.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", driver)
}

// OpenSQL connects to the database and migrates the document tables.
func OpenSQL(driver, dsn string, logger *log.Logger) (*SQL, error) {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	logger = logger.WithPrefix("store")
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" || driver == "sqlite3" {
		// One connection: an in-memory database exists per connection and
		// SQLite has a single writer anyway.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&document{}, &documentIndex{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("Connected", "driver", driver)
	return &SQL{db: db, logger: logger}, nil
}

// Get implements Store.
func (s *SQL) Get(ctx context.Context, id string) (*Doc, error) {
	return getDoc(s.db.WithContext(ctx), id)
}

func getDoc(db *gorm.DB, id string) (*Doc, error) {
	var row document
	if err := db.Where("id = ?", id).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	var idx []documentIndex
	if err := db.Where("doc_id = ?", id).Find(&idx).Error; err != nil {
		return nil, err
	}
	return toDoc(row, idx), nil
}

func toDoc(row document, idx []documentIndex) *Doc {
	d := &Doc{ID: row.ID, Version: row.Version, Data: row.Data}
	if len(idx) > 0 {
		d.Index = make(map[string]int64, len(idx))
		for _, i := range idx {
			d.Index[i.Field] = i.Value
		}
	}
	return d
}

type sqlTx struct {
	ctx context.Context
	db  *gorm.DB
	*stage
}

func (tx *sqlTx) Get(id string) (*Doc, error) {
	if d, ok, err := tx.staged(id); ok {
		return d, err
	}
	d, err := getDoc(tx.db.WithContext(tx.ctx), id)
	switch {
	case err == nil:
		if v, seen := tx.reads[id]; seen && v != d.Version {
			return nil, fmt.Errorf("%w: %s", ErrConflict, id)
		}
		tx.reads[id] = d.Version
	case errors.Is(err, ErrNotFound):
		if _, seen := tx.reads[id]; !seen {
			tx.reads[id] = 0
		}
	}
	return d, err
}

func (tx *sqlTx) Set(id string, v any, index map[string]int64) error {
	return tx.set(id, v, index)
}

func (tx *sqlTx) Delete(id string) {
	tx.put(id, &write{deleted: true})
}

// RunTransaction implements Store. Reads happen outside the database
// transaction; the commit re-checks every version read and applies the
// writes with conditional updates.
func (s *SQL) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	tx := &sqlTx{ctx: ctx, db: s.db, stage: newStage()}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.writes) == 0 {
		return nil
	}

	var committed []*Doc
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		committed = committed[:0]
		if err := checkReads(db, tx); err != nil {
			return err
		}
		now := time.Now()
		for _, id := range tx.order {
			d, err := applyWrite(db, tx, id, now)
			if err != nil {
				return err
			}
			if d != nil {
				committed = append(committed, d)
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			s.logger.Error("Commit failed", "error", err)
		}
		return err
	}
	s.hub.publish(committed)
	return nil
}

// checkReads fails with ErrConflict if a document read but not written has
// changed. Written documents are checked by their conditional update.
func checkReads(db *gorm.DB, tx *sqlTx) error {
	var ids []string
	for id := range tx.reads {
		if _, written := tx.writes[id]; !written {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	var rows []document
	if err := db.Select("id", "version").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return err
	}
	current := make(map[string]int64, len(rows))
	for _, r := range rows {
		current[r.ID] = r.Version
	}
	for _, id := range ids {
		if current[id] != tx.reads[id] {
			return fmt.Errorf("%w: %s", ErrConflict, id)
		}
	}
	return nil
}

func applyWrite(db *gorm.DB, tx *sqlTx, id string, now time.Time) (*Doc, error) {
	w := tx.writes[id]
	expected, read := tx.reads[id]
	if !read {
		// Blind write: take whatever is there now.
		var row document
		switch err := db.Select("version").Where("id = ?", id).Take(&row).Error; {
		case err == nil:
			expected = row.Version
		case errors.Is(err, gorm.ErrRecordNotFound):
			expected = 0
		default:
			return nil, err
		}
	}
	conflict := fmt.Errorf("%w: %s", ErrConflict, id)

	if w.deleted {
		if expected == 0 {
			return nil, nil
		}
		res := db.Where("id = ? AND version = ?", id, expected).Delete(&document{})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, conflict
		}
		if err := db.Where("doc_id = ?", id).Delete(&documentIndex{}).Error; err != nil {
			return nil, err
		}
		return &Doc{ID: id, Version: expected + 1, Deleted: true}, nil
	}

	if expected == 0 {
		res := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&document{ID: id, Version: 1, Data: w.data, UpdatedAt: now})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, conflict
		}
	} else {
		res := db.Model(&document{}).
			Where("id = ? AND version = ?", id, expected).
			Updates(map[string]any{"data": []byte(w.data), "version": expected + 1, "updated_at": now})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, conflict
		}
	}

	if err := db.Where("doc_id = ?", id).Delete(&documentIndex{}).Error; err != nil {
		return nil, err
	}
	if len(w.index) > 0 {
		rows := make([]documentIndex, 0, len(w.index))
		for field, v := range w.index {
			rows = append(rows, documentIndex{DocID: id, Field: field, Value: v})
		}
		if err := db.Create(&rows).Error; err != nil {
			return nil, err
		}
	}
	return &Doc{ID: id, Version: expected + 1, Data: w.data, Index: maps.Clone(w.index)}, nil
}

// Subscribe implements Store.
func (s *SQL) Subscribe(id string) *Subscription {
	return s.hub.subscribe(id)
}

// QueryLess implements Store.
func (s *SQL) QueryLess(ctx context.Context, prefix, field string, below int64, limit int) ([]*Doc, error) {
	q := s.db.WithContext(ctx).
		Model(&documentIndex{}).
		Where("field = ? AND value < ? AND doc_id LIKE ? ESCAPE '!'", field, below, likePrefix(prefix)).
		Order("value").Order("doc_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var hits []documentIndex
	if err := q.Find(&hits).Error; err != nil {
		return nil, err
	}
	out := make([]*Doc, 0, len(hits))
	for _, h := range hits {
		d, err := getDoc(s.db.WithContext(ctx), h.DocID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePrefix matches ids starting with prefix under LIKE ... ESCAPE '!'.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

// Close ends subscriptions and closes the connection pool.
func (s *SQL) Close() error {
	s.hub.closeAll()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormLogger routes gorm's logging through charmbracelet/log.
type gormLogger struct {
	logger *log.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

func newGormLogger(logger *log.Logger) *gormLogger {
	return &gormLogger{logger: logger.WithPrefix("sql"), level: gormlogger.Warn, slow: time.Second}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.logger.Error("Query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.Warn("Slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.Debug("Query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

package history

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vivaneiona/tabextract"
)

type runModel struct {
	ID         string       `gorm:"primaryKey;size:36"`
	SessionID  string       `gorm:"size:36;index"`
	Template   string       `gorm:"type:text"`
	StartedAt  time.Time    `gorm:"index"`
	FinishedAt time.Time
	Entries    []entryModel `gorm:"foreignKey:RunID"`
}

func (runModel) TableName() string { return "runs" }

type entryModel struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"size:36;index"`
	Idx     int
	Entity  string `gorm:"type:text"`
	Kind    string `gorm:"size:16"`
	Payload string `gorm:"type:text"`
}

func (entryModel) TableName() string { return "run_entries" }

func toModel(r Run) runModel {
	m := runModel{
		ID:         r.ID,
		SessionID:  r.SessionID,
		Template:   r.Template,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Entries:    make([]entryModel, len(r.Entries)),
	}
	for i, e := range r.Entries {
		m.Entries[i] = entryModel{RunID: r.ID, Idx: e.Index, Entity: e.Entity, Kind: string(e.Kind), Payload: e.Payload}
	}
	return m
}

func fromModel(m runModel) Run {
	r := Run{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Template:   m.Template,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Entries:    make([]Entry, len(m.Entries)),
	}
	for i, e := range m.Entries {
		r.Entries[i] = Entry{Index: e.Idx, Entity: e.Entity, Kind: tabextract.Kind(e.Kind), Payload: e.Payload}
	}
	return r
}

// GormStore keeps runs in a SQL database through gorm.
type GormStore struct {
	db *gorm.DB
}

// OpenMySQL connects to MySQL (or TiDB) with a go-sql-driver DSN.
func OpenMySQL(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	zap.S().Debug("mysql history opened")
	return NewGormStore(db), nil
}

// NewGormStore wraps an open gorm handle.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) Init(ctx context.Context) error {
	return errors.Wrap(s.db.WithContext(ctx).AutoMigrate(&runModel{}, &entryModel{}), "migrate history tables")
}

func (s *GormStore) SaveRun(ctx context.Context, run Run) error {
	m := toModel(run)
	return errors.Wrapf(s.db.WithContext(ctx).Create(&m).Error, "save run %s", run.ID)
}

func (s *GormStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := s.db.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("idx") }).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []runModel
	if err := q.Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	out := make([]Run, len(models))
	for i, m := range models {
		out[i] = fromModel(m)
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"visionchat/pkg/domain"
)

// GormStore persists the session as a single Postgres row via GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&SessionModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Load reads the singleton row. A missing row is a fresh empty session.
func (g *GormStore) Load(ctx context.Context) (domain.Session, error) {
	var row SessionModel
	err := g.db.WithContext(ctx).First(&row, "id = ?", recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewSession(), nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read session: %w", err)
	}
	sess := domain.Session{
		Messages:          []domain.Message{},
		LastExtractedData: row.LastExtractedData,
		LastImageID:       row.LastImageID,
	}
	if len(row.Messages) > 0 {
		if err := json.Unmarshal(row.Messages, &sess.Messages); err != nil {
			return domain.Session{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
	}
	if sess.Messages == nil {
		sess.Messages = []domain.Message{}
	}
	return sess, nil
}

// Save upserts the singleton row with the whole record.
func (g *GormStore) Save(ctx context.Context, sess domain.Session) error {
	messages, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	row := SessionModel{
		ID:                recordID,
		Messages:          messages,
		LastExtractedData: sess.LastExtractedData,
		LastImageID:       sess.LastImageID,
		UpdatedAt:         time.Now().UTC(),
	}
	err = g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Reset overwrites the row with an empty session.
func (g *GormStore) Reset(ctx context.Context) error {
	return g.Save(ctx, domain.NewSession())
}

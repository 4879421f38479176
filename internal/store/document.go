package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pepeboard/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// boardDocument is the single row holding a serialized board.
type boardDocument struct {
	Name      string    `gorm:"primaryKey;size:191"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (boardDocument) TableName() string { return "board_documents" }

// DocumentStore keeps the document in one row of a SQL table through GORM.
type DocumentStore struct {
	db      *gorm.DB
	name    string
	dialect string
}

// NewDocumentStore wraps an open GORM handle. The table must exist; see
// Migrate.
func NewDocumentStore(db *gorm.DB, name string) *DocumentStore {
	return &DocumentStore{db: db, name: name, dialect: db.Dialector.Name()}
}

// OpenPostgres connects to PostgreSQL with the given DSN.
func OpenPostgres(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newGormLogger(logger, "postgres")})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(path string, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: newGormLogger(logger, "sqlite")})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer at a time.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the documents table if it does not exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&boardDocument{}); err != nil {
		return fmt.Errorf("migrate board_documents: %w", err)
	}
	return nil
}

func (s *DocumentStore) Name() string { return s.dialect }

func (s *DocumentStore) Load(ctx context.Context) (models.Collection, error) {
	var doc boardDocument
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		empty := boardDocument{Name: s.name, Body: string(emptyDocument), UpdatedAt: time.Now().UTC()}
		err = s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&empty).Error
		if err != nil {
			return nil, models.NewStorageError(fmt.Errorf("init document %s: %w", s.name, err))
		}
		return models.Collection{}, nil
	}
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("load document %s: %w", s.name, err))
	}

	posts, err := decode([]byte(doc.Body))
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("document %s: %w", s.name, err))
	}
	return posts, nil
}

func (s *DocumentStore) Save(ctx context.Context, posts models.Collection) error {
	data, err := encode(posts)
	if err != nil {
		return models.NewStorageError(err)
	}

	doc := boardDocument{Name: s.name, Body: string(data), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(&doc).Error
	if err != nil {
		return models.NewStorageError(fmt.Errorf("save document %s: %w", s.name, err))
	}
	return nil
}

// Ping checks the underlying connection.
func (s *DocumentStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DocumentStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

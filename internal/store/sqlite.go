package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jjudge-oj/imageforms/types"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordEntry is the gorm model of a record.
type recordEntry struct {
	// Seq keeps insertion order; ids are random.
	Seq          uint   `gorm:"column:seq;primaryKey;autoIncrement"`
	ID           string `gorm:"column:id;not null;uniqueIndex"`
	Collection   string `gorm:"column:collection;not null;index"`
	Name         string `gorm:"column:name;not null"`
	Email        string `gorm:"column:email;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	ImageKeys    datatypes.JSONSlice[string]
	Content      datatypes.JSONSlice[string]
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (recordEntry) TableName() string {
	return "records"
}

func (e recordEntry) toRecord() types.StoredRecord {
	return types.StoredRecord{
		ID:           e.ID,
		Collection:   e.Collection,
		Name:         e.Name,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		ImageKeys:    append([]string(nil), e.ImageKeys...),
		Content:      append([]string(nil), e.Content...),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// GetSqliteDialector returns the gorm dialector for a SQLite file.
func GetSqliteDialector(dbFile string) gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("%s?_foreign_keys=on", dbFile))
}

// SQLiteRecordRepository persists records through gorm.
type SQLiteRecordRepository struct {
	db *gorm.DB
}

// NewSQLiteRecordRepository opens the database behind dialector and
// creates the records table when missing.
func NewSQLiteRecordRepository(dialector gorm.Dialector, logLevel logger.LogLevel) (*SQLiteRecordRepository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect with DB [%w]", err)
	}
	if err := db.AutoMigrate(&recordEntry{}); err != nil {
		return nil, fmt.Errorf("failed to define records table [%w]", err)
	}
	return &SQLiteRecordRepository{db: db}, nil
}

func (r *SQLiteRecordRepository) List(ctx context.Context, collection string) ([]types.StoredRecord, error) {
	var entries []recordEntry
	if tmp := r.db.WithContext(ctx).
		Where(&recordEntry{Collection: collection}).
		Order("seq").
		Find(&entries); tmp.Error != nil {
		return nil, tmp.Error
	}
	out := make([]types.StoredRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.toRecord())
	}
	return out, nil
}

func (r *SQLiteRecordRepository) Get(ctx context.Context, collection, id string) (types.StoredRecord, error) {
	entry, err := r.find(r.db.WithContext(ctx), collection, id)
	if err != nil {
		return types.StoredRecord{}, err
	}
	return entry.toRecord(), nil
}

func (r *SQLiteRecordRepository) Create(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error) {
	entry := recordEntry{
		ID:           rec.ID,
		Collection:   rec.Collection,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		ImageKeys:    datatypes.NewJSONSlice(nonNil(rec.ImageKeys)),
		Content:      datatypes.NewJSONSlice(nonNil(rec.Content)),
	}
	if tmp := r.db.WithContext(ctx).Create(&entry); tmp.Error != nil {
		return types.StoredRecord{}, tmp.Error
	}
	return entry.toRecord(), nil
}

func (r *SQLiteRecordRepository) Update(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error) {
	var out types.StoredRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := r.find(tx, rec.Collection, rec.ID)
		if err != nil {
			return err
		}
		entry.Name = rec.Name
		entry.Email = rec.Email
		entry.PasswordHash = rec.PasswordHash
		entry.ImageKeys = datatypes.NewJSONSlice(nonNil(rec.ImageKeys))
		entry.Content = datatypes.NewJSONSlice(nonNil(rec.Content))
		if tmp := tx.Save(&entry); tmp.Error != nil {
			return tmp.Error
		}
		out = entry.toRecord()
		return nil
	})
	if err != nil {
		return types.StoredRecord{}, err
	}
	return out, nil
}

func (r *SQLiteRecordRepository) Delete(ctx context.Context, collection, id string) error {
	tmp := r.db.WithContext(ctx).
		Where(&recordEntry{Collection: collection, ID: id}).
		Delete(&recordEntry{})
	if tmp.Error != nil {
		return tmp.Error
	}
	if tmp.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRecordRepository) find(db *gorm.DB, collection, id string) (recordEntry, error) {
	var entry recordEntry
	tmp := db.Where(&recordEntry{Collection: collection, ID: id}).First(&entry)
	if tmp.Error != nil {
		if errors.Is(tmp.Error, gorm.ErrRecordNotFound) {
			return recordEntry{}, ErrNotFound
		}
		return recordEntry{}, tmp.Error
	}
	return entry, nil
}

// Close releases the underlying connection pool.
func (r *SQLiteRecordRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

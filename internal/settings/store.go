package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting lookup errors.
var (
	// ErrNotFound indicates the key has no row.
	ErrNotFound = errors.New("setting not found")
	// ErrInvalidKey indicates a blank key.
	ErrInvalidKey = errors.New("setting key is required")
	// ErrInvalidValue indicates the value is not valid JSON.
	ErrInvalidValue = errors.New("setting value must be valid JSON")
)

// Store reads and writes settings rows and keeps the snapshot current.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List returns every setting ordered by key.
func (s *Store) List(ctx context.Context) ([]models.Setting, error) {
	var rows []models.Setting
	if errFind := s.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("list settings: %w", errFind)
	}
	return rows, nil
}

// Get returns a single setting.
func (s *Store) Get(ctx context.Context, key string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidKey
	}
	var row models.Setting
	if errFind := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get setting: %w", errFind)
	}
	return &row, nil
}

// Set upserts a setting. A nil description keeps the stored one.
func (s *Store) Set(ctx context.Context, key string, value json.RawMessage, description *string) (*models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidKey
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, ErrInvalidValue
	}

	row := models.Setting{
		Key:         key,
		Value:       datatypes.JSON(value),
		Description: description,
		UpdatedAt:   time.Now().UTC(),
	}
	updateColumns := []string{"value", "updated_at"}
	if description != nil {
		updateColumns = append(updateColumns, "description")
	}
	if errUpsert := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(&row).Error; errUpsert != nil {
		return nil, fmt.Errorf("save setting: %w", errUpsert)
	}

	if errRefresh := RefreshDBConfigSnapshot(ctx, s.db); errRefresh != nil {
		return nil, fmt.Errorf("refresh settings: %w", errRefresh)
	}
	return s.Get(ctx, key)
}

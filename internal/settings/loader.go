package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tusharkarle/gym-management/internal/models"
	"gorm.io/gorm"
)

// RefreshDBConfigSnapshot reloads every settings row into the in-memory snapshot.
// The server calls it once at startup; Store.Set calls it after each write.
func RefreshDBConfigSnapshot(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.Setting
	if errFind := db.WithContext(ctx).Select("key", "value").Find(&rows).Error; errFind != nil {
		return fmt.Errorf("settings: read rows: %w", errFind)
	}

	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
	}
	StoreDBConfig(values)
	return nil
}

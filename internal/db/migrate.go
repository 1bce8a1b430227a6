package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tusharkarle/gym-management/internal/models"
	"github.com/tusharkarle/gym-management/internal/settings"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// migration is one schema version. Versions are applied in order, each in its own transaction.
type migration struct {
	version int
	name    string
	up      func(tx *gorm.DB) error
}

// migrations lists every schema version. Append only; never renumber.
var migrations = []migration{
	{
		version: 1,
		name:    "create_membership_tables",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Member{},
				&models.Package{},
				&models.MemberPackage{},
				&models.Attendance{},
				&models.Payment{},
			)
		},
	},
	{
		version: 2,
		name:    "create_settings",
		up: func(tx *gorm.DB) error {
			if errMigrate := tx.AutoMigrate(&models.Setting{}); errMigrate != nil {
				return errMigrate
			}
			defaults := settings.Defaults()
			if len(defaults) == 0 {
				return nil
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
		},
	},
	{
		version: 3,
		name:    "index_subscription_expiry",
		up: func(tx *gorm.DB) error {
			return tx.Exec("CREATE INDEX IF NOT EXISTS idx_member_packages_status_end_date ON member_packages (status, end_date)").Error
		},
	},
	{
		version: 4,
		name:    "settings_value_text",
		up:      settingsValueAsText,
	},
}

// settingsValueAsText rewrites a settings.value column created with a JSON type.
// SQLite gives JSON numeric affinity, so bare numbers came back as integers the JSON scanner rejects.
func settingsValueAsText(tx *gorm.DB) error {
	columnTypes, errTypes := tx.Migrator().ColumnTypes(&models.Setting{})
	if errTypes != nil {
		return errTypes
	}
	for _, column := range columnTypes {
		if column.Name() != "value" {
			continue
		}
		if strings.EqualFold(column.DatabaseTypeName(), "text") {
			return nil
		}
		return tx.Migrator().AlterColumn(&models.Setting{}, "Value")
	}
	return nil
}

// LatestVersion returns the newest schema version known to this build.
func LatestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].version
}

// CurrentVersion returns the highest applied schema version, or 0 on a fresh database.
func CurrentVersion(conn *gorm.DB) (int, error) {
	if conn == nil {
		return 0, errors.New("db: nil connection")
	}
	if !conn.Migrator().HasTable(&models.SchemaMigration{}) {
		return 0, nil
	}
	var version sql.NullInt64
	if errScan := conn.Model(&models.SchemaMigration{}).Select("MAX(version)").Row().Scan(&version); errScan != nil {
		return 0, fmt.Errorf("db: read schema version: %w", errScan)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// Migrate applies every pending schema version.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(&models.SchemaMigration{}); errMigrate != nil {
		return fmt.Errorf("db: create schema_migrations: %w", errMigrate)
	}

	current, err := CurrentVersion(conn)
	if err != nil {
		return err
	}
	if current > LatestVersion() {
		log.Warnf("database schema version %d is newer than this build (%d)", current, LatestVersion())
		return nil
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		step := m
		errTx := conn.Transaction(func(tx *gorm.DB) error {
			if errUp := step.up(tx); errUp != nil {
				return errUp
			}
			return tx.Create(&models.SchemaMigration{
				Version:   step.version,
				Name:      step.name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if errTx != nil {
			return fmt.Errorf("db: migration %d (%s): %w", step.version, step.name, errTx)
		}
		log.Infof("applied schema migration %d (%s)", step.version, step.name)
	}
	return nil
}

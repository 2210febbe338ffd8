package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"spa_backend/internal/models"
)

// SettingRepository stores application key/value settings.
type SettingRepository interface {
	ListSettings(ctx context.Context) ([]models.ApplicationSetting, error)
	GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error)
	UpsertSetting(ctx context.Context, executor SQLExecutor, s *models.ApplicationSetting) error
	DeleteSetting(ctx context.Context, executor SQLExecutor, key string) error
}

type settingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

const settingSelect = `SELECT id, setting_key, setting_value, description, created_at, updated_at FROM application_settings`

func scanSetting(sc scanner) (*models.ApplicationSetting, error) {
	s := &models.ApplicationSetting{}
	if err := sc.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *settingRepository) ListSettings(ctx context.Context) ([]models.ApplicationSetting, error) {
	rows, err := r.db.QueryContext(ctx, settingSelect+` ORDER BY setting_key`)
	if err != nil {
		return nil, dbError(err, "listing settings")
	}
	defer rows.Close()
	out := []models.ApplicationSetting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, dbError(err, "scanning setting")
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating settings")
	}
	return out, nil
}

func (r *settingRepository) GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error) {
	s, err := scanSetting(r.db.QueryRowContext(ctx, settingSelect+` WHERE setting_key = $1`, key))
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("getting setting %q", key))
	}
	return s, nil
}

// UpsertSetting inserts the key or overwrites its value and description.
func (r *settingRepository) UpsertSetting(ctx context.Context, executor SQLExecutor, s *models.ApplicationSetting) error {
	query := `INSERT INTO application_settings (setting_key, setting_value, description) VALUES ($1, $2, $3)
	          ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value,
	              description = COALESCE(EXCLUDED.description, application_settings.description), updated_at = now()
	          RETURNING id, description, created_at, updated_at`
	err := executor.QueryRowContext(ctx, query, s.SettingKey, s.SettingValue, s.Description).
		Scan(&s.ID, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return dbError(err, "upserting setting")
	}
	return nil
}

func (r *settingRepository) DeleteSetting(ctx context.Context, executor SQLExecutor, key string) error {
	res, err := executor.ExecContext(ctx, `DELETE FROM application_settings WHERE setting_key = $1`, key)
	return expectAffected(res, err, "deleting setting")
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Eoic/Shelf/internal/domains/storage/model"
	"github.com/Eoic/Shelf/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const storageColumns = `id, user_id, storage_type, config, is_default, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository - Constructor
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func scanStorageConfig(row pgx.Row) (*model.StorageConfig, error) {
	var cfg model.StorageConfig
	var configJSON []byte

	err := row.Scan(
		&cfg.ID, &cfg.UserID, &cfg.StorageType, &configJSON,
		&cfg.IsDefault, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.Config = map[string]interface{}{}
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &cfg.Config); err != nil {
			return nil, fmt.Errorf("failed to decode storage config: %w", err)
		}
	}

	return &cfg, nil
}

func encodeConfig(cfg *model.StorageConfig) ([]byte, error) {
	config := cfg.Config
	if config == nil {
		config = map[string]interface{}{}
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage config: %w", err)
	}

	return configJSON, nil
}

// Create - insert config; nếu được đánh dấu default thì unset các default khác
// trong cùng transaction để giữ exclusivity
func (r *postgresRepository) Create(ctx context.Context, cfg *model.StorageConfig) (*model.StorageConfig, error) {
	configJSON, err := encodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	var created *model.StorageConfig
	err = database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if cfg.IsDefault {
			if _, err := tx.Exec(ctx,
				`UPDATE storage_configs SET is_default = false, updated_at = NOW() WHERE user_id = $1`,
				cfg.UserID,
			); err != nil {
				return fmt.Errorf("failed to unset previous defaults: %w", err)
			}
		}

		query := fmt.Sprintf(`
			INSERT INTO storage_configs (id, user_id, storage_type, config, is_default)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING %s
		`, storageColumns)

		row := tx.QueryRow(ctx, query, cfg.ID, cfg.UserID, cfg.StorageType, configJSON, cfg.IsDefault)

		result, err := scanStorageConfig(row)
		if err != nil {
			return fmt.Errorf("failed to insert storage config: %w", err)
		}

		created = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.StorageConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM storage_configs WHERE id = $1 AND user_id = $2`, storageColumns)

	cfg, err := scanStorageConfig(r.pool.QueryRow(ctx, query, id, userID))
	if err == pgx.ErrNoRows {
		return nil, model.NewStorageNotFound()
	}
	if err != nil {
		return nil, model.NewStorageQueryError(err)
	}

	return cfg, nil
}

// GetDefaultByUser - backend resolution: không có default không phải là lỗi
func (r *postgresRepository) GetDefaultByUser(ctx context.Context, userID uuid.UUID) (*model.StorageConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM storage_configs WHERE user_id = $1 AND is_default = true`, storageColumns)

	cfg, err := scanStorageConfig(r.pool.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewStorageQueryError(err)
	}

	return cfg, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.StorageConfig, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM storage_configs
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`, storageColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, model.NewStorageQueryError(err)
	}
	defer rows.Close()

	configs := []*model.StorageConfig{}
	for rows.Next() {
		cfg, err := scanStorageConfig(rows)
		if err != nil {
			return nil, model.NewStorageQueryError(err)
		}
		configs = append(configs, cfg)
	}
	if err = rows.Err(); err != nil {
		return nil, model.NewStorageQueryError(err)
	}

	return configs, nil
}

func (r *postgresRepository) Update(ctx context.Context, cfg *model.StorageConfig) (*model.StorageConfig, error) {
	configJSON, err := encodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE storage_configs
		SET storage_type = $1, config = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING %s
	`, storageColumns)

	updated, err := scanStorageConfig(r.pool.QueryRow(ctx, query, cfg.StorageType, configJSON, cfg.ID, cfg.UserID))
	if err == pgx.ErrNoRows {
		return nil, model.NewStorageNotFound()
	}
	if err != nil {
		return nil, model.NewStorageQueryError(err)
	}

	return updated, nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM storage_configs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return model.NewStorageQueryError(err)
	}

	if result.RowsAffected() == 0 {
		return model.NewStorageNotFound()
	}

	return nil
}

// SetDefault sets a storage config as default for user
func (r *postgresRepository) SetDefault(ctx context.Context, userID uuid.UUID, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.NewStorageQueryError(err)
	}
	defer tx.Rollback(ctx)

	// Unset all other configs as default
	_, err = tx.Exec(ctx,
		`UPDATE storage_configs SET is_default = false, updated_at = NOW() WHERE user_id = $1 AND id != $2`,
		userID, id,
	)
	if err != nil {
		return model.NewStorageQueryError(err)
	}

	// Set this config as default
	result, err := tx.Exec(ctx,
		`UPDATE storage_configs SET is_default = true, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return model.NewStorageQueryError(err)
	}

	if result.RowsAffected() == 0 {
		return model.NewStorageNotFound()
	}

	if err = tx.Commit(ctx); err != nil {
		return model.NewStorageQueryError(err)
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eoic/Shelf/internal/domains/shelf/model"
	"github.com/Eoic/Shelf/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const shelfColumns = `id, user_id, name, description, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository - Constructor
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func scanShelf(row pgx.Row) (*model.Shelf, error) {
	var s model.Shelf
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Description,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepository) Create(ctx context.Context, shelf *model.Shelf) (*model.Shelf, error) {
	query := fmt.Sprintf(`
		INSERT INTO shelves (id, user_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, shelfColumns)

	created, err := scanShelf(r.pool.QueryRow(ctx, query,
		shelf.ID, shelf.UserID, shelf.Name, shelf.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to insert shelf: %w", err)
	}

	created.BookIDs = []string{}
	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Shelf, error) {
	query := fmt.Sprintf(`SELECT %s FROM shelves WHERE id = $1 AND user_id = $2`, shelfColumns)

	shelf, err := scanShelf(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrShelfNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shelf: %w", err)
	}

	bookIDs, err := r.loadBookIDs(ctx, shelf.ID)
	if err != nil {
		return nil, err
	}
	shelf.BookIDs = bookIDs

	return shelf, nil
}

// ListByUser - một query duy nhất, gom membership bằng array_agg
func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Shelf, error) {
	query := `
		SELECT s.id, s.user_id, s.name, s.description, s.created_at, s.updated_at,
		       COALESCE(array_agg(sb.book_id ORDER BY sb.added_at) FILTER (WHERE sb.book_id IS NOT NULL), '{}')
		FROM shelves s
		LEFT JOIN shelf_books sb ON sb.shelf_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shelves: %w", err)
	}
	defer rows.Close()

	shelves := []*model.Shelf{}
	for rows.Next() {
		var s model.Shelf
		var bookIDs []string
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Name, &s.Description,
			&s.CreatedAt, &s.UpdatedAt, pq.Array(&bookIDs),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shelf row: %w", err)
		}
		if bookIDs == nil {
			bookIDs = []string{}
		}
		s.BookIDs = bookIDs
		shelves = append(shelves, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shelf rows: %w", err)
	}

	return shelves, nil
}

func (r *postgresRepository) Update(ctx context.Context, shelf *model.Shelf) (*model.Shelf, error) {
	query := fmt.Sprintf(`
		UPDATE shelves
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING %s
	`, shelfColumns)

	updated, err := scanShelf(r.pool.QueryRow(ctx, query,
		shelf.Name, shelf.Description, shelf.ID, shelf.UserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrShelfNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update shelf: %w", err)
	}

	bookIDs, err := r.loadBookIDs(ctx, updated.ID)
	if err != nil {
		return nil, err
	}
	updated.BookIDs = bookIDs

	return updated, nil
}

// Delete - xóa memberships trước rồi mới xóa shelf row, cùng transaction
func (r *postgresRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM shelf_books WHERE shelf_id = $1`, id,
		); err != nil {
			return fmt.Errorf("failed to delete shelf memberships: %w", err)
		}

		result, err := tx.Exec(ctx,
			`DELETE FROM shelves WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete shelf: %w", err)
		}
		if result.RowsAffected() == 0 {
			return model.ErrShelfNotFound
		}

		return nil
	})
}

// AddBook - cả shelf và book đều phải thuộc user; membership trùng → conflict
func (r *postgresRepository) AddBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error {
	if err := r.checkShelfOwned(ctx, userID, shelfID); err != nil {
		return err
	}

	var bookExists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE id = $1 AND user_id = $2)`,
		bookID, userID,
	).Scan(&bookExists)
	if err != nil {
		return fmt.Errorf("failed to check book: %w", err)
	}
	if !bookExists {
		return model.ErrBookNotFound
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO shelf_books (shelf_id, book_id) VALUES ($1, $2)`,
		shelfID, bookID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: composite PK (shelf_id, book_id) đã tồn tại
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrBookAlreadyOnShelf
		}
		return fmt.Errorf("failed to add book to shelf: %w", err)
	}

	return nil
}

func (r *postgresRepository) RemoveBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error {
	if err := r.checkShelfOwned(ctx, userID, shelfID); err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx,
		`DELETE FROM shelf_books WHERE shelf_id = $1 AND book_id = $2`,
		shelfID, bookID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove book from shelf: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrBookNotOnShelf
	}

	return nil
}

func (r *postgresRepository) checkShelfOwned(ctx context.Context, userID uuid.UUID, shelfID string) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM shelves WHERE id = $1 AND user_id = $2)`,
		shelfID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check shelf: %w", err)
	}
	if !exists {
		return model.ErrShelfNotFound
	}
	return nil
}

func (r *postgresRepository) loadBookIDs(ctx context.Context, shelfID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT book_id FROM shelf_books WHERE shelf_id = $1 ORDER BY added_at`,
		shelfID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load shelf books: %w", err)
	}
	defer rows.Close()

	bookIDs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan book id: %w", err)
		}
		bookIDs = append(bookIDs, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shelf books: %w", err)
	}

	return bookIDs, nil
}

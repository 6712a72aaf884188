package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	"github.com/Eoic/Shelf/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// bookColumns - thứ tự cột cố định, scanBook phụ thuộc thứ tự này
const bookColumns = `
	id, user_id, title, authors, publisher, publication_date,
	isbn_10, isbn_13, language, series_name, series_index, description,
	tags, identifiers, format, covers,
	original_filename, stored_filename, file_hash, file_path, file_size_bytes,
	status, processing_error, uploaded_at, modified_at`

// PostgresRepository - Raw SQL with pgxpool
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository - Constructor
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

// ============================================
// SCAN HELPERS
// ============================================

func scanBook(row pgx.Row) (*model.Book, error) {
	var book model.Book
	var authorsJSON, identifiersJSON, coversJSON []byte

	err := row.Scan(
		&book.ID, &book.UserID, &book.Title, &authorsJSON, &book.Publisher, &book.PublicationDate,
		&book.ISBN10, &book.ISBN13, &book.Language, &book.SeriesName, &book.SeriesIndex, &book.Description,
		pq.Array(&book.Tags), &identifiersJSON, &book.Format, &coversJSON,
		&book.OriginalFilename, &book.StoredFilename, &book.FileHash, &book.FilePath, &book.FileSizeBytes,
		&book.Status, &book.ProcessingError, &book.UploadedAt, &book.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := decodeBookJSON(&book, authorsJSON, identifiersJSON, coversJSON); err != nil {
		return nil, err
	}

	return &book, nil
}

// decodeBookJSON - JSONB columns về slices, NULL column → empty slice
func decodeBookJSON(book *model.Book, authorsJSON, identifiersJSON, coversJSON []byte) error {
	book.Authors = []model.Author{}
	book.Identifiers = []model.Identifier{}
	book.Covers = []model.Cover{}

	if len(authorsJSON) > 0 {
		if err := json.Unmarshal(authorsJSON, &book.Authors); err != nil {
			return fmt.Errorf("failed to decode authors: %w", err)
		}
	}
	if len(identifiersJSON) > 0 {
		if err := json.Unmarshal(identifiersJSON, &book.Identifiers); err != nil {
			return fmt.Errorf("failed to decode identifiers: %w", err)
		}
	}
	if len(coversJSON) > 0 {
		if err := json.Unmarshal(coversJSON, &book.Covers); err != nil {
			return fmt.Errorf("failed to decode covers: %w", err)
		}
	}

	return nil
}

// encodeBookJSON - nil slices ghi thành '[]' chứ không phải JSON null
func encodeBookJSON(book *model.Book) (authorsJSON, identifiersJSON, coversJSON []byte, err error) {
	authors := book.Authors
	if authors == nil {
		authors = []model.Author{}
	}
	identifiers := book.Identifiers
	if identifiers == nil {
		identifiers = []model.Identifier{}
	}
	covers := book.Covers
	if covers == nil {
		covers = []model.Cover{}
	}

	if authorsJSON, err = json.Marshal(authors); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode authors: %w", err)
	}
	if identifiersJSON, err = json.Marshal(identifiers); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode identifiers: %w", err)
	}
	if coversJSON, err = json.Marshal(covers); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode covers: %w", err)
	}

	return authorsJSON, identifiersJSON, coversJSON, nil
}

// ============================================
// CREATE & READ
// ============================================

// CreatePlaceholder - Insert queued record, metadata columns giữ default
func (r *postgresRepository) CreatePlaceholder(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (id, user_id, title, original_filename, status, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		book.ID, book.UserID, book.Title, book.OriginalFilename, book.Status, book.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert book placeholder: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1 AND user_id = $2`, bookColumns)

	book, err := scanBook(r.pool.QueryRow(ctx, query, id, userID))
	if err == pgx.ErrNoRows {
		return nil, model.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return book, nil
}

// GetByContentHash - dedup lookup, không scope theo user vì file_hash unique toàn cục
func (r *postgresRepository) GetByContentHash(ctx context.Context, hash string) (*model.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE file_hash = $1`, bookColumns)

	book, err := scanBook(r.pool.QueryRow(ctx, query, hash))
	if err == pgx.ErrNoRows {
		return nil, model.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book by hash: %w", err)
	}

	return book, nil
}

// ============================================
// UPDATE
// ============================================

// UpdateMetadata - user-editable fields only, không đụng vào file linkage
func (r *postgresRepository) UpdateMetadata(ctx context.Context, book *model.Book) error {
	authorsJSON, identifiersJSON, _, err := encodeBookJSON(book)
	if err != nil {
		return err
	}

	query := `
		UPDATE books
		SET title = $1, authors = $2, publisher = $3, publication_date = $4,
		    isbn_10 = $5, isbn_13 = $6, language = $7, series_name = $8,
		    series_index = $9, description = $10, tags = $11, identifiers = $12,
		    format = $13, modified_at = NOW()
		WHERE id = $14 AND user_id = $15
	`

	result, err := r.pool.Exec(ctx, query,
		book.Title, authorsJSON, book.Publisher, book.PublicationDate,
		book.ISBN10, book.ISBN13, book.Language, book.SeriesName,
		book.SeriesIndex, book.Description, pq.Array(book.Tags), identifiersJSON,
		book.Format, book.ID, book.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	return nil
}

// FinalizeIngestion - một UPDATE duy nhất: metadata + file linkage + completed.
// Pre-check dedup chỉ là advisory; unique violation ở đây nghĩa là một upload
// song song với cùng content đã thắng trước.
func (r *postgresRepository) FinalizeIngestion(ctx context.Context, book *model.Book) error {
	authorsJSON, identifiersJSON, coversJSON, err := encodeBookJSON(book)
	if err != nil {
		return err
	}

	query := `
		UPDATE books
		SET title = $1, authors = $2, publisher = $3, publication_date = $4,
		    isbn_10 = $5, isbn_13 = $6, language = $7, series_name = $8,
		    series_index = $9, description = $10, tags = $11, identifiers = $12,
		    format = $13, covers = $14, stored_filename = $15, file_hash = $16,
		    file_path = $17, file_size_bytes = $18,
		    status = 'completed', processing_error = NULL, modified_at = NOW()
		WHERE id = $19 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.pool.Exec(ctx, query,
		book.Title, authorsJSON, book.Publisher, book.PublicationDate,
		book.ISBN10, book.ISBN13, book.Language, book.SeriesName,
		book.SeriesIndex, book.Description, pq.Array(book.Tags), identifiersJSON,
		book.Format, coversJSON, book.StoredFilename, book.FileHash,
		book.FilePath, book.FileSizeBytes,
		book.ID,
	)
	if err != nil {
		// Check for unique constraint violation on file_hash
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				if strings.Contains(pgErr.Message, "file_hash") {
					return model.ErrDuplicateHash
				}
			}
		}
		return fmt.Errorf("failed to finalize book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyMissingUpdate(ctx, book.ID)
	}

	return nil
}

// UpdateStatus - transition với terminal guard
func (r *postgresRepository) UpdateStatus(ctx context.Context, id string, status model.BookStatus, processingError *string) error {
	query := `
		UPDATE books
		SET status = $1, processing_error = $2, modified_at = NOW()
		WHERE id = $3 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.pool.Exec(ctx, query, status, processingError, id)
	if err != nil {
		return fmt.Errorf("failed to update book status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return r.classifyMissingUpdate(ctx, id)
	}

	return nil
}

// classifyMissingUpdate - 0 rows updated: row biến mất hay đã terminal?
func (r *postgresRepository) classifyMissingUpdate(ctx context.Context, id string) error {
	var status model.BookStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM books WHERE id = $1`, id).Scan(&status)
	if err == pgx.ErrNoRows {
		return model.ErrBookNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check book status: %w", err)
	}

	return model.ErrTerminalStatus
}

// ============================================
// DELETE
// ============================================

// Delete - xoá row + shelf memberships trong một transaction.
// Storage files phải được giải phóng TRƯỚC khi gọi (service đảm nhiệm thứ tự đó).
func (r *postgresRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM shelf_books WHERE book_id = $1`, id); err != nil {
			return fmt.Errorf("failed to remove shelf memberships: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM books WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}
		if result.RowsAffected() == 0 {
			return model.ErrBookNotFound
		}

		return nil
	})
}

// ============================================
// LIST BOOKS
// ============================================

// List - pagination + free-text search over title/description + tag filter
func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID, req model.ListBooksRequest) ([]model.Book, int, error) {
	whereClause, args := buildListWhere(userID, req)

	total, err := r.countBooks(ctx, whereClause, args)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM books
		WHERE %s
		ORDER BY uploaded_at DESC
		LIMIT $%d OFFSET $%d
	`, bookColumns, whereClause, len(args)+1, len(args)+2)

	args = append(args, req.Limit, req.Skip)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("[Repository] List query error: %v", err)
		return nil, 0, fmt.Errorf("list query failed: %w", err)
	}
	defer rows.Close()

	books := make([]model.Book, 0, req.Limit)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return books, total, nil
}

// buildListWhere - Construct WHERE clause dynamically
func buildListWhere(userID uuid.UUID, req model.ListBooksRequest) (string, []interface{}) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argIndex := 2

	if req.Q != "" {
		conditions = append(conditions,
			fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+req.Q+"%")
		argIndex++
	}

	if req.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argIndex))
		args = append(args, req.Tag)
		argIndex++
	}

	return strings.Join(conditions, " AND "), args
}

func (r *postgresRepository) countBooks(ctx context.Context, whereClause string, args []interface{}) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM books WHERE %s`, whereClause)

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}

	return total, nil
}

// ListAll - toàn bộ library của một user, dùng cho export
func (r *postgresRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE user_id = $1 ORDER BY uploaded_at DESC`, bookColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list all query failed: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *book)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return books, nil
}

// ============================================
// MAINTENANCE
// ============================================

// FailStuckProcessing - janitor: worker chết giữa chừng để lại processing rows,
// đánh dấu failed sau cutoff. Terminal guard implicit (chỉ match processing).
func (r *postgresRepository) FailStuckProcessing(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	query := `
		UPDATE books
		SET status = 'failed', processing_error = $1, modified_at = NOW()
		WHERE status = 'processing' AND COALESCE(modified_at, uploaded_at) < $2
	`

	result, err := r.pool.Exec(ctx, query, message, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stuck books: %w", err)
	}

	return result.RowsAffected(), nil
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eoic/Shelf/internal/domains/shelf/model"
	"github.com/Eoic/Shelf/internal/shared/utils"
)

// fakeShelfRepo - in-memory repo, đủ cho service-level behavior
type fakeShelfRepo struct {
	shelves map[string]*model.Shelf
	members map[string]map[string]bool // shelfID -> bookID set

	addBookCalls    int
	removeBookCalls int
}

func newFakeShelfRepo() *fakeShelfRepo {
	return &fakeShelfRepo{
		shelves: make(map[string]*model.Shelf),
		members: make(map[string]map[string]bool),
	}
}

func (r *fakeShelfRepo) Create(ctx context.Context, shelf *model.Shelf) (*model.Shelf, error) {
	stored := *shelf
	r.shelves[shelf.ID] = &stored
	return &stored, nil
}

func (r *fakeShelfRepo) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Shelf, error) {
	shelf, ok := r.shelves[id]
	if !ok || shelf.UserID != userID {
		return nil, model.ErrShelfNotFound
	}
	return shelf, nil
}

func (r *fakeShelfRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Shelf, error) {
	var out []*model.Shelf
	for _, shelf := range r.shelves {
		if shelf.UserID == userID {
			out = append(out, shelf)
		}
	}
	return out, nil
}

func (r *fakeShelfRepo) Update(ctx context.Context, shelf *model.Shelf) (*model.Shelf, error) {
	if _, ok := r.shelves[shelf.ID]; !ok {
		return nil, model.ErrShelfNotFound
	}
	stored := *shelf
	r.shelves[shelf.ID] = &stored
	return &stored, nil
}

func (r *fakeShelfRepo) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	shelf, ok := r.shelves[id]
	if !ok || shelf.UserID != userID {
		return model.ErrShelfNotFound
	}
	delete(r.shelves, id)
	delete(r.members, id)
	return nil
}

func (r *fakeShelfRepo) AddBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error {
	r.addBookCalls++
	shelf, ok := r.shelves[shelfID]
	if !ok || shelf.UserID != userID {
		return model.ErrShelfNotFound
	}
	if r.members[shelfID] == nil {
		r.members[shelfID] = make(map[string]bool)
	}
	if r.members[shelfID][bookID] {
		return model.ErrBookAlreadyOnShelf
	}
	r.members[shelfID][bookID] = true
	return nil
}

func (r *fakeShelfRepo) RemoveBook(ctx context.Context, userID uuid.UUID, shelfID, bookID string) error {
	r.removeBookCalls++
	shelf, ok := r.shelves[shelfID]
	if !ok || shelf.UserID != userID {
		return model.ErrShelfNotFound
	}
	if !r.members[shelfID][bookID] {
		return model.ErrBookNotOnShelf
	}
	delete(r.members[shelfID], bookID)
	return nil
}

func strPtr(s string) *string { return &s }

func TestShelfCreate(t *testing.T) {
	repo := newFakeShelfRepo()
	svc := NewShelfService(repo)
	userID := uuid.New()

	resp, err := svc.Create(context.Background(), userID, &model.ShelfCreateRequest{
		Name:        "Science Fiction",
		Description: strPtr("Space operas and such"),
	})
	require.NoError(t, err)

	assert.True(t, utils.ValidID(resp.ID), "generated id must be a valid short id")
	assert.Equal(t, "Science Fiction", resp.Name)
	require.NotNil(t, resp.Description)
	assert.Equal(t, "Space operas and such", *resp.Description)
	assert.NotNil(t, resp.BookIDs, "book_ids serializes as [] not null")
	assert.Zero(t, resp.BookCount)
}

func TestShelfCreateValidation(t *testing.T) {
	svc := NewShelfService(newFakeShelfRepo())
	userID := uuid.New()

	tests := []struct {
		name string
		req  *model.ShelfCreateRequest
	}{
		{"empty name", &model.ShelfCreateRequest{Name: ""}},
		{"name too long", &model.ShelfCreateRequest{Name: strings.Repeat("x", 256)}},
		{"description too long", &model.ShelfCreateRequest{
			Name:        "OK",
			Description: strPtr(strings.Repeat("d", 2001)),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userID, tt.req)
			assert.Error(t, err)
		})
	}
}

func TestShelfUpdatePartial(t *testing.T) {
	repo := newFakeShelfRepo()
	svc := NewShelfService(repo)
	userID := uuid.New()

	created, err := svc.Create(context.Background(), userID, &model.ShelfCreateRequest{
		Name:        "To Read",
		Description: strPtr("Backlog"),
	})
	require.NoError(t, err)

	// Chỉ đổi name - description giữ nguyên
	updated, err := svc.Update(context.Background(), userID, created.ID, &model.ShelfUpdateRequest{
		Name: strPtr("Reading Now"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Reading Now", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Backlog", *updated.Description)
}

func TestShelfUpdateNotFound(t *testing.T) {
	svc := NewShelfService(newFakeShelfRepo())

	_, err := svc.Update(context.Background(), uuid.New(), "0123456789ABC", &model.ShelfUpdateRequest{
		Name: strPtr("Anything"),
	})
	assert.ErrorIs(t, err, model.ErrShelfNotFound)
}

func TestShelfGetByIDScopedToOwner(t *testing.T) {
	repo := newFakeShelfRepo()
	svc := NewShelfService(repo)
	owner := uuid.New()

	created, err := svc.Create(context.Background(), owner, &model.ShelfCreateRequest{Name: "Mine"})
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), uuid.New(), created.ID)
	assert.ErrorIs(t, err, model.ErrShelfNotFound, "another user's shelf is invisible")

	got, err := svc.GetByID(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestShelfList(t *testing.T) {
	repo := newFakeShelfRepo()
	svc := NewShelfService(repo)
	userID := uuid.New()

	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Create(context.Background(), userID, &model.ShelfCreateRequest{Name: name})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), uuid.New(), &model.ShelfCreateRequest{Name: "Other"})
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Items, 3)
}

func TestShelfAddBookInvalidIDShortCircuits(t *testing.T) {
	repo := newFakeShelfRepo()
	svc := NewShelfService(repo)

	err := svc.AddBook(context.Background(), uuid.New(), "0123456789ABC", "not-a-valid-id")
	assert.ErrorIs(t, err, model.ErrBookNotFound)
	assert.Zero(t, repo.addBookCalls, "repo is not reached for malformed book ids")

	err = svc.RemoveBook(context.Background(), uuid.New(), "0123456789ABC", "bad!!")
	assert.ErrorIs(t, err, model.ErrBookNotFound)
	assert.Zero(t, repo.removeBookCalls)
}

func TestShelfMembershipIdempotencyErrors(t *testing.T) {
	repo := newFakeShelfRepo()
	svc := NewShelfService(repo)
	userID := uuid.New()
	bookID := "0123456789ABC"

	created, err := svc.Create(context.Background(), userID, &model.ShelfCreateRequest{Name: "Favorites"})
	require.NoError(t, err)

	require.NoError(t, svc.AddBook(context.Background(), userID, created.ID, bookID))

	err = svc.AddBook(context.Background(), userID, created.ID, bookID)
	assert.ErrorIs(t, err, model.ErrBookAlreadyOnShelf)

	require.NoError(t, svc.RemoveBook(context.Background(), userID, created.ID, bookID))

	err = svc.RemoveBook(context.Background(), userID, created.ID, bookID)
	assert.ErrorIs(t, err, model.ErrBookNotOnShelf)
}

package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eoic/Shelf/internal/domains/book/model"
	storageModel "github.com/Eoic/Shelf/internal/domains/storage/model"
	"github.com/Eoic/Shelf/internal/infrastructure/storage"
	"github.com/Eoic/Shelf/internal/shared"
	"github.com/Eoic/Shelf/internal/shared/utils"
)

// ============================================
// FAKES
// ============================================

type fakeBookRepo struct {
	statusUpdates   []model.BookStatus
	failureMessages []string
	finalized       *model.Book

	existingByHash   *model.Book
	raceWinner       *model.Book // visible from the second hash lookup on
	updateStatusErr  error
	finalizeErr      error
	finalizeErrOnce  bool
	contentHashCalls int
}

func (r *fakeBookRepo) CreatePlaceholder(ctx context.Context, book *model.Book) error { return nil }

func (r *fakeBookRepo) GetByID(ctx context.Context, userID uuid.UUID, id string) (*model.Book, error) {
	return nil, model.ErrBookNotFound
}

func (r *fakeBookRepo) GetByContentHash(ctx context.Context, hash string) (*model.Book, error) {
	r.contentHashCalls++
	if r.existingByHash != nil {
		return r.existingByHash, nil
	}
	if r.raceWinner != nil && r.contentHashCalls > 1 {
		return r.raceWinner, nil
	}
	return nil, model.ErrBookNotFound
}

func (r *fakeBookRepo) UpdateMetadata(ctx context.Context, book *model.Book) error { return nil }

func (r *fakeBookRepo) FinalizeIngestion(ctx context.Context, book *model.Book) error {
	if r.finalizeErr != nil {
		err := r.finalizeErr
		if r.finalizeErrOnce {
			r.finalizeErr = nil
		}
		return err
	}
	r.finalized = book
	return nil
}

func (r *fakeBookRepo) UpdateStatus(ctx context.Context, id string, status model.BookStatus, processingError *string) error {
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	r.statusUpdates = append(r.statusUpdates, status)
	if processingError != nil {
		r.failureMessages = append(r.failureMessages, *processingError)
	}
	return nil
}

func (r *fakeBookRepo) Delete(ctx context.Context, userID uuid.UUID, id string) error { return nil }

func (r *fakeBookRepo) List(ctx context.Context, userID uuid.UUID, req model.ListBooksRequest) ([]model.Book, int, error) {
	return nil, 0, nil
}

func (r *fakeBookRepo) ListAll(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	return nil, nil
}

func (r *fakeBookRepo) FailStuckProcessing(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	return 0, nil
}

// fakeStorageService resolve mọi user về cùng một backend
type fakeStorageService struct {
	backend storage.Backend
}

func (s *fakeStorageService) Create(ctx context.Context, userID uuid.UUID, req *storageModel.StorageCreateRequest) (*storageModel.StorageConfigResponse, error) {
	return nil, nil
}

func (s *fakeStorageService) GetByID(ctx context.Context, userID uuid.UUID, id string) (*storageModel.StorageConfigResponse, error) {
	return nil, nil
}

func (s *fakeStorageService) List(ctx context.Context, userID uuid.UUID) (*storageModel.ListStorageResponse, error) {
	return nil, nil
}

func (s *fakeStorageService) Update(ctx context.Context, userID uuid.UUID, id string, req *storageModel.StorageUpdateRequest) (*storageModel.StorageConfigResponse, error) {
	return nil, nil
}

func (s *fakeStorageService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return nil
}

func (s *fakeStorageService) SetDefault(ctx context.Context, userID uuid.UUID, id string) (*storageModel.StorageConfigResponse, error) {
	return nil, nil
}

func (s *fakeStorageService) ResolveBackend(ctx context.Context, userID uuid.UUID) (storage.Backend, error) {
	return s.backend, nil
}

// fakeCache - no-op, đủ cho invalidation calls
type fakeCache struct{}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (c *fakeCache) Delete(ctx context.Context, keys ...string) error        { return nil }
func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (c *fakeCache) Ping(ctx context.Context) error                          { return nil }

// ============================================
// FIXTURES
// ============================================

const ingestTestOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Dune</dc:title>
    <dc:creator opf:role="aut">Frank Herbert</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

const ingestTestOPFWithCover = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>Dune</dc:title>
    <dc:creator opf:role="aut">Frank Herbert</dc:creator>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="cover-img" href="cover.jpg" media-type="image/jpeg"/>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
</package>`

const ingestTestContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

func writeTempZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), uuid.New().String()+".epub")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return path
}

// writeTempEPUB tạo một EPUB hợp lệ (không cover) ở path riêng cho mỗi test
func writeTempEPUB(t *testing.T) string {
	t.Helper()

	return writeTempZip(t, map[string][]byte{
		"mimetype":               []byte("application/epub+zip"),
		"META-INF/container.xml": []byte(ingestTestContainerXML),
		"content.opf":            []byte(ingestTestOPF),
		"chapter1.xhtml":         []byte("<html><body>ch1</body></html>"),
	})
}

// writeTempEPUBWithCover - như trên nhưng kèm một JPEG cover decode được
func writeTempEPUBWithCover(t *testing.T) string {
	t.Helper()

	return writeTempZip(t, map[string][]byte{
		"mimetype":               []byte("application/epub+zip"),
		"META-INF/container.xml": []byte(ingestTestContainerXML),
		"content.opf":            []byte(ingestTestOPFWithCover),
		"cover.jpg":              coverJPEG(t, 400, 600),
		"chapter1.xhtml":         []byte("<html><body>ch1</body></html>"),
	})
}

func coverJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 60, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func newIngestFixture(t *testing.T) (*fakeBookRepo, *IngestService, string) {
	t.Helper()

	repo := &fakeBookRepo{}
	backend := storage.NewFilesystemBackend(t.TempDir())
	svc := NewIngestService(repo, &fakeStorageService{backend: backend}, storage.NewCoverProcessor(), &fakeCache{}).(*IngestService)

	return repo, svc, writeTempEPUB(t)
}

func ingestPayload(tempPath, filename string) shared.IngestBookPayload {
	return shared.IngestBookPayload{
		BookID:           "0123456789ABC",
		UserID:           uuid.New().String(),
		TempPath:         tempPath,
		OriginalFilename: filename,
	}
}

// ============================================
// TESTS
// ============================================

func TestIngestSuccess(t *testing.T) {
	repo, svc, tempPath := newIngestFixture(t)
	p := ingestPayload(tempPath, "dune.epub")

	err := svc.Ingest(context.Background(), p)
	require.NoError(t, err)

	// queued -> processing, completed được ghi bởi FinalizeIngestion
	assert.Equal(t, []model.BookStatus{model.StatusProcessing}, repo.statusUpdates)

	require.NotNil(t, repo.finalized)
	assert.Equal(t, p.BookID, repo.finalized.ID)
	assert.Equal(t, "Dune", repo.finalized.Title)
	require.Len(t, repo.finalized.Authors, 1)
	assert.Equal(t, "Frank Herbert", repo.finalized.Authors[0].Name)
	require.NotNil(t, repo.finalized.Format)
	assert.Equal(t, model.FormatEPUB, *repo.finalized.Format)
	require.NotNil(t, repo.finalized.FileHash)
	assert.Len(t, *repo.finalized.FileHash, 32, "content hash is hex md5")
	require.NotNil(t, repo.finalized.FilePath)
	assert.FileExists(t, *repo.finalized.FilePath)
	require.NotNil(t, repo.finalized.FileSizeBytes)
	assert.Positive(t, *repo.finalized.FileSizeBytes)

	// Temp upload luôn bị xóa
	assert.NoFileExists(t, tempPath)
}

func TestIngestTitleFallsBackToFilename(t *testing.T) {
	repo, svc, _ := newIngestFixture(t)

	// MOBI không có metadata parser - title phải fallback về original filename
	tempPath := filepath.Join(t.TempDir(), "raw.mobi")
	require.NoError(t, os.WriteFile(tempPath, []byte("mobi-bytes"), 0o644))

	err := svc.Ingest(context.Background(), ingestPayload(tempPath, "desert-planet.mobi"))
	require.NoError(t, err)

	require.NotNil(t, repo.finalized)
	assert.Equal(t, "desert-planet.mobi", repo.finalized.Title)
	require.NotNil(t, repo.finalized.Format)
	assert.Equal(t, model.FormatMobiAZW, *repo.finalized.Format)
}

func TestIngestDuplicateContent(t *testing.T) {
	repo, svc, tempPath := newIngestFixture(t)
	repo.existingByHash = &model.Book{ID: "EXISTING123AB"}

	err := svc.Ingest(context.Background(), ingestPayload(tempPath, "dune.epub"))
	require.Error(t, err)
	assert.EqualError(t, err, model.FailureDuplicate)

	assert.Nil(t, repo.finalized)
	require.Contains(t, repo.statusUpdates, model.StatusFailed)
	require.Len(t, repo.failureMessages, 1)
	assert.Equal(t, model.FailureDuplicate, repo.failureMessages[0])
	assert.NoFileExists(t, tempPath)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	repo, svc, _ := newIngestFixture(t)

	tempPath := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(tempPath, []byte("plain text"), 0o644))

	err := svc.Ingest(context.Background(), ingestPayload(tempPath, "notes.txt"))
	require.Error(t, err)
	assert.EqualError(t, err, model.FailureUnsupported)

	assert.Nil(t, repo.finalized)
	require.Len(t, repo.failureMessages, 1)
	assert.Equal(t, model.FailureUnsupported, repo.failureMessages[0])
	assert.NoFileExists(t, tempPath)
}

func TestIngestDuplicateAtPersistTime(t *testing.T) {
	repo, svc, tempPath := newIngestFixture(t)
	repo.finalizeErr = model.ErrDuplicateHash
	repo.finalizeErrOnce = true

	err := svc.Ingest(context.Background(), ingestPayload(tempPath, "dune.epub"))
	require.Error(t, err)
	assert.EqualError(t, err, model.FailureDuplicate)

	// Thua race: failure được ghi, record không bao giờ completed
	require.Contains(t, repo.statusUpdates, model.StatusFailed)
	require.Len(t, repo.failureMessages, 1)
	assert.Equal(t, model.FailureDuplicate, repo.failureMessages[0])
	assert.NoFileExists(t, tempPath)
}

func TestIngestSkipsWhenRecordNotRunnable(t *testing.T) {
	repo, svc, tempPath := newIngestFixture(t)
	repo.updateStatusErr = errors.New("record is in terminal state")

	// Record đã terminal (hoặc bị xóa) → skip im lặng, không retry
	err := svc.Ingest(context.Background(), ingestPayload(tempPath, "dune.epub"))
	require.NoError(t, err)

	assert.Zero(t, repo.contentHashCalls, "pipeline must not run")
	assert.Nil(t, repo.finalized)
	assert.NoFileExists(t, tempPath, "temp upload is removed even when skipped")
}

func TestIngestInvalidUserID(t *testing.T) {
	repo, svc, tempPath := newIngestFixture(t)

	p := ingestPayload(tempPath, "dune.epub")
	p.UserID = "not-a-uuid"

	err := svc.Ingest(context.Background(), p)
	require.Error(t, err)

	require.Contains(t, repo.statusUpdates, model.StatusFailed)
	assert.NoFileExists(t, tempPath)
}

func TestIngestWithCoverStoresBothVariants(t *testing.T) {
	repo := &fakeBookRepo{}
	backend := storage.NewFilesystemBackend(t.TempDir())
	svc := NewIngestService(repo, &fakeStorageService{backend: backend}, storage.NewCoverProcessor(), &fakeCache{}).(*IngestService)

	p := ingestPayload(writeTempEPUBWithCover(t), "dune.epub")
	require.NoError(t, svc.Ingest(context.Background(), p))

	require.NotNil(t, repo.finalized)
	require.Len(t, repo.finalized.Covers, 2)

	// Record mang descriptor cho cả hai variants, theo thứ tự derive
	assert.Equal(t, storage.VariantOriginal, repo.finalized.Covers[0].Variant)
	assert.Equal(t, "original.jpg", repo.finalized.Covers[0].Filename)
	assert.Equal(t, storage.VariantThumbnail, repo.finalized.Covers[1].Variant)
	assert.Equal(t, "thumbnail.jpg", repo.finalized.Covers[1].Filename)

	// Từng variant phải fetch được qua backend dưới content key của book
	require.NotNil(t, repo.finalized.FileHash)
	for _, cover := range repo.finalized.Covers {
		path, err := backend.Fetch(context.Background(), p.UserID, *repo.finalized.FileHash, cover.Filename, storage.KindCover)
		require.NoError(t, err)
		assert.FileExists(t, path)
		assert.Equal(t, cover.FilePath, path)
	}
}

func TestIngestCrossUserDuplicateRaceRemovesCovers(t *testing.T) {
	repo := &fakeBookRepo{}
	backend := storage.NewFilesystemBackend(t.TempDir())
	svc := NewIngestService(repo, &fakeStorageService{backend: backend}, storage.NewCoverProcessor(), &fakeCache{}).(*IngestService)

	tempPath := writeTempEPUBWithCover(t)
	fileHash, err := utils.FileDigest(tempPath)
	require.NoError(t, err)

	// Winner thuộc user khác - covers của loser không share key với winner
	repo.finalizeErr = model.ErrDuplicateHash
	repo.finalizeErrOnce = true
	repo.raceWinner = &model.Book{ID: "EXISTING123AB", UserID: uuid.New()}

	p := ingestPayload(tempPath, "dune.epub")
	err = svc.Ingest(context.Background(), p)
	require.Error(t, err)
	assert.EqualError(t, err, model.FailureDuplicate)

	// Không còn object nào dưới namespace của loser
	_, err = backend.Fetch(context.Background(), p.UserID, fileHash, "original.jpg", storage.KindCover)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = backend.Fetch(context.Background(), p.UserID, fileHash, "thumbnail.jpg", storage.KindCover)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestIngestSameOwnerDuplicateRaceKeepsSharedCovers(t *testing.T) {
	repo := &fakeBookRepo{}
	backend := storage.NewFilesystemBackend(t.TempDir())
	svc := NewIngestService(repo, &fakeStorageService{backend: backend}, storage.NewCoverProcessor(), &fakeCache{}).(*IngestService)

	tempPath := writeTempEPUBWithCover(t)
	fileHash, err := utils.FileDigest(tempPath)
	require.NoError(t, err)

	ownerID := uuid.New()
	repo.finalizeErr = model.ErrDuplicateHash
	repo.finalizeErrOnce = true
	repo.raceWinner = &model.Book{ID: "EXISTING123AB", UserID: ownerID}

	p := ingestPayload(tempPath, "dune.epub")
	p.UserID = ownerID.String()
	err = svc.Ingest(context.Background(), p)
	require.Error(t, err)
	assert.EqualError(t, err, model.FailureDuplicate)

	// Winner cùng owner: covers nằm đúng key winner dùng, giữ nguyên
	for _, filename := range []string{"original.jpg", "thumbnail.jpg"} {
		path, err := backend.Fetch(context.Background(), p.UserID, fileHash, filename, storage.KindCover)
		require.NoError(t, err)
		assert.FileExists(t, path)
	}
}

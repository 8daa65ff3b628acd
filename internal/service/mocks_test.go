package service

import (
	"context"
	"fmt"
	"time"

	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetTierForUpdate(ctx context.Context, userID string) (domain.Tier, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Tier), args.Error(1)
}

func (m *MockUserRepository) UpdateTier(ctx context.Context, userID string, tier domain.Tier) error {
	args := m.Called(ctx, userID, tier)
	return args.Error(0)
}

// MockDomainRepository is a mock implementation of DomainRepositoryInterface
type MockDomainRepository struct {
	mock.Mock
}

func (m *MockDomainRepository) Create(ctx context.Context, d *domain.Domain) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDomainRepository) Get(ctx context.Context, userID, domainID string) (*domain.Domain, error) {
	args := m.Called(ctx, userID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Domain), args.Error(1)
}

func (m *MockDomainRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Domain, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Domain), args.Error(1)
}

func (m *MockDomainRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockDomainRepository) Rename(ctx context.Context, domainID, newName string) error {
	args := m.Called(ctx, domainID, newName)
	return args.Error(0)
}

func (m *MockDomainRepository) Delete(ctx context.Context, domainID string) (domain.DeleteDomainOutcome, error) {
	args := m.Called(ctx, domainID)
	return args.Get(0).(domain.DeleteDomainOutcome), args.Error(1)
}

// MockFileRepository is a mock implementation of FileRepositoryInterface
type MockFileRepository struct {
	mock.Mock
}

func (m *MockFileRepository) InsertBatch(ctx context.Context, files []*domain.File, units []domain.ContentUnit) error {
	args := m.Called(ctx, files, units)
	return args.Error(0)
}

func (m *MockFileRepository) ListByDomain(ctx context.Context, userID, domainID string) ([]*domain.File, error) {
	args := m.Called(ctx, userID, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.File), args.Error(1)
}

func (m *MockFileRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockFileRepository) GetContent(ctx context.Context, fileIDs []string) ([]ContentRow, [][]float32, error) {
	args := m.Called(ctx, fileIDs)
	var rows []ContentRow
	if args.Get(0) != nil {
		rows = args.Get(0).([]ContentRow)
	}
	var embeddings [][]float32
	if args.Get(1) != nil {
		embeddings = args.Get(1).([][]float32)
	}
	return rows, embeddings, args.Error(2)
}

func (m *MockFileRepository) Delete(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of SessionRepositoryInterface
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Ensure(ctx context.Context, userID, sessionID string) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *MockSessionRepository) DailyQuestionCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionRepository) TryIncrementQuestion(ctx context.Context, userID, sessionID string, limit int) (int, bool, error) {
	args := m.Called(ctx, userID, sessionID, limit)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockSessionRepository) Get(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockWorkingSetCache is a mock implementation of WorkingSetCacheInterface
type MockWorkingSetCache struct {
	mock.Mock
}

func (m *MockWorkingSetCache) SelectedDomain(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockWorkingSetCache) ClearSelectedDomain(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockWorkingSetCache) Publish(ctx context.Context, userID string, ws *domain.WorkingSet) error {
	args := m.Called(ctx, userID, ws)
	return args.Error(0)
}

func (m *MockWorkingSetCache) Get(ctx context.Context, userID string) (*domain.WorkingSet, bool, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.WorkingSet), args.Bool(1), args.Error(2)
}

func (m *MockWorkingSetCache) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockWorkingSetCache) RefreshTTL(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockWorkingSetCache) PutStagingEntry(ctx context.Context, userID string, entry *domain.StagingEntry) error {
	args := m.Called(ctx, userID, entry)
	return args.Error(0)
}

func (m *MockWorkingSetCache) ListStagingEntries(ctx context.Context, userID string) ([]*domain.StagingEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.StagingEntry), args.Error(1)
}

func (m *MockWorkingSetCache) DeleteStagingEntries(ctx context.Context, userID string, fileNames []string) error {
	args := m.Called(ctx, userID, fileNames)
	return args.Error(0)
}

// MockSentenceCipher is a mock implementation of SentenceCipher
type MockSentenceCipher struct {
	mock.Mock
}

func (m *MockSentenceCipher) Encrypt(plaintext, fileID string) ([]byte, error) {
	args := m.Called(plaintext, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSentenceCipher) Decrypt(ciphertext []byte, fileID string) (string, error) {
	args := m.Called(ciphertext, fileID)
	return args.String(0), args.Error(1)
}

// passthroughCipher maps plaintext to itself, so tests can assert on
// content without decoding.
type passthroughCipher struct{}

func (passthroughCipher) Encrypt(plaintext, fileID string) ([]byte, error) {
	return []byte(plaintext), nil
}

func (passthroughCipher) Decrypt(ciphertext []byte, fileID string) (string, error) {
	return string(ciphertext), nil
}

// MockExtractor is a mock implementation of Extractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ReadFile(ctx context.Context, name string, data []byte) (*ExtractedFile, error) {
	args := m.Called(ctx, name, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExtractedFile), args.Error(1)
}

// MockEmbedder is a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) CreateEmbeddingsFromSentences(ctx context.Context, sentences []string) ([][]float32, error) {
	args := m.Called(ctx, sentences)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockURLFetcher is a mock implementation of URLFetcher
type MockURLFetcher struct {
	mock.Mock
}

func (m *MockURLFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockSearchEngine is a mock implementation of SearchEngine
type MockSearchEngine struct {
	mock.Mock
}

func (m *MockSearchEngine) FilterSearch(content []domain.WorkingSetUnit, embeddings [][]float32, fileIDs []string) (*FilteredIndex, error) {
	args := m.Called(content, embeddings, fileIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FilteredIndex), args.Error(1)
}

func (m *MockSearchEngine) SearchIndex(ctx context.Context, query string, idx *FilteredIndex) (*SearchAnswer, error) {
	args := m.Called(ctx, query, idx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SearchAnswer), args.Error(1)
}

// MockUploadArchiver is a mock implementation of UploadArchiver
type MockUploadArchiver struct {
	mock.Mock
}

func (m *MockUploadArchiver) Archive(ctx context.Context, userID, fileName string, data []byte) error {
	args := m.Called(ctx, userID, fileName, data)
	return args.Error(0)
}

// MockUUIDGenerator is a mock implementation of UUIDGenerator
type MockUUIDGenerator struct {
	mock.Mock
}

func (m *MockUUIDGenerator) NewString() string {
	args := m.Called()
	return args.String(0)
}

// seqUUIDGenerator hands out "id-1", "id-2", ... deterministically.
type seqUUIDGenerator struct {
	n int
}

func (g *seqUUIDGenerator) NewString() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// stubTxRepositories binds mocks into a TxRepositories view.
type stubTxRepositories struct {
	users    UserRepositoryInterface
	domains  DomainRepositoryInterface
	files    FileRepositoryInterface
	sessions SessionRepositoryInterface
}

func (s *stubTxRepositories) Users() UserRepositoryInterface       { return s.users }
func (s *stubTxRepositories) Domains() DomainRepositoryInterface   { return s.domains }
func (s *stubTxRepositories) Files() FileRepositoryInterface       { return s.files }
func (s *stubTxRepositories) Sessions() SessionRepositoryInterface { return s.sessions }

// stubTxRunner runs the transaction function against the stub
// repositories without a database, counting invocations so tests can
// assert a write actually went through the transactional path.
type stubTxRunner struct {
	repos *stubTxRepositories
	calls int
}

func (r *stubTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	r.calls++
	return fn(r.repos)
}

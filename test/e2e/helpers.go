//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/doclink-ai/doclink/internal/api/handlers"
	"github.com/doclink-ai/doclink/internal/cache"
	"github.com/doclink-ai/doclink/internal/cryptox"
	"github.com/doclink-ai/doclink/internal/domain"
	"github.com/doclink-ai/doclink/internal/extract"
	"github.com/doclink-ai/doclink/internal/repository"
	"github.com/doclink-ai/doclink/internal/server"
	"github.com/doclink-ai/doclink/internal/service"
	"github.com/doclink-ai/doclink/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests. The AI engines
// are stubbed; everything else runs against real containers.
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RedisC       *testutil.RedisContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	UserID       string
	AuthToken    string
	HTTPClient   *http.Client

	userSvc *service.UserService
	auth    *service.TokenAuthenticator
}

const e2eAuthSecret = "e2e-test-secret"

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	redisC := testutil.NewRedisContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	redisClient, err := cache.NewClient(ctx, redisC.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser, userSvc, auth := startServer(t, pool, redisClient, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RedisC:       redisC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		userSvc:      userSvc,
		auth:         auth,
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RedisC != nil {
		e.RedisC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Bootstrap provisions an account the way the admin CLI does and mints
// a bearer token for it.
func (e *E2ETestEnv) Bootstrap() {
	email := fmt.Sprintf("e2e-%d@example.com", rand.Int63())
	u, err := e.userSvc.EnsureUser(e.Ctx, "", "E2E", "Tester", email)
	if err != nil {
		e.T.Fatalf("failed to provision user: %v", err)
	}
	e.UserID = u.ID
	e.AuthToken = e.auth.MintToken(u.ID)
}

// MintTokenFor returns a signed token for an arbitrary user ID.
func (e *E2ETestEnv) MintTokenFor(userID string) string {
	return e.auth.MintToken(userID)
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, authToken string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, authToken)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, authToken)
}

// Put performs a PUT request
func (e *E2ETestEnv) Put(path string, body interface{}, authToken string) (*APIResponse, error) {
	return e.doRequest("PUT", path, body, authToken)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path, authToken string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil, authToken)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, authToken string) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	req.Header.Set("Content-Type", "application/json")

	return e.send(req)
}

// PostFile uploads content as a multipart file to path.
func (e *E2ETestEnv) PostFile(path, fileName string, content []byte, authToken string) (*APIResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", e.ServerURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return e.send(req)
}

func (e *E2ETestEnv) send(req *http.Request) (*APIResponse, error) {
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer wires the full service stack with stub AI engines and
// starts an HTTP server on port.
func startServer(t *testing.T, pool *pgxpool.Pool, redisClient *redis.Client, port int) (string, func(), *service.UserService, *service.TokenAuthenticator) {
	workingSetCache := cache.NewWorkingSetCache(redisClient, 15*time.Minute, 10*time.Minute)

	cipher, err := cryptox.NewEncryptorFromPassphrase("e2e-content-key", "e2e-content-salt")
	if err != nil {
		t.Fatalf("failed to build cipher: %v", err)
	}

	userRepo := repository.NewUserRepository(pool)
	domainRepo := repository.NewDomainRepository(pool)
	fileRepo := repository.NewFileRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	uuidGen := &service.DefaultUUIDGenerator{}
	quota := service.NewQuotaLedger(userRepo, sessionRepo)
	activationSvc := service.NewActivationService(domainRepo, fileRepo, workingSetCache, cipher)
	uploadSvc := service.NewUploadService(txRunner, quota, activationSvc, workingSetCache,
		extract.New(), stubEmbedder{}, extract.NewHTTPFetcher(), cipher, nil, uuidGen, 25*1024*1024)
	answerSvc := service.NewAnswerService(activationSvc, quota, sessionRepo, stubSearchEngine{})
	domainSvc := service.NewDomainService(txRunner, domainRepo, fileRepo, quota, activationSvc, uuidGen)
	userSvc := service.NewUserService(txRunner, userRepo, domainRepo, fileRepo, sessionRepo, quota, uuidGen)
	auth := service.NewTokenAuthenticator(e2eAuthSecret, userRepo)

	router := server.NewRouter(server.RouterConfig{
		TokenValidator: auth,
		UserHandler:    handlers.NewUserHandler(userSvc),
		DomainHandler:  handlers.NewDomainHandler(domainSvc, activationSvc),
		UploadHandler:  handlers.NewUploadHandler(uploadSvc),
		AnswerHandler:  handlers.NewAnswerHandler(answerSvc),
		MaxBodyBytes:   25 * 1024 * 1024,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	closer := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return serverURL, closer, userSvc, auth
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// stubEmbedder produces deterministic embeddings sized for the
// file_content vector column, so commits exercise the real store.
type stubEmbedder struct{}

func (stubEmbedder) CreateEmbeddingsFromSentences(_ context.Context, sentences []string) ([][]float32, error) {
	out := make([][]float32, len(sentences))
	for i, s := range sentences {
		vec := make([]float32, 1536)
		for j, r := range s {
			vec[j%1536] += float32(r%13) / 13
		}
		out[i] = vec
	}
	return out, nil
}

// stubSearchEngine answers by quoting the first sentence of the
// filtered index. The file filtering itself is real set membership.
type stubSearchEngine struct{}

func (stubSearchEngine) FilterSearch(content []domain.WorkingSetUnit, embeddings [][]float32, fileIDs []string) (*service.FilteredIndex, error) {
	allowed := make(map[string]bool, len(fileIDs))
	for _, id := range fileIDs {
		allowed[id] = true
	}
	idx := &service.FilteredIndex{}
	for i, unit := range content {
		if !allowed[unit.FileID] {
			continue
		}
		idx.Content = append(idx.Content, unit)
		if i < len(embeddings) {
			idx.Embeddings = append(idx.Embeddings, embeddings[i])
		}
	}
	return idx, nil
}

func (stubSearchEngine) SearchIndex(_ context.Context, query string, idx *service.FilteredIndex) (*service.SearchAnswer, error) {
	if len(idx.Content) == 0 {
		return &service.SearchAnswer{Answer: "I could not find anything relevant."}, nil
	}
	first := idx.Content[0]
	return &service.SearchAnswer{
		Answer:            fmt.Sprintf("Regarding %q: %s", strings.TrimSpace(query), first.Sentence),
		Resources:         []string{first.FileName},
		ResourceSentences: []string{first.Sentence},
	}, nil
}

//go:build integration

package integration

// Test environment setup and server lifecycle management.
//
// The integration tests start the walletpass HTTP server with a temporary database and run tests against it.
// Each test creates an empty temporary database and applies all the migrations so the schema reflects the latest code.
// The database is dropped after each test.
//
// Fresh signer and recipient key pairs are generated for every test; the recipient private key is kept
// in the test environment so issued envelopes can be opened. Callback notifications are verified
// with the built-in HMS callback key unless the test serves its own JWKS.
//
// By default the server logs are not included in the test output, you can enable them with:
//
//	ENABLE_SERVER_LOGS=true go test -tags=integration -v ./test/integration

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/walletkit-demo/walletpass/internal/config"
	"github.com/walletkit-demo/walletpass/internal/crypto"
	"github.com/walletkit-demo/walletpass/internal/database"
	"github.com/walletkit-demo/walletpass/internal/logger"
	"github.com/walletkit-demo/walletpass/internal/server"
)

const testAppID = "5800000000000000"

// testEnv provides access to test db and server for integration tests
type testEnv struct {
	baseURL  string
	cfg      *config.ServerEnvironment
	pool     *pgxpool.Pool
	queries  *database.Queries
	shutdown func()

	signer       *rsa.PrivateKey
	recipientKey *rsa.PrivateKey
}

// serverOptions changes the defaults used by startInProcessServer
type serverOptions struct {
	// callbackJWKSURL sets CALLBACK_JWKS_URL (the built-in callback key is used when empty)
	callbackJWKSURL string
}

// startInProcessServer starts walletpass-server in-process for testing.
// The returned testEnv holds the base URL for the API and a shutdown function.
func startInProcessServer(t *testing.T, opts serverOptions) *testEnv {
	t.Helper()

	testEnv := &testEnv{}

	t.Log("Starting in-process server...")

	var (
		ctx         = context.Background()
		host        = "localhost"
		port        = findFreePort(t)
		environment = "test"
		keysDir     = t.TempDir()
	)

	testEnv.signer, testEnv.recipientKey = generateTestKeys(t, keysDir)

	// configure db
	testEnv.pool = setupTestDatabase(t)
	testDatabaseURL := testEnv.pool.Config().ConnString()

	testEnvVars := map[string]string{
		"HOST":           host,
		"PORT":           fmt.Sprintf("%d", port),
		"ENVIRONMENT":    environment,
		"RATE_LIMIT_RPS": "0",
		"DATABASE_URL":   testDatabaseURL,
		"RUN_MIGRATIONS": "false",

		"APP_ID":             testAppID,
		"WALLET_REGION":      "dre",
		"KEYS_DIR":           keysDir,
		"SIGNING_KEY_FILE":   "signer.private.pem",
		"RECIPIENT_KEY_FILE": "recipient.public.pem",
		"CALLBACK_KEY_FILE":  "",
		"CALLBACK_JWKS_URL":  opts.callbackJWKSURL,

		"JWK_CACHE_WAIT_READY": "true",
	}

	// t.Setenv restores the original values when the test completes
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}

	cfg, err := config.NewServerConfig()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	testEnv.queries = database.New(testEnv.pool)

	logLevel := logger.ParseLogLevel("none")
	if os.Getenv("ENABLE_SERVER_LOGS") == "true" {
		logLevel = logger.ParseLogLevel("debug")
	}
	appLogger := logger.InitLogger(logLevel, environment)

	// Create a cancellable context for server shutdown
	serverCtx, serverCancel := context.WithCancel(ctx)

	serverInstance, err := server.NewServer(
		testEnv.pool,
		testEnv.queries,
		cfg,
		appLogger,
		serverCtx,
	)
	if err != nil {
		serverCancel()
		t.Fatalf("Failed to create server: %v", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := serverInstance.Start(serverCtx); err != nil {
			serverDone <- err
		}
	}()

	testEnv.shutdown = func() {
		t.Log("Stopping server...")

		// Cancel the server context to trigger graceful shutdown
		serverCancel()

		select {
		case err := <-serverDone:
			if err != nil {
				t.Logf("❌ Server shutdown with error: %v", err)
			} else {
				t.Log("✅ Server shut down gracefully")
			}
		case <-time.After(5 * time.Second):
			t.Log("⚠️ Server shutdown timeout")
		}

		serverInstance.DatabaseShutdown()
	}

	testEnv.baseURL = fmt.Sprintf("http://localhost:%d", port)
	testEnv.cfg = cfg

	if !waitForServer(t, testEnv.baseURL+"/health/live", 30*time.Second) {
		t.Fatal("Server failed to start within timeout")
	}

	t.Logf("✅ Server started at %s", testEnv.baseURL)
	return testEnv
}

// generateTestKeys writes signer.private.pem and recipient.public.pem to keysDir
func generateTestKeys(t *testing.T, keysDir string) (signer, recipient *rsa.PrivateKey) {
	t.Helper()

	var err error
	if signer, err = crypto.GenerateRSAKeyPair(2048); err != nil {
		t.Fatalf("failed to generate signer key: %v", err)
	}
	if recipient, err = crypto.GenerateRSAKeyPair(2048); err != nil {
		t.Fatalf("failed to generate recipient key: %v", err)
	}
	if err := crypto.SaveRSAPrivateKeyToPEMFile(signer, keysDir, "signer.private.pem"); err != nil {
		t.Fatalf("failed to save signer key: %v", err)
	}
	if err := crypto.SaveRSAPublicKeyToPEMFile(&recipient.PublicKey, keysDir, "recipient.public.pem"); err != nil {
		t.Fatalf("failed to save recipient key: %v", err)
	}
	return signer, recipient
}

func findFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer listener.Close()

	addr := listener.Addr().(*net.TCPAddr)
	return addr.Port
}

func waitForServer(t *testing.T, url string, timeout time.Duration) bool {
	t.Helper()

	client := &http.Client{Timeout: 1 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// Test database configuration

type databaseConfig struct {
	userAndPassword string
	dbname          string
	host            string
	port            int
}

func (d *databaseConfig) connectionURL() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s?sslmode=disable",
		d.userAndPassword, d.host, d.port, d.dbname)
}

func (d *databaseConfig) WithDatabase(dbname string) *databaseConfig {
	return &databaseConfig{
		userAndPassword: d.userAndPassword,
		host:            d.host,
		port:            d.port,
		dbname:          dbname,
	}
}

func localDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "walletpass-dev",
		dbname:          "tmp_walletpass_integration_test",
		host:            "localhost",
		port:            15433,
	}
}

func ciDatabaseConfig() *databaseConfig {
	return &databaseConfig{
		userAndPassword: "postgres:postgres",
		dbname:          "tmp_walletpass_integration_test",
		host:            "localhost",
		port:            5432,
	}
}

// setupTestDatabase creates an empty test db, applies migrations and returns a connection pool.
// It auto-detects if it is running in CI (github actions) and uses the appropriate database config.
func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	var config databaseConfig

	if os.Getenv("GITHUB_ACTIONS") == "true" {
		config = *ciDatabaseConfig()
	} else {
		config = *localDatabaseConfig()
	}

	// connect to the postgres database to create the test database
	postgresConnectionURL := config.WithDatabase("postgres").connectionURL()

	// this pool stays open until the test database has been dropped
	postgresPool, err := pgxpool.New(ctx, postgresConnectionURL)
	if err != nil {
		t.Fatalf("Unable to create postgres connection pool: %v", err)
	}
	t.Cleanup(postgresPool.Close)

	if err := postgresPool.Ping(ctx); err != nil {
		t.Fatalf("Can't ping PostgreSQL server %s", postgresConnectionURL)
	}

	if _, err = postgresPool.Exec(ctx, "DROP DATABASE IF EXISTS "+config.dbname); err != nil {
		t.Fatalf("DROP DATABASE IF EXISTS Failed : %v", err)
	}
	if _, err = postgresPool.Exec(ctx, "CREATE DATABASE "+config.dbname); err != nil {
		t.Fatalf("CREATE DATABASE Failed : %v", err)
	}

	// drop the test database when the test is complete (registered after the pool close so it runs first)
	t.Cleanup(func() {
		if _, err := postgresPool.Exec(ctx, "DROP DATABASE "+config.dbname+" WITH (FORCE)"); err != nil {
			t.Errorf("Failed to drop test database: %v", err)
		}
	})

	testDatabasePool := setupDatabaseConn(t, config.connectionURL())

	if err := database.Migrate(ctx, testDatabasePool); err != nil {
		t.Fatalf("Failed to apply database migrations: %v", err)
	}

	t.Logf("Database ready: %s", config.dbname)

	return testDatabasePool
}

func setupDatabaseConn(t *testing.T, databaseURL string) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		t.Fatalf("Failed to parse database URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("Unable to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

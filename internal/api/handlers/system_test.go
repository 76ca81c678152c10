package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/testutil"
)

func TestSystemHandler_Health(t *testing.T) {
	setupHandler := func(t *testing.T) (*SystemHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		ss := testutil.NewTestSystemService(t, db)
		return NewSystemHandler(ss), db
	}

	t.Run("returns healthy status when database is connected", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		w := httptest.NewRecorder()

		handler.Health(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response HealthResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Status != "healthy" {
			t.Errorf("Expected status 'healthy', got '%s'", response.Status)
		}
		if response.Database != "connected" {
			t.Errorf("Expected database 'connected', got '%s'", response.Database)
		}
		if response.Error != "" {
			t.Errorf("Expected no error, got '%s'", response.Error)
		}
	})

	t.Run("returns 503 when database is disconnected", func(t *testing.T) {
		handler, db := setupHandler(t)

		// Close the database connection to simulate failure
		db.Close()

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		w := httptest.NewRecorder()

		handler.Health(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestSystemHandler_Version(t *testing.T) {
	t.Run("returns version information successfully", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewSystemHandler(testutil.NewTestSystemService(t, db, "brapi", "yahoo"))

		req := httptest.NewRequest(http.MethodGet, "/api/system/version", nil)
		w := httptest.NewRecorder()

		handler.Version(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.VersionInfo
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.AppVersion == "" {
			t.Error("Expected app_version to be populated")
		}
		if response.DbVersion == "" || response.DbVersion == "0" {
			t.Errorf("Expected migrated db_version, got %q", response.DbVersion)
		}
		if response.MigrationNeeded {
			t.Error("Expected no pending migration on a freshly migrated database")
		}
		if len(response.Providers) != 2 || response.Providers[0] != "brapi" {
			t.Errorf("Expected providers [brapi yahoo], got %v", response.Providers)
		}
		if !response.Features["mirror"] {
			t.Error("Expected mirror feature to be reported")
		}
	})

	// WHY: the pending count tells the user that local changes have not reached the mirror yet.
	t.Run("reports entries waiting for the mirror", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := NewSystemHandler(testutil.NewTestSystemService(t, db))
		ts := testutil.NewTestTransactionService(t, db)

		if _, err := ts.CreateTransactions(context.Background(), []model.Transaction{
			testutil.NewTransaction("PETR4").Model(),
			testutil.NewTransaction("VALE3").Model(),
		}); err != nil {
			t.Fatalf("Failed to create transactions: %v", err)
		}

		w := httptest.NewRecorder()
		handler.Version(w, httptest.NewRequest(http.MethodGet, "/api/system/version", nil))

		var response model.VersionInfo
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.PendingSync != 2 {
			t.Errorf("Expected pending_sync 2, got %d", response.PendingSync)
		}
	})
}

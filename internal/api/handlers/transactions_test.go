package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bolsamaster/bolsamaster-backend/internal/api/response"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/testutil"
)

func newTransactionHandler(t *testing.T) *TransactionHandler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewTransactionHandler(testutil.NewTestTransactionService(t, db))
}

// uploadRequest builds a multipart request with body stored under the "file" part.
func uploadRequest(t *testing.T, filename, body string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/transaction/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("creates entry and returns 201", func(t *testing.T) {
		handler := newTransactionHandler(t)

		body := `{"date":"2024-01-10","ticker":"petr4","type":"buy","quantity":100,"price":"30","costs":"10"}`
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var got model.TransactionResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&got)

		if got.Ticker != "PETR4" || got.Type != "BUY" {
			t.Errorf("Expected normalised PETR4 BUY, got %s %s", got.Ticker, got.Type)
		}
		if got.ID == "" {
			t.Error("Expected an ID to be assigned")
		}
		if got.Date != "2024-01-10" {
			t.Errorf("Expected date 2024-01-10, got %s", got.Date)
		}
	})

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing date", `{"ticker":"PETR4","type":"BUY","quantity":1,"price":1}`, "date"},
		{"unknown type", `{"date":"2024-01-10","ticker":"PETR4","type":"SPLIT","quantity":1,"price":1}`, "type"},
		{"zero quantity buy", `{"date":"2024-01-10","ticker":"PETR4","type":"BUY","quantity":0,"price":1}`, "quantity"},
		{"negative costs", `{"date":"2024-01-10","ticker":"PETR4","type":"BUY","quantity":1,"price":1,"costs":-1}`, "costs"},
		{"negative price", `{"date":"2024-01-10","ticker":"PETR4","type":"SELL","quantity":1,"price":-1}`, "price"},
		{"dividend costs above amount", `{"date":"2024-01-10","ticker":"MXRF11","type":"DIVIDEND","quantity":1,"price":5,"costs":6}`, "costs"},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			handler := newTransactionHandler(t)

			req := httptest.NewRequest(http.MethodPost, "/api/transaction", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.CreateTransaction(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.field) {
				t.Errorf("Expected error to mention %q, got %s", tt.field, w.Body.String())
			}
		})
	}

	// WHY: Bonus shares enter the ledger at price zero and must not be
	// rejected at ingestion.
	t.Run("accepts zero-price buy", func(t *testing.T) {
		handler := newTransactionHandler(t)

		body := `{"date":"2024-02-01","ticker":"ITSA4","type":"BUY","quantity":10,"price":0}`
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var got model.TransactionResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&got)

		if got.Price != 0 {
			t.Errorf("Expected price 0, got %v", got.Price)
		}
	})

	t.Run("returns 400 for malformed JSON", func(t *testing.T) {
		handler := newTransactionHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/api/transaction", strings.NewReader(`{"date":`))
		w := httptest.NewRecorder()

		handler.CreateTransaction(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestTransactionHandler_GetAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewTransactionHandler(testutil.NewTestTransactionService(t, db))
	entry := testutil.CreateBuy(t, db, "VALE3", "2024-01-10", 10, 60)

	t.Run("lists the ledger", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.AllTransactions(w, httptest.NewRequest(http.MethodGet, "/api/transaction", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var got []model.TransactionResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&got)
		if len(got) != 1 || got[0].ID != entry.ID {
			t.Errorf("Expected the single VALE3 entry, got %+v", got)
		}
	})

	t.Run("gets entry by id", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/transaction/"+entry.ID, map[string]string{"uuid": entry.ID})
		w := httptest.NewRecorder()

		handler.GetTransaction(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		id := testutil.MakeID()
		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/transaction/"+id, map[string]string{"uuid": id})
		w := httptest.NewRecorder()

		handler.GetTransaction(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("deletes entry", func(t *testing.T) {
		req := testutil.NewRequestWithURLParams(http.MethodDelete, "/api/transaction/"+entry.ID, map[string]string{"uuid": entry.ID})
		w := httptest.NewRecorder()

		handler.DeleteTransaction(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
		}

		w = httptest.NewRecorder()
		handler.DeleteTransaction(w, testutil.NewRequestWithURLParams(http.MethodDelete, "/", map[string]string{"uuid": entry.ID}))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404 on second delete, got %d", w.Code)
		}
	})
}

func TestTransactionHandler_ImportTransactions(t *testing.T) {
	t.Run("imports valid rows and reports rejected ones", func(t *testing.T) {
		handler := newTransactionHandler(t)

		csv := "Ativo;Quantidade;Preço Médio\nPETR4;100;30,50\nVALE3;0;60,00\n"
		w := httptest.NewRecorder()

		handler.ImportTransactions(w, uploadRequest(t, "carteira.csv", csv))

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var got model.ImportResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&got)

		if got.Imported != 1 || got.Transactions[0].Ticker != "PETR4" {
			t.Errorf("Expected PETR4 to be imported, got %+v", got)
		}
		if got.Transactions[0].Price != 30.5 {
			t.Errorf("Expected price 30.5, got %v", got.Transactions[0].Price)
		}
		if len(got.Rejected) != 1 || got.Rejected[0].Ticker != "VALE3" {
			t.Errorf("Expected VALE3 to be rejected, got %+v", got.Rejected)
		}
	})

	t.Run("returns 415 for pdf", func(t *testing.T) {
		handler := newTransactionHandler(t)
		w := httptest.NewRecorder()

		handler.ImportTransactions(w, uploadRequest(t, "nota.pdf", "%PDF-1.4"))

		if w.Code != http.StatusUnsupportedMediaType {
			t.Errorf("Expected 415, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 422 when nothing can be imported", func(t *testing.T) {
		handler := newTransactionHandler(t)
		w := httptest.NewRecorder()

		handler.ImportTransactions(w, uploadRequest(t, "notes.txt", "nothing to see here\n"))

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected 422, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 without file part", func(t *testing.T) {
		handler := newTransactionHandler(t)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		//nolint:errcheck // Test setup
		mw.WriteField("note", "no file")
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/transaction/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()

		handler.ImportTransactions(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
		var errResp response.ErrorResponse
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&errResp)
		if errResp.Error != "invalid upload" {
			t.Errorf("Expected 'invalid upload', got %q", errResp.Error)
		}
	})
}

func TestTransactionHandler_Tickers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewTransactionHandler(testutil.NewTestTransactionService(t, db))
	testutil.CreateBuy(t, db, "PETZ3", "2024-01-10", 10, 5)

	req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/transaction/tickers", map[string]string{"prefix": "pet"})
	w := httptest.NewRecorder()

	handler.Tickers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var got []string
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&got)

	want := []string{"PETZ3", "PETR4", "PETR3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

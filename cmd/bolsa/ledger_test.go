package main

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddCmd_Request(t *testing.T) {
	t.Run("accepts brazilian number format", func(t *testing.T) {
		c := &addCmd{date: "2024-01-10", ticker: "petr4", kind: "buy", quantity: "100", price: "1.234,56", costs: "0"}

		req, err := c.request()
		if err != nil {
			t.Fatalf("request() returned unexpected error: %v", err)
		}
		if !req.Price.Equal(decimal.RequireFromString("1234.56")) {
			t.Errorf("Expected price 1234.56, got %s", req.Price)
		}
	})

	// WHY: the CLI must reject the same entries the API rejects.
	t.Run("rejects sell without quantity", func(t *testing.T) {
		c := &addCmd{date: "2024-01-10", ticker: "PETR4", kind: "sell", price: "30", costs: "0"}

		if _, err := c.request(); err == nil {
			t.Error("Expected validation error")
		}
	})

	t.Run("dividend without quantity is valid", func(t *testing.T) {
		c := &addCmd{date: "2024-01-10", ticker: "MXRF11", kind: "dividend", price: "12,50", costs: "0"}

		req, err := c.request()
		if err != nil {
			t.Fatalf("request() returned unexpected error: %v", err)
		}
		if !req.Quantity.IsZero() {
			t.Errorf("Expected quantity to be left for the service to default, got %s", req.Quantity)
		}
	})

	t.Run("reports malformed numbers", func(t *testing.T) {
		c := &addCmd{date: "2024-01-10", ticker: "PETR4", kind: "buy", quantity: "ten", price: "30", costs: "0"}

		if _, err := c.request(); err == nil {
			t.Error("Expected parse error")
		}
	})
}

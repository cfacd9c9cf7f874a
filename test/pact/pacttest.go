//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "checkout-api"
	ConsumerName = "storefront"

	StateProductStocked     = "product 7 has 10 units in stock"
	StateProductMostlyHeld  = "product 7 has 3 units available"
	StateReservationMissing = "no reservation with id missing-reservation"
	StateCouponSave10       = "coupon SAVE10 gives 10 percent"
)

const (
	StockedProductID int64 = 7
	StockedTotal     int64 = 10

	ExampleReservationID = "6f1c2f7e-6a51-4c43-9d0e-7d9e3b1a8c11"
	MissingReservationID = "missing-reservation"
	ExampleCouponCode    = "SAVE10"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleReservationRequest asks for quantity units of the stocked product.
func ExampleReservationRequest(quantity int64) map[string]any {
	return map[string]any{
		"productId":   StockedProductID,
		"quantity":    quantity,
		"requesterId": "cart-pact",
	}
}

// ExampleQuoteRequest prices one 50.00 item with the example coupon and express shipping.
func ExampleQuoteRequest() map[string]any {
	return map[string]any{
		"order": map[string]any{
			"currency": "USD",
			"lines": []map[string]any{
				{"productId": StockedProductID, "quantity": 1, "unitPrice": "50.00", "category": "home"},
			},
		},
		"couponCode":     ExampleCouponCode,
		"shippingMethod": "express",
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

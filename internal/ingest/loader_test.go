package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/Uric01/machine-learning/internal/models"
)

func TestLoadMissingColumns(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		missing []string
	}{
		{"both missing", "id,when\n1,2023-01-01\n", []string{"customer_id", "date"}},
		{"date missing", "customer_id,when\n1,2023-01-01\n", []string{"date"}},
		{"customer_id missing", "cust,date\n1,2023-01-01\n", []string{"customer_id"}},
		{"case sensitive", "Customer_ID,Date\n1,2023-01-01\n", []string{"customer_id", "date"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.header))
			var schemaErr *models.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			for _, col := range tc.missing {
				if !strings.Contains(schemaErr.Error(), col) {
					t.Fatalf("error %q does not name column %q", schemaErr.Error(), col)
				}
			}
		})
	}
}

func TestLoadRejectsUnparseableDate(t *testing.T) {
	// One bad cell among many valid rows rejects the whole dataset.
	var b strings.Builder
	b.WriteString("customer_id,date\n")
	for i := 0; i < 100; i++ {
		b.WriteString("C1,2023-01-01\n")
	}
	b.WriteString("C2,not-a-date\n")

	_, err := Load(strings.NewReader(b.String()))
	var dateErr *models.DateParseError
	if !errors.As(err, &dateErr) {
		t.Fatalf("expected DateParseError, got %v", err)
	}
	if dateErr.BadRows != 1 {
		t.Fatalf("expected 1 bad row, got %d", dateErr.BadRows)
	}
}

func TestLoadRejectsEmptyDateCell(t *testing.T) {
	input := "customer_id,date\nC1,2023-01-01\nC2,\n"
	_, err := Load(strings.NewReader(input))
	var dateErr *models.DateParseError
	if !errors.As(err, &dateErr) {
		t.Fatalf("expected DateParseError for empty date cell, got %v", err)
	}
}

func TestLoadDropsRowsWithoutCustomerID(t *testing.T) {
	input := "customer_id,date\nC1,2023-01-01\n,2023-01-02\nC2,2023-01-03\n"
	txs, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 rows after cleanup, got %d", len(txs))
	}
	if txs[0].CustomerID != "C1" || txs[1].CustomerID != "C2" {
		t.Fatalf("unexpected rows: %#v", txs)
	}
}

func TestLoadEmptyAfterCleanup(t *testing.T) {
	input := "customer_id,date\n,2023-01-01\n,2023-01-02\n"
	_, err := Load(strings.NewReader(input))
	var emptyErr *models.EmptyDatasetError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyDatasetError, got %v", err)
	}
}

func TestLoadIgnoresExtraColumns(t *testing.T) {
	input := "order_id,customer_id,amount,date\n7,C1,19.99,2023-01-01\n"
	txs, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 || txs[0].CustomerID != "C1" {
		t.Fatalf("unexpected rows: %#v", txs)
	}
}

func TestLoadPermissiveDateLayouts(t *testing.T) {
	input := "customer_id,date\nC1,2023-01-01\nC2,2023/01/15\nC3,2023-01-20 10:30:00\n"
	txs, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(txs))
	}
}

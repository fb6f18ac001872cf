package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Uric01/machine-learning/internal/models"
)

// Required column names, matched case-sensitively against the CSV header.
const (
	ColumnCustomerID = "customer_id"
	ColumnDate       = "date"
)

// dateLayouts are tried in order for every date cell. A cell that matches
// none of them counts as unparseable.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// Load parses a CSV transaction log and validates it against the required
// schema. Any unparseable date rejects the whole dataset; rows with a
// missing customer_id are silently dropped afterwards.
func Load(r io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &models.EmptyDatasetError{}
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	customerIdx, dateIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case ColumnCustomerID:
			customerIdx = i
		case ColumnDate:
			dateIdx = i
		}
	}
	var missing []string
	if customerIdx < 0 {
		missing = append(missing, ColumnCustomerID)
	}
	if dateIdx < 0 {
		missing = append(missing, ColumnDate)
	}
	if len(missing) > 0 {
		return nil, &models.SchemaError{Missing: missing}
	}

	var (
		txs      []models.Transaction
		badDates int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if customerIdx >= len(record) || dateIdx >= len(record) {
			badDates++
			continue
		}
		date, ok := parseDate(record[dateIdx])
		if !ok {
			badDates++
			continue
		}
		txs = append(txs, models.Transaction{
			CustomerID: strings.TrimSpace(record[customerIdx]),
			Date:       date,
		})
	}

	// All-or-nothing date policy: a single bad cell rejects the dataset.
	if badDates > 0 {
		return nil, &models.DateParseError{BadRows: badDates}
	}

	cleaned := txs[:0]
	for _, tx := range txs {
		if tx.CustomerID == "" {
			continue
		}
		cleaned = append(cleaned, tx)
	}
	if len(cleaned) == 0 {
		return nil, &models.EmptyDatasetError{}
	}
	return cleaned, nil
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

package report

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"

	"github.com/Uric01/machine-learning/internal/bgnbd"
	"github.com/Uric01/machine-learning/internal/models"
)

func testModel() *bgnbd.Model {
	return &bgnbd.Model{
		Params:        bgnbd.Params{R: 0.243, Alpha: 4.414, A: 0.793, B: 2.426},
		PenalizerCoef: 0.1,
	}
}

func TestHeatmapDimensions(t *testing.T) {
	summaries := []models.CustomerSummary{
		{CustomerID: "A", Frequency: 3, Recency: 8, T: 10.4},
		{CustomerID: "B", Frequency: 1, Recency: 2, T: 6},
		{CustomerID: "C", Frequency: 0, Recency: 0, T: 4},
	}
	grid := Heatmap(testModel(), summaries)
	if grid.Horizon != 30 {
		t.Fatalf("horizon = %v, want 30", grid.Horizon)
	}
	if len(grid.Recency) != 11 { // 0..floor(10.4)
		t.Fatalf("recency axis length %d, want 11", len(grid.Recency))
	}
	if len(grid.Frequency) != 4 { // 0..3
		t.Fatalf("frequency axis length %d, want 4", len(grid.Frequency))
	}
	if len(grid.Values) != 11 || len(grid.Values[0]) != 4 {
		t.Fatalf("values shape %dx%d, want 11x4", len(grid.Values), len(grid.Values[0]))
	}
	for i, row := range grid.Values {
		for j, v := range row {
			if v < 0 {
				t.Fatalf("negative expectation at (%d, %d): %v", i, j, v)
			}
		}
	}
}

func TestHeatmapCapsAxesAtFifty(t *testing.T) {
	summaries := []models.CustomerSummary{
		{CustomerID: "A", Frequency: 120, Recency: 400, T: 730},
	}
	grid := Heatmap(testModel(), summaries)
	if len(grid.Recency) != 51 || len(grid.Frequency) != 51 {
		t.Fatalf("axes not capped: %dx%d", len(grid.Recency), len(grid.Frequency))
	}
}

func TestPeriodTransactionsHistogram(t *testing.T) {
	summaries := []models.CustomerSummary{
		{CustomerID: "A", Frequency: 0, Recency: 0, T: 40},
		{CustomerID: "B", Frequency: 2, Recency: 25, T: 40},
		{CustomerID: "C", Frequency: 50, Recency: 39, T: 40},
	}
	data := PeriodTransactions(testModel(), summaries, 7, 1)
	if len(data.Bins) != 8 || len(data.Actual) != 8 || len(data.Model) != 8 {
		t.Fatalf("unexpected bin layout: %+v", data)
	}
	actualTotal, modelTotal := 0, 0
	for i := range data.Bins {
		actualTotal += data.Actual[i]
		modelTotal += data.Model[i]
	}
	if actualTotal != len(summaries) || modelTotal != len(summaries) {
		t.Fatalf("histograms must account for every customer: actual=%d model=%d", actualTotal, modelTotal)
	}
	if data.Actual[7] != 1 {
		t.Fatalf("frequency beyond cap must fall in the last bin: %+v", data.Actual)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	m := testModel()
	predictions := []models.Prediction{
		{CustomerID: "C1", Frequency: 1, Recency: 31, T: 31, PredictedTransactions: 0.5},
		{CustomerID: "C2", Frequency: 0, Recency: 0, T: 17, PredictedTransactions: 0.25},
	}
	bundle, err := Bundle(predictions, m)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
	if err != nil {
		t.Fatalf("open bundle: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}

	csvEntry, err := zr.Open(PredictionsEntry)
	if err != nil {
		t.Fatalf("missing %s: %v", PredictionsEntry, err)
	}
	records, err := csv.NewReader(csvEntry).ReadAll()
	csvEntry.Close()
	if err != nil {
		t.Fatalf("read predictions csv: %v", err)
	}
	wantHeader := []string{"customer_id", "frequency", "recency", "T", "predicted_transactions"}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Fatalf("header mismatch: %v", records[0])
		}
	}
	if records[1][0] != "C1" || records[1][1] != "1" || records[1][2] != "31" {
		t.Fatalf("unexpected first row: %v", records[1])
	}

	paramsEntry, err := zr.Open(ParamsEntry)
	if err != nil {
		t.Fatalf("missing %s: %v", ParamsEntry, err)
	}
	doc, err := io.ReadAll(paramsEntry)
	paramsEntry.Close()
	if err != nil {
		t.Fatalf("read params: %v", err)
	}
	var restored bgnbd.Model
	if err := json.Unmarshal(doc, &restored); err != nil {
		t.Fatalf("decode params: %v", err)
	}
	if restored.Params != m.Params || restored.PenalizerCoef != m.PenalizerCoef {
		t.Fatalf("params did not round-trip: %+v vs %+v", restored, m)
	}
}

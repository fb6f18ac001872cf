package report

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/Uric01/machine-learning/internal/bgnbd"
	"github.com/Uric01/machine-learning/internal/models"
)

// Fixed names of the bundle and its entries; the browser and clvctl both
// rely on them.
const (
	BundleName       = "predictions_and_model_params.zip"
	PredictionsEntry = "predictions.csv"
	ParamsEntry      = "model_params.json"
)

// Bundle packs the post-prediction summary table and the model coefficients
// into a single zip archive. The params entry round-trips: decoding it
// yields a model with identical coefficients and penalizer.
func Bundle(predictions []models.Prediction, m *bgnbd.Model) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entry, err := zw.Create(PredictionsEntry)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", PredictionsEntry, err)
	}
	if err := writePredictionsCSV(entry, predictions); err != nil {
		return nil, err
	}

	entry, err = zw.Create(ParamsEntry)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", ParamsEntry, err)
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode model params: %w", err)
	}
	if _, err := entry.Write(doc); err != nil {
		return nil, fmt.Errorf("write %s: %w", ParamsEntry, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize bundle: %w", err)
	}
	return buf.Bytes(), nil
}

func writePredictionsCSV(w io.Writer, predictions []models.Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"customer_id", "frequency", "recency", "T", "predicted_transactions"}); err != nil {
		return fmt.Errorf("write %s header: %w", PredictionsEntry, err)
	}
	for _, p := range predictions {
		record := []string{
			p.CustomerID,
			strconv.Itoa(p.Frequency),
			formatFloat(p.Recency),
			formatFloat(p.T),
			formatFloat(p.PredictedTransactions),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write %s row: %w", PredictionsEntry, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", PredictionsEntry, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

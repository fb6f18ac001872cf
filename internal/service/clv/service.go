// Package clv orchestrates the load -> summarize -> fit -> predict pipeline
// and keeps a history of fitted runs in SQL.
package clv

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Uric01/machine-learning/internal/bgnbd"
	"github.com/Uric01/machine-learning/internal/cache"
	"github.com/Uric01/machine-learning/internal/ingest"
	"github.com/Uric01/machine-learning/internal/models"
	"github.com/Uric01/machine-learning/internal/report"
	"github.com/Uric01/machine-learning/pkg/checksum"
)

// Forecast horizon bounds, in days.
const (
	MinHorizon = 1
	MaxHorizon = 365
)

// ErrHorizonOutOfRange rejects forecast horizons outside [1, 365] days.
var ErrHorizonOutOfRange = fmt.Errorf("forecast horizon must be between %d and %d days", MinHorizon, MaxHorizon)

// Service runs the pipeline and persists datasets and model runs.
type Service struct {
	db    *sql.DB
	cache *cache.Cache
}

// NewService builds the pipeline service.
func NewService(db *sql.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

// IngestDataset validates and summarizes an uploaded CSV. The result is
// memoized by the digest of the raw bytes, so uploading identical content
// again skips the parse entirely.
func (s *Service) IngestDataset(ctx context.Context, fileName string, data []byte) (*cache.Entry, error) {
	digest := checksum.Digest(data)
	if entry, ok := s.cache.Get(ctx, digest); ok {
		return entry, nil
	}

	txs, err := ingest.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	summaries, cutoff, err := ingest.Summarize(txs)
	if err != nil {
		return nil, err
	}

	entry := &cache.Entry{
		Dataset: models.Dataset{
			Digest:     digest,
			FileName:   fileName,
			Rows:       len(txs),
			Customers:  len(summaries),
			Cutoff:     cutoff,
			UploadedAt: time.Now().UTC(),
		},
		Summaries: summaries,
	}
	if err := s.recordDataset(ctx, entry.Dataset); err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, digest, entry); err != nil {
		return nil, fmt.Errorf("cache dataset: %w", err)
	}
	return entry, nil
}

// Dataset returns the cached entry for a digest. A digest that was seen
// before but whose parsed table has been evicted yields cache.ErrNotCached.
func (s *Service) Dataset(ctx context.Context, digest string) (*cache.Entry, error) {
	if entry, ok := s.cache.Get(ctx, digest); ok {
		return entry, nil
	}
	var known int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM datasets WHERE digest = ?`, digest,
	).Scan(&known)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	if known == 0 {
		return nil, sql.ErrNoRows
	}
	return nil, cache.ErrNotCached
}

// Fit estimates model coefficients for a cached dataset and records the run.
func (s *Service) Fit(ctx context.Context, digest string, penalizerCoef float64) (*models.ModelRun, error) {
	entry, err := s.Dataset(ctx, digest)
	if err != nil {
		return nil, err
	}
	model, err := bgnbd.Fit(entry.Summaries, penalizerCoef)
	if err != nil {
		return nil, err
	}
	return s.recordRun(ctx, digest, model, models.RunSourceFit)
}

// ImportModel registers a previously exported model_params.json document as
// a run against a cached dataset, without refitting.
func (s *Service) ImportModel(ctx context.Context, digest string, doc []byte) (*models.ModelRun, error) {
	if _, err := s.Dataset(ctx, digest); err != nil {
		return nil, err
	}
	var model bgnbd.Model
	if err := json.Unmarshal(doc, &model); err != nil {
		return nil, fmt.Errorf("invalid model params document: %w", err)
	}
	return s.recordRun(ctx, digest, &model, models.RunSourceImport)
}

// Run loads a persisted run and reconstructs its model.
func (s *Service) Run(ctx context.Context, id int64) (*models.ModelRun, *bgnbd.Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset_digest, penalizer_coef, params, source, created_at
		 FROM model_runs WHERE id = ?`, id,
	)
	var (
		run       models.ModelRun
		paramsRaw string
	)
	if err := row.Scan(&run.ID, &run.DatasetDigest, &run.PenalizerCoef, &paramsRaw, &run.Source, &run.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, sql.ErrNoRows
		}
		return nil, nil, fmt.Errorf("query run: %w", err)
	}
	var model bgnbd.Model
	if err := json.Unmarshal([]byte(paramsRaw), &model); err != nil {
		return nil, nil, fmt.Errorf("decode stored params: %w", err)
	}
	run.Params = model.Params.Map()
	return &run, &model, nil
}

// ListRuns returns the run history, newest first.
func (s *Service) ListRuns(ctx context.Context) ([]models.ModelRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset_digest, penalizer_coef, params, source, created_at
		 FROM model_runs ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.ModelRun
	for rows.Next() {
		var (
			run       models.ModelRun
			paramsRaw string
		)
		if err := rows.Scan(&run.ID, &run.DatasetDigest, &run.PenalizerCoef, &paramsRaw, &run.Source, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var model bgnbd.Model
		if err := json.Unmarshal([]byte(paramsRaw), &model); err != nil {
			return nil, fmt.Errorf("decode stored params: %w", err)
		}
		run.Params = model.Params.Map()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Predict evaluates the run's conditional expectation for every customer of
// its dataset over the given horizon in days.
func (s *Service) Predict(ctx context.Context, runID int64, horizon float64) ([]models.Prediction, error) {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return nil, ErrHorizonOutOfRange
	}
	run, model, err := s.Run(ctx, runID)
	if err != nil {
		return nil, err
	}
	entry, err := s.Dataset(ctx, run.DatasetDigest)
	if err != nil {
		return nil, err
	}
	return predict(model, entry.Summaries, horizon), nil
}

// Heatmap builds the frequency/recency grid for the run's dataset.
func (s *Service) Heatmap(ctx context.Context, runID int64) (*report.HeatmapData, error) {
	_, model, entry, err := s.runWithDataset(ctx, runID)
	if err != nil {
		return nil, err
	}
	return report.Heatmap(model, entry.Summaries), nil
}

// Validation builds the actual-vs-model histogram for the run's dataset.
func (s *Service) Validation(ctx context.Context, runID int64, bins int, seed uint64) (*report.ValidationData, error) {
	_, model, entry, err := s.runWithDataset(ctx, runID)
	if err != nil {
		return nil, err
	}
	return report.PeriodTransactions(model, entry.Summaries, bins, seed), nil
}

// Export builds the downloadable zip bundle for a run at the given horizon.
func (s *Service) Export(ctx context.Context, runID int64, horizon float64) ([]byte, error) {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return nil, ErrHorizonOutOfRange
	}
	_, model, entry, err := s.runWithDataset(ctx, runID)
	if err != nil {
		return nil, err
	}
	return report.Bundle(predict(model, entry.Summaries, horizon), model)
}

func (s *Service) runWithDataset(ctx context.Context, runID int64) (*models.ModelRun, *bgnbd.Model, *cache.Entry, error) {
	run, model, err := s.Run(ctx, runID)
	if err != nil {
		return nil, nil, nil, err
	}
	entry, err := s.Dataset(ctx, run.DatasetDigest)
	if err != nil {
		return nil, nil, nil, err
	}
	return run, model, entry, nil
}

func predict(model *bgnbd.Model, summaries []models.CustomerSummary, horizon float64) []models.Prediction {
	predictions := make([]models.Prediction, len(summaries))
	for i, sum := range summaries {
		predictions[i] = models.Prediction{
			CustomerID:            sum.CustomerID,
			Frequency:             sum.Frequency,
			Recency:               sum.Recency,
			T:                     sum.T,
			PredictedTransactions: model.ConditionalExpectedPurchases(horizon, sum.Frequency, sum.Recency, sum.T),
		}
	}
	return predictions
}

func (s *Service) recordDataset(ctx context.Context, ds models.Dataset) error {
	// Update-then-insert keeps the statement portable across both drivers.
	res, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET file_name = ?, uploaded_at = ? WHERE digest = ?`,
		ds.FileName, ds.UploadedAt, ds.Digest,
	)
	if err != nil {
		return fmt.Errorf("record dataset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record dataset: %w", err)
	}
	if affected > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (digest, file_name, row_count, customers, cutoff, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ds.Digest, ds.FileName, ds.Rows, ds.Customers, ds.Cutoff, ds.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("record dataset: %w", err)
	}
	return nil
}

func (s *Service) recordRun(ctx context.Context, digest string, model *bgnbd.Model, source string) (*models.ModelRun, error) {
	paramsRaw, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO model_runs (dataset_digest, penalizer_coef, params, source, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		digest, model.PenalizerCoef, string(paramsRaw), source, now,
	)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	return &models.ModelRun{
		ID:            id,
		DatasetDigest: digest,
		PenalizerCoef: model.PenalizerCoef,
		Params:        model.Params.Map(),
		Source:        source,
		CreatedAt:     now,
	}, nil
}

package models

import "time"

// Dataset records an uploaded transaction log, identified by the digest of
// its raw bytes.
type Dataset struct {
	Digest     string    `json:"digest"`
	FileName   string    `json:"file_name"`
	Rows       int       `json:"rows"`
	Customers  int       `json:"customers"`
	Cutoff     time.Time `json:"cutoff"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Run sources.
const (
	RunSourceFit    = "fit"
	RunSourceImport = "import"
)

// ModelRun is one fitted (or imported) model bound to a dataset.
type ModelRun struct {
	ID            int64              `json:"id"`
	DatasetDigest string             `json:"dataset_digest"`
	PenalizerCoef float64            `json:"penalizer_coef"`
	Params        map[string]float64 `json:"params"`
	Source        string             `json:"source"`
	CreatedAt     time.Time          `json:"created_at"`
}

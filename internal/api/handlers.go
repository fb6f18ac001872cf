package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Uric01/machine-learning/internal/cache"
	"github.com/Uric01/machine-learning/internal/models"
	"github.com/Uric01/machine-learning/internal/report"
	"github.com/Uric01/machine-learning/internal/service/clv"
)

const (
	defaultHorizon   = 60
	defaultPenalizer = 0.0
	previewRows      = 5
)

// Handler wires HTTP routes to the CLV pipeline service.
type Handler struct {
	clv       *clv.Service
	maxUpload int64
}

// NewHandler constructs a Handler instance.
func NewHandler(service *clv.Service, maxUploadBytes int64) *Handler {
	return &Handler{clv: service, maxUpload: maxUploadBytes}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/datasets", h.uploadDataset)
	api.GET("/datasets/:digest/summary", h.datasetSummary)
	api.POST("/datasets/:digest/fit", h.fitModel)
	api.POST("/models/import", h.importModel)
	api.GET("/runs", h.listRuns)
	api.GET("/runs/:id", h.getRun)
	api.GET("/runs/:id/predictions", h.predictions)
	api.GET("/runs/:id/heatmap", h.heatmap)
	api.GET("/runs/:id/validation", h.validation)
	api.GET("/runs/:id/export", h.export)
}

func (h *Handler) uploadDataset(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}

	entry, err := h.clv.IngestDataset(c.Request.Context(), filepath.Base(file.Filename), data)
	if err != nil {
		respondError(c, err)
		return
	}
	preview := entry.Summaries
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	c.JSON(http.StatusCreated, gin.H{
		"dataset": entry.Dataset,
		"preview": preview,
	})
}

func (h *Handler) datasetSummary(c *gin.Context) {
	entry, err := h.clv.Dataset(c.Request.Context(), c.Param("digest"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset":   entry.Dataset,
		"summaries": entry.Summaries,
	})
}

func (h *Handler) fitModel(c *gin.Context) {
	var req struct {
		PenalizerCoef *float64 `json:"penalizer_coef"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	penalizer := defaultPenalizer
	if req.PenalizerCoef != nil {
		penalizer = *req.PenalizerCoef
	}
	run, err := h.clv.Fit(c.Request.Context(), c.Param("digest"), penalizer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"run": run})
}

func (h *Handler) importModel(c *gin.Context) {
	var req struct {
		DatasetDigest string             `json:"dataset_digest"`
		Params        map[string]float64 `json:"params"`
		PenalizerCoef float64            `json:"penalizer_coef"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.DatasetDigest == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset_digest is required"})
		return
	}
	doc, err := json.Marshal(gin.H{"params": req.Params, "penalizer_coef": req.PenalizerCoef})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid params"})
		return
	}
	run, err := h.clv.ImportModel(c.Request.Context(), req.DatasetDigest, doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"run": run})
}

func (h *Handler) listRuns(c *gin.Context) {
	runs, err := h.clv.ListRuns(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = make([]models.ModelRun, 0)
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) getRun(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	run, _, err := h.clv.Run(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (h *Handler) predictions(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	horizon, ok := horizonParam(c)
	if !ok {
		return
	}
	predictions, err := h.clv.Predict(c.Request.Context(), id, horizon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"horizon":     horizon,
		"predictions": predictions,
	})
}

func (h *Handler) heatmap(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	grid, err := h.clv.Heatmap(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

func (h *Handler) validation(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	bins := report.DefaultValidationBins
	if raw := c.Query("bins"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bins"})
			return
		}
		bins = parsed
	}
	var seed uint64 = 1
	if raw := c.Query("seed"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seed"})
			return
		}
		seed = parsed
	}
	data, err := h.clv.Validation(c.Request.Context(), id, bins, seed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) export(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	horizon, ok := horizonParam(c)
	if !ok {
		return
	}
	bundle, err := h.clv.Export(c.Request.Context(), id, horizon)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.BundleName))
	c.Data(http.StatusOK, "application/zip", bundle)
}

func runID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return 0, false
	}
	return id, true
}

func horizonParam(c *gin.Context) (float64, bool) {
	raw := c.Query("horizon")
	if raw == "" {
		return defaultHorizon, true
	}
	horizon, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid horizon"})
		return 0, false
	}
	return horizon, true
}

// respondError maps pipeline failures onto HTTP statuses; no raw error may
// panic through to gin.
func respondError(c *gin.Context, err error) {
	var (
		schemaErr *models.SchemaError
		dateErr   *models.DateParseError
		emptyErr  *models.EmptyDatasetError
		fitErr    *models.FitError
	)
	switch {
	case errors.As(err, &schemaErr), errors.As(err, &dateErr), errors.As(err, &emptyErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, clv.ErrHorizonOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &fitErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, sql.ErrNoRows):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, cache.ErrNotCached):
		c.JSON(http.StatusGone, gin.H{"error": "dataset no longer cached; please re-upload the file"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

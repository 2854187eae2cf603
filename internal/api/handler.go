// Package api serves statement extraction over HTTP.
package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-extractor/internal/extractor"
	"github.com/insightdelivered/statement-extractor/internal/logging"
	"github.com/insightdelivered/statement-extractor/internal/metrics"
	"github.com/insightdelivered/statement-extractor/internal/models"
	"github.com/insightdelivered/statement-extractor/internal/parser"
	"github.com/insightdelivered/statement-extractor/internal/store"
)

// Version is reported by the health endpoint and in extraction responses.
var Version = "dev"

// ExtractResponse is the JSON response from /api/extract.
type ExtractResponse struct {
	Success       bool                        `json:"success"`
	Error         string                      `json:"error,omitempty"`
	ID            string                      `json:"id,omitempty"`
	Mode          models.StatementMode        `json:"mode,omitempty"`
	Source        string                      `json:"source,omitempty"`
	OCRConfidence float64                     `json:"ocrConfidence,omitempty"`
	Count         int                         `json:"count"`
	Statement     *models.ExtractedStatement `json:"statement,omitempty"`
	RawText       string                      `json:"rawText,omitempty"`
	Version       string                      `json:"version,omitempty"`
}

// extractRequest is the JSON form of /api/extract for callers that already
// have the statement text.
type extractRequest struct {
	Text     string `json:"text"`
	Mode     string `json:"mode"`
	Filename string `json:"filename"`
	Debug    bool   `json:"debug"`
}

// Handler holds the collaborators of the HTTP handlers.
type Handler struct {
	Loader  extractor.Loader
	Store   store.Store // nil disables persistence
	Metrics metrics.Collector
	Log     *logging.Logger
}

func (h *Handler) logger() *logging.Logger {
	if h.Log != nil {
		return h.Log
	}
	return logging.L()
}

func (h *Handler) collector() metrics.Collector {
	if h.Metrics != nil {
		return h.Metrics
	}
	return metrics.NoOpCollector{}
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleExtract accepts either a JSON body with the statement text or a
// multipart upload in form field "file", with an optional "mode" of bank,
// credit or auto.
func (h *Handler) HandleExtract(c *fiber.Ctx) error {
	var (
		text, filename, modeParam string
		debug                     bool
		doc                       = extractor.Document{Method: extractor.MethodText}
	)

	if c.Is("json") {
		var req extractRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid JSON body: %v", err))
		}
		if strings.TrimSpace(req.Text) == "" {
			return writeError(c, fiber.StatusBadRequest, "Field 'text' is required.")
		}
		text, filename, modeParam, debug = req.Text, req.Filename, req.Mode, req.Debug
	} else {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file' or send JSON with 'text'.")
		}
		if !extractor.SupportedExtension(fh.Filename) {
			return writeError(c, fiber.StatusBadRequest, "Only PDF, image and text files are supported.")
		}

		tmpDir, err := os.MkdirTemp("", "statement-upload-*")
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "Failed to create temp dir.")
		}
		defer os.RemoveAll(tmpDir)

		tmpPath := filepath.Join(tmpDir, "upload"+strings.ToLower(filepath.Ext(fh.Filename)))
		if err := c.SaveFile(fh, tmpPath); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
		}

		doc, err = h.Loader.Load(c.UserContext(), tmpPath)
		if err != nil {
			h.collector().RecordFailure("load")
			h.logger().Warn("text extraction failed", zap.String("file", fh.Filename), zap.Error(err))
			return writeError(c, loadErrorStatus(err), fmt.Sprintf("Text extraction failed: %v", err))
		}
		if doc.Method == extractor.MethodOCR {
			h.collector().RecordOCRConfidence(doc.Confidence)
		}
		text, filename = doc.Text(), fh.Filename
		modeParam, debug = c.FormValue("mode"), c.FormValue("debug") == "true"
	}

	mode, ok := resolveMode(modeParam, text)
	if !ok {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Unknown mode: %q. Use bank, credit or auto.", modeParam))
	}
	p, err := parser.New(mode, parser.Options{Debug: debug})
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}

	start := time.Now()
	stmt := p.Parse(text)
	h.collector().RecordExtraction(string(mode), doc.Source(), len(stmt.Transactions), time.Since(start))

	resp := ExtractResponse{
		Success:   true,
		Mode:      mode,
		Source:    doc.Source(),
		Count:     len(stmt.Transactions),
		Statement: &stmt,
		Version:   Version,
	}
	if doc.Method == extractor.MethodOCR {
		resp.OCRConfidence = doc.Confidence
	}
	if debug {
		resp.RawText = text
	}

	if h.Store != nil {
		if filename == "" {
			filename = "statement.txt"
		}
		rec, err := models.NewStatementRecord(filename, stmt)
		if err == nil {
			err = h.Store.Save(c.UserContext(), rec)
		}
		if err != nil {
			h.collector().RecordFailure("store")
			h.logger().Error("failed to save statement", zap.String("file", filename), zap.Error(err))
			return writeError(c, fiber.StatusInternalServerError, "Failed to save statement.")
		}
		resp.ID = rec.ID.String()
	}

	h.logger().Info("statement extracted",
		zap.String("file", filename),
		zap.String("mode", string(mode)),
		zap.String("source", doc.Source()),
		zap.Int("transactions", resp.Count))
	return c.JSON(resp)
}

// resolveMode maps the request's mode; empty and "auto" detect it from text.
func resolveMode(param, text string) (models.StatementMode, bool) {
	switch p := strings.ToLower(strings.TrimSpace(param)); p {
	case "", "auto":
		return parser.AutoDetect(text), true
	default:
		return models.ParseMode(p)
	}
}

func loadErrorStatus(err error) int {
	switch {
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	case errors.Is(err, extractor.ErrNoTextLayer),
		errors.Is(err, extractor.ErrNoText),
		errors.Is(err, extractor.ErrOCRUnavailable):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

// statementSummary is one entry of the /api/statements listing.
type statementSummary struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	BankName        *string   `json:"bankName,omitempty"`
	AccountNumber   *string   `json:"accountNumber,omitempty"`
	StatementPeriod *string   `json:"statementPeriod,omitempty"`
	TotalCredits    string    `json:"totalCredits"`
	TotalDebits     string    `json:"totalDebits"`
	CreatedAt       time.Time `json:"createdAt"`
}

// HandleListStatements lists saved statements, newest first.
func (h *Handler) HandleListStatements(c *fiber.Ctx) error {
	if h.Store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "Statement storage is disabled.")
	}
	recs, total, err := h.Store.List(c.UserContext(), c.QueryInt("offset", 0), c.QueryInt("limit", 20))
	if err != nil {
		h.logger().Error("failed to list statements", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "Failed to list statements.")
	}

	items := make([]statementSummary, len(recs))
	for i, r := range recs {
		items[i] = statementSummary{
			ID:              r.ID.String(),
			Filename:        r.Filename,
			BankName:        r.BankName,
			AccountNumber:   r.AccountNumber,
			StatementPeriod: r.StatementPeriod,
			TotalCredits:    r.TotalCredits.StringFixed(2),
			TotalDebits:     r.TotalDebits.StringFixed(2),
			CreatedAt:       r.CreatedAt,
		}
	}
	return c.JSON(fiber.Map{"success": true, "total": total, "statements": items})
}

// HandleGetStatement returns one saved statement.
func (h *Handler) HandleGetStatement(c *fiber.Ctx) error {
	if h.Store == nil {
		return writeError(c, fiber.StatusServiceUnavailable, "Statement storage is disabled.")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "Invalid statement id.")
	}

	rec, err := h.Store.Get(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return writeError(c, fiber.StatusNotFound, "Statement not found.")
	}
	if err != nil {
		h.logger().Error("failed to load statement", zap.String("id", id.String()), zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, "Failed to load statement.")
	}
	stmt, err := rec.Statement()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"id":        rec.ID.String(),
		"filename":  rec.Filename,
		"createdAt": rec.CreatedAt,
		"statement": stmt,
	})
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ExtractResponse{
		Success: false,
		Error:   msg,
	})
}

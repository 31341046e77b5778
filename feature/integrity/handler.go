package integrity

import (
	"errors"

	"records-manager/core/logger"
	"records-manager/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/structure", h.HandleStructureCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/duplicates", h.HandleDuplicates)
	group.Get("/duplicates/:kind", h.HandleKindDuplicates)
}

// StructureReport is the body of a successful structure check.
type StructureReport struct {
	Status  string   `json:"status"`
	Missing []string `json:"missing"`
	Fixed   []string `json:"fixed,omitempty"`
}

func storageStatus(err error) int {
	if errors.Is(err, ErrStorageDisabled) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// section is one part of the combined report: the check's own result, or
// its error when it failed.
func section(result any, err error) any {
	if err != nil {
		return fiber.Map{"status": "error", "error": err.Error()}
	}
	return result
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs the structure, schema and duplicate-key checks. Each section reports its own error.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	logger.WithRayID(h.service.logger, c).Info("Triggering all integrity checks")
	ctx := c.Context()

	missing, err := h.service.CheckStructure(ctx)
	structure := section(StructureReport{Status: "ok", Missing: missing}, err)
	schema, err := h.service.CheckSchema()
	schemaSection := section(schema, err)
	dups, err := h.service.AllDuplicates(ctx, false)

	return c.JSON(fiber.Map{
		"structure":  structure,
		"schema":     schemaSection,
		"duplicates": section(dups, err),
	})
}

// HandleStructureCheck checks and optionally fixes structure.
// @Summary Check Archive Structure
// @Description Checks if the backup and diagnostics folders exist in the storage bucket. Optionally creates missing folders.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Fix missing folders"
// @Success 200 {object} StructureReport "Structure Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Storage not configured"
// @Router /integrity/structure [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	missing, err := h.service.CheckStructure(c.Context())
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		return c.Status(storageStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if len(missing) == 0 || !c.QueryBool("fix") {
		if len(missing) > 0 {
			l.Warn("Missing folders detected", zap.Strings("missing", missing))
		}
		return c.JSON(StructureReport{Status: "checked", Missing: missing})
	}

	l.Info("Creating missing folders", zap.Strings("missing", missing))
	if err := h.service.FixStructure(c.Context(), missing); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to fix structure",
			"details": err.Error(),
			"missing": missing,
		})
	}
	return c.JSON(StructureReport{Status: "fixed", Fixed: missing})
}

// HandleSchemaCheck checks the engine's database tables.
// @Summary Check Database Schema
// @Description Checks that the documents, audit_logs and sync_runs tables match the models.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting schema check")

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !report.Matched {
		l.Warn("Schema drift detected", zap.Strings("errors", report.Errors))
	}

	return c.JSON(report)
}

// HandleDuplicates reports duplicate match keys of every kind.
// @Summary Duplicate Keys
// @Description Lists stored records sharing a match key value. Imports never merge into such records; they are inserted as new instead.
// @Tags integrity
// @Produce json
// @Param refresh query boolean false "Rebuild cached reports"
// @Success 200 {array} checks.DuplicateReport
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/duplicates [get]
func (h *Handler) HandleDuplicates(c *fiber.Ctx) error {
	reports, err := h.service.AllDuplicates(c.Context(), c.QueryBool("refresh"))
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Duplicate check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(reports)
}

// HandleKindDuplicates reports duplicate match keys of one kind.
// @Summary Duplicate Keys of a Kind
// @Tags integrity
// @Produce json
// @Param kind path string true "students, publications, progress, advisors or research"
// @Param refresh query boolean false "Rebuild the cached report"
// @Success 200 {object} checks.DuplicateReport
// @Failure 400 {object} map[string]string "Unknown kind"
// @Router /integrity/duplicates/{kind} [get]
func (h *Handler) HandleKindDuplicates(c *fiber.Ctx) error {
	kind := c.Params("kind")
	report, err := h.service.Duplicates(c.Context(), kind, c.QueryBool("refresh"))
	if err != nil {
		l := logger.WithRayID(h.service.logger, c)
		if errors.Is(err, reconcile.ErrUnknownKind) {
			l.Warn("Duplicate check rejected", zap.String("kind", kind), zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Duplicate check failed", zap.String("kind", kind), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

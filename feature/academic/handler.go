package academic

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"records-manager/core/cache"
	"records-manager/core/logger"
	"records-manager/core/reconcile"
	"records-manager/core/server"
	"records-manager/core/storage"
	"records-manager/core/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the academic collections.
type Handler struct {
	service *Service
	server  server.Config
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, cfg server.Config) *Handler {
	return &Handler{service: service, server: cfg}
}

// RegisterRoutes registers the academic routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/academic")
	group.Get("/counts", h.HandleCounts)
	group.Get("/backup", h.HandleExport)
	group.Get("/backup/archive", h.HandleListBackups)
	group.Post("/backup/archive", h.HandleArchiveExport)
	group.Post("/restore", h.HandleRestore)
	group.Post("/restore/archive", h.HandleRestoreArchived)
	group.Get("/restore/history", h.HandleHistory)
	group.Post("/autosync/:kind", h.HandleAutoSync)
	group.Get("/autosync/history", h.HandleAutoSyncHistory)
	group.Get("/purge", h.HandlePendingPurges)
	group.Post("/purge/confirm/:token", h.HandleConfirmPurge)
	group.Post("/purge/:kind", h.HandleRequestPurge)
	group.Get("/:kind", h.HandleList)
}

func (h *Handler) actor(c *fiber.Ctx) string {
	return h.server.ResolveActor(c.Get(server.ActorHeader))
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case reconcile.IsValidationError(err),
		errors.Is(err, ErrInvalidBackup),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrUnsupportedKind):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrPurgeNotConfirmable):
		return fiber.StatusForbidden
	case errors.Is(err, ErrPurgeNotFound), errors.Is(err, storage.ErrObjectNotFound), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, cache.ErrLocked):
		return fiber.StatusConflict
	case errors.Is(err, ErrArchiveDisabled), errors.Is(err, ErrAutoSyncDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// HandleCounts returns the number of live records per kind.
// @Summary Academic Record Counts
// @Tags academic
// @Produce json
// @Success 200 {object} map[string]int
// @Router /academic/counts [get]
func (h *Handler) HandleCounts(c *fiber.Ctx) error {
	counts, err := h.service.Counts(c.Context())
	if err != nil {
		return h.fail(c, "Academic counts failed", err)
	}
	return c.JSON(counts)
}

// HandleList lists the records of one kind.
// @Summary List Academic Records
// @Tags academic
// @Produce json
// @Param kind path string true "students, publications, progress or advisors"
// @Param include_deleted query boolean false "Include soft-deleted records"
// @Success 200 {array} object
// @Failure 400 {object} map[string]string "Unknown kind"
// @Router /academic/{kind} [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	recs, err := h.service.List(c.Context(), c.Params("kind"), c.QueryBool("include_deleted"))
	if err != nil {
		return h.fail(c, "Academic list failed", err)
	}
	return c.JSON(recs)
}

// HandleExport downloads a backup of every academic record.
// @Summary Export Backup
// @Tags backup
// @Produce json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param X-Actor header string false "Acting user"
// @Param format query string false "json (default) or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string "Unsupported format"
// @Router /academic/backup [get]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	file, err := h.service.Export(c.Context(), h.actor(c), c.Query("format"))
	if err != nil {
		return h.fail(c, "Backup export failed", err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.Send(file.Body)
}

// HandleArchiveExport stores a backup in object storage.
// @Summary Archive Backup
// @Tags backup
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param format query string false "json (default) or xlsx"
// @Success 201 {object} map[string]string
// @Failure 503 {object} map[string]string "Archive not configured"
// @Router /academic/backup/archive [post]
func (h *Handler) HandleArchiveExport(c *fiber.Ctx) error {
	key, err := h.service.ArchiveExport(c.Context(), h.actor(c), c.Query("format"))
	if err != nil {
		return h.fail(c, "Backup archive failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": key})
}

// HandleListBackups lists archived backups.
// @Summary List Archived Backups
// @Tags backup
// @Produce json
// @Success 200 {array} storage.ObjectSummary
// @Failure 503 {object} map[string]string "Archive not configured"
// @Router /academic/backup/archive [get]
func (h *Handler) HandleListBackups(c *fiber.Ctx) error {
	backups, err := h.service.Backups(c.Context())
	if err != nil {
		return h.fail(c, "Backup listing failed", err)
	}
	return c.JSON(backups)
}

// HandleRestore restores an uploaded backup.
// @Summary Restore Backup
// @Description Merges a JSON backup or an Excel workbook into the stored records. Existing students, progress and advisors are updated, existing publications skipped.
// @Tags backup
// @Accept multipart/form-data
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param file formData file true "Backup file (.json or .xlsx)"
// @Success 200 {object} academic.RestoreOutcome
// @Failure 400 {object} map[string]string "Invalid backup"
// @Router /academic/restore [post]
func (h *Handler) HandleRestore(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing file: " + err.Error()})
	}
	f, err := fh.Open()
	if err != nil {
		return h.fail(c, "Backup upload failed", err)
	}
	defer f.Close()
	body, err := io.ReadAll(f)
	if err != nil {
		return h.fail(c, "Backup upload failed", err)
	}

	out, err := h.service.Restore(c.Context(), h.actor(c), RestoreFile{Name: fh.Filename, Body: body})
	return h.restoreResponse(c, out, err)
}

// HandleRestoreArchived restores an archived backup.
// @Summary Restore Archived Backup
// @Tags backup
// @Accept json
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param request body map[string]string true "Object key, e.g. {\"key\": \"backups/academic_backup_2025-01-01_101500.json\"}"
// @Success 200 {object} academic.RestoreOutcome
// @Failure 404 {object} map[string]string "Not Found"
// @Router /academic/restore/archive [post]
func (h *Handler) HandleRestoreArchived(c *fiber.Ctx) error {
	var req struct {
		Key string `json:"key"`
	}
	if err := c.BodyParser(&req); err != nil || req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key is required"})
	}
	out, err := h.service.RestoreArchived(c.Context(), h.actor(c), req.Key)
	return h.restoreResponse(c, out, err)
}

func (h *Handler) restoreResponse(c *fiber.Ctx, out *RestoreOutcome, err error) error {
	if err == nil {
		return c.JSON(out)
	}
	if out == nil {
		return h.fail(c, "Restore failed", err)
	}
	status := statusFor(err)
	logger.WithRayID(h.service.logger, c).Error("Restore failed",
		zap.String("session_id", out.SessionID), zap.Error(err))
	// The session log explains how far the restore got.
	return c.Status(status).JSON(fiber.Map{
		"error":          err.Error(),
		"session_id":     out.SessionID,
		"kinds":          out.Kinds,
		"diagnostic_key": out.DiagnosticKey,
	})
}

// HandleHistory lists recent restore summaries.
// @Summary Restore History
// @Tags backup
// @Produce json
// @Param limit query int false "Maximum entries (default 20)"
// @Success 200 {array} session.Summary
// @Router /academic/restore/history [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.service.History(c.Context(), limit)
	if err != nil {
		return h.fail(c, "Restore history failed", err)
	}
	return c.JSON(history)
}

// HandleAutoSync adds the Scopus publications of every student or advisor.
// @Summary Scopus Auto Sync
// @Description Searches Scopus once per person, by Scopus author id or English name, and adds the publications they do not have yet.
// @Tags sync
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param kind path string true "students or advisors"
// @Success 200 {object} AutoSyncOutcome
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /academic/autosync/{kind} [post]
func (h *Handler) HandleAutoSync(c *fiber.Ctx) error {
	out, err := h.service.AutoSync(c.Context(), h.actor(c), c.Params("kind"))
	if err == nil {
		return c.JSON(out)
	}
	if out == nil {
		return h.fail(c, "Auto-sync failed", err)
	}
	logger.WithRayID(h.service.logger, c).Error("Auto-sync failed",
		zap.String("session_id", out.SessionID), zap.Error(err))
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error":          err.Error(),
		"session_id":     out.SessionID,
		"people":         out.People,
		"diagnostic_key": out.DiagnosticKey,
	})
}

// HandleAutoSyncHistory lists recent auto-sync summaries.
// @Summary Auto Sync History
// @Tags sync
// @Produce json
// @Param limit query int false "Maximum entries (default 20)"
// @Success 200 {array} session.Summary
// @Router /academic/autosync/history [get]
func (h *Handler) HandleAutoSyncHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.service.AutoSyncHistory(c.Context(), limit)
	if err != nil {
		return h.fail(c, "Auto-sync history failed", err)
	}
	return c.JSON(history)
}

// HandleRequestPurge opens a purge request.
// @Summary Request Purge
// @Description Opens a request to delete every record of a kind. A different user must confirm it with the returned token after the cooldown.
// @Tags purge
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param kind path string true "students, publications, progress or advisors"
// @Success 202 {object} academic.PurgeTicket
// @Failure 400 {object} map[string]string "Unknown kind"
// @Router /academic/purge/{kind} [post]
func (h *Handler) HandleRequestPurge(c *fiber.Ctx) error {
	t, err := h.service.RequestPurge(c.Context(), h.actor(c), c.Params("kind"))
	if err != nil {
		return h.fail(c, "Purge request failed", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(t)
}

// HandleConfirmPurge confirms a purge request and deletes the records.
// @Summary Confirm Purge
// @Tags purge
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param token path string true "Purge token"
// @Success 200 {object} academic.PurgeResult
// @Failure 403 {object} map[string]string "Same user or cooldown not over"
// @Failure 404 {object} map[string]string "Unknown or expired token"
// @Failure 409 {object} map[string]string "Purge already running"
// @Router /academic/purge/confirm/{token} [post]
func (h *Handler) HandleConfirmPurge(c *fiber.Ctx) error {
	res, err := h.service.ConfirmPurge(c.Context(), h.actor(c), c.Params("token"))
	if err != nil {
		return h.fail(c, "Purge confirmation failed", err)
	}
	return c.JSON(res)
}

// HandlePendingPurges lists open purge requests.
// @Summary Pending Purges
// @Tags purge
// @Produce json
// @Success 200 {array} academic.PurgeTicket
// @Router /academic/purge [get]
func (h *Handler) HandlePendingPurges(c *fiber.Ctx) error {
	return c.JSON(h.service.PendingPurges())
}

package research

import (
	"errors"
	"strconv"

	"records-manager/core/fetch"
	"records-manager/core/logger"
	"records-manager/core/reconcile"
	"records-manager/core/server"
	"records-manager/core/session"
	"records-manager/core/store"
	"records-manager/feature/research/scopus"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for research records and Scopus sync.
type Handler struct {
	service *Service
	server  server.Config
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, cfg server.Config) *Handler {
	return &Handler{service: service, server: cfg}
}

// RegisterRoutes registers the research and sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/research")
	group.Get("/", h.HandleList)
	group.Post("/", h.HandleCreate)
	group.Get("/scopus/search", h.HandleSearch)
	group.Post("/scopus/import", h.HandleImport)
	group.Post("/scopus/sync", h.HandleStartSync)
	group.Get("/:id", h.HandleGet)
	group.Patch("/:id", h.HandleUpdate)
	group.Delete("/:id", h.HandleDelete)

	sync := app.Group("/sync")
	sync.Get("/history", h.HandleHistory)
	sync.Get("/sessions/:id", h.HandleSessionStatus)
	sync.Get("/sessions/:id/events", h.HandleSessionEvents)
	sync.Delete("/sessions/:id", h.HandleCancelSync)
}

func (h *Handler) actor(c *fiber.Ctx) string {
	return h.server.ResolveActor(c.Get(server.ActorHeader))
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var apiErr *scopus.APIError
	switch {
	case reconcile.IsValidationError(err), errors.Is(err, scopus.ErrEmptyQuery):
		return fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, scopus.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.Is(err, fetch.ErrTransport):
		return fiber.StatusBadGateway
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

// HandleList lists research records.
// @Summary List Research Records
// @Description Returns all research records. Soft-deleted records are included with include_deleted=true.
// @Tags research
// @Produce json
// @Param include_deleted query boolean false "Include soft-deleted records"
// @Success 200 {array} research.Record
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /research [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	recs, err := h.service.List(c.Context(), c.QueryBool("include_deleted"))
	if err != nil {
		return h.fail(c, "Research list failed", err)
	}
	return c.JSON(recs)
}

// HandleGet returns one research record.
// @Summary Get Research Record
// @Tags research
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} research.Record
// @Failure 404 {object} map[string]string "Not Found"
// @Router /research/{id} [get]
func (h *Handler) HandleGet(c *fiber.Ctx) error {
	rec, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Research lookup failed", err)
	}
	return c.JSON(rec)
}

// HandleCreate stores a manually entered record.
// @Summary Create Research Record
// @Tags research
// @Accept json
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param record body research.Record true "Record"
// @Success 201 {object} research.Record
// @Failure 400 {object} map[string]string "Validation Error"
// @Router /research [post]
func (h *Handler) HandleCreate(c *fiber.Ctx) error {
	var rec Record
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
	}
	created, err := h.service.Create(c.Context(), h.actor(c), &rec)
	if err != nil {
		return h.fail(c, "Research create failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleUpdate patches a research record.
// @Summary Update Research Record
// @Description Patches the given fields. System fields are ignored.
// @Tags research
// @Accept json
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param id path string true "Record ID"
// @Param fields body map[string]interface{} true "Fields to change"
// @Success 200 {object} research.Record
// @Failure 400 {object} map[string]string "Validation Error"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /research/{id} [patch]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
	}
	updated, err := h.service.Update(c.Context(), h.actor(c), c.Params("id"), fields)
	if err != nil {
		return h.fail(c, "Research update failed", err)
	}
	return c.JSON(updated)
}

// HandleDelete soft-deletes a research record.
// @Summary Delete Research Record
// @Tags research
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param id path string true "Record ID"
// @Success 200 {object} research.Record
// @Failure 404 {object} map[string]string "Not Found"
// @Router /research/{id} [delete]
func (h *Handler) HandleDelete(c *fiber.Ctx) error {
	deleted, err := h.service.Delete(c.Context(), h.actor(c), c.Params("id"))
	if err != nil {
		return h.fail(c, "Research delete failed", err)
	}
	return c.JSON(deleted)
}

// HandleSearch fetches one page of Scopus results.
// @Summary Search Scopus
// @Description Fetches 25 results at offset and marks each as new or duplicate of a stored record.
// @Tags research
// @Produce json
// @Param query query string false "Scopus query"
// @Param author_id query string false "Scopus author id"
// @Param affiliation query string false "vet or a Scopus affiliation id"
// @Param year query string false "Publication year or all"
// @Param offset query int false "Result offset"
// @Success 200 {object} research.SearchResult
// @Failure 400 {object} map[string]string "Missing search parameters"
// @Failure 502 {object} map[string]string "Scopus error"
// @Router /research/scopus/search [get]
func (h *Handler) HandleSearch(c *fiber.Ctx) error {
	req := SearchRequest{
		Search: scopus.Search{
			AuthorID:    c.Query("author_id"),
			Query:       c.Query("query"),
			Affiliation: c.Query("affiliation"),
			Year:        c.Query("year"),
		},
		Offset: c.QueryInt("offset", 0),
	}
	res, err := h.service.Search(c.Context(), req)
	if err != nil {
		return h.fail(c, "Scopus search failed", err)
	}
	return c.JSON(res)
}

// HandleImport imports or updates one search result.
// @Summary Import Scopus Result
// @Description Inserts a new result or updates the stored record it matches, and records a sync summary.
// @Tags research
// @Accept json
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param publication body scopus.Publication true "Search result"
// @Success 200 {object} session.Outcome
// @Failure 400 {object} map[string]string "Validation Error"
// @Router /research/scopus/import [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	var p scopus.Publication
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
	}
	out, err := h.service.Import(c.Context(), h.actor(c), p)
	if err != nil {
		return h.fail(c, "Scopus import failed", err)
	}
	return c.JSON(out)
}

// HandleStartSync starts a bulk sync in the background.
// @Summary Start Bulk Sync
// @Description Fetches every result of the search and reconciles it with stored records. Poll the returned session for progress.
// @Tags sync
// @Accept json
// @Produce json
// @Param X-Actor header string false "Acting user"
// @Param request body research.SyncRequest true "Search and expected total"
// @Success 202 {object} session.Status
// @Failure 400 {object} map[string]string "Missing search parameters"
// @Router /research/scopus/sync [post]
func (h *Handler) HandleStartSync(c *fiber.Ctx) error {
	var req SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
	}
	sess, err := h.service.StartSync(c.UserContext(), h.actor(c), req)
	if err != nil {
		return h.fail(c, "Scopus sync failed to start", err)
	}
	logger.WithRayID(h.service.logger, c).Info("Bulk sync started", zap.String("session_id", sess.ID))
	return c.Status(fiber.StatusAccepted).JSON(sess.Status())
}

// HandleHistory lists recent sync summaries.
// @Summary Sync History
// @Tags sync
// @Produce json
// @Param limit query int false "Maximum entries (default 20)"
// @Success 200 {array} session.Summary
// @Router /sync/history [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	history, err := h.service.History(c.Context(), limit)
	if err != nil {
		return h.fail(c, "Sync history failed", err)
	}
	return c.JSON(history)
}

// HandleSessionStatus returns the state of a sync session.
// @Summary Sync Session Status
// @Tags sync
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Status
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sync/sessions/{id} [get]
func (h *Handler) HandleSessionStatus(c *fiber.Ctx) error {
	sess, err := h.service.Session(c.Params("id"))
	if err != nil {
		return h.fail(c, "Sync session lookup failed", err)
	}
	return c.JSON(sess.Status())
}

// HandleSessionEvents replays the live log of a sync session.
// @Summary Sync Session Log
// @Description Returns the session log from the first line. Use after to skip lines already shown.
// @Tags sync
// @Produce json
// @Param id path string true "Session ID"
// @Param after query int false "Return only events with a higher sequence number"
// @Success 200 {array} session.Event
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sync/sessions/{id}/events [get]
func (h *Handler) HandleSessionEvents(c *fiber.Ctx) error {
	events, err := h.service.Events(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Sync session log failed", err)
	}
	after := c.QueryInt("after", 0)
	out := make([]session.Event, 0, len(events))
	for _, e := range events {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return c.JSON(out)
}

// HandleCancelSync cancels a running background sync.
// @Summary Cancel Sync
// @Description Stops the sync before its next commit chunk. Chunks already written stay.
// @Tags sync
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sync/sessions/{id} [delete]
func (h *Handler) HandleCancelSync(c *fiber.Ctx) error {
	if !h.service.CancelSync(c.Params("id")) {
		return h.fail(c, "Sync cancel failed", ErrSessionNotFound)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "cancelling"})
}

package server

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/async"
	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/ingest"
	"github.com/joseph-ayodele/jobfit/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handler struct {
	deps   Deps
	logger *slog.Logger
}

type submitRequest struct {
	Key  string `json:"key"`
	HTML string `json:"html"`
}

type submitResponse struct {
	Key     string                     `json:"key"`
	Status  constants.SubmissionStatus `json:"status"`
	TraceID string                     `json:"trace_id,omitempty"`
}

// parseSubmit reads {key, html}; a missing key is derived from the content.
func parseSubmit(c *fiber.Ctx) (submitRequest, error) {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return req, common.NewAppError(common.CodeInvalidInput, "body must be JSON {key, html}", errors.Join(common.ErrInvalidInput, err))
	}
	if req.Key == "" && req.HTML != "" {
		req.Key = ingest.KeyFor([]byte(req.HTML))
	}
	v := common.NewValidator().
		Field("html", req.HTML, common.Required).
		Field("key", req.Key, common.Required, common.MaxLength(255))
	return req, v.Err()
}

// submit queues a posting: 202 when queued, 200 when the key is already stored.
func (h *handler) submit(c *fiber.Ctx) error {
	req, err := parseSubmit(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	done, err := h.deps.Store.IsProcessed(ctx, req.Key)
	if err != nil {
		return err
	}
	if done {
		return c.Status(fiber.StatusOK).JSON(submitResponse{Key: req.Key, Status: constants.SubmissionSkipped})
	}

	rid := requestID(c)
	err = h.deps.Queue.Enqueue(ctx, async.Job{Key: req.Key, HTML: req.HTML, SubmittedAt: time.Now(), TraceID: rid})
	switch {
	case errors.Is(err, async.ErrAlreadyQueued):
		return c.Status(fiber.StatusAccepted).JSON(submitResponse{Key: req.Key, Status: constants.SubmissionQueued})
	case errors.Is(err, async.ErrQueueClosed):
		return common.NewAppError(common.CodeUnavailable, "server is shutting down", err)
	case err != nil:
		return common.NewAppError(common.CodeUnavailable, "could not queue posting", err)
	}
	return c.Status(fiber.StatusAccepted).JSON(submitResponse{Key: req.Key, Status: constants.SubmissionQueued, TraceID: rid})
}

// processSync runs the whole pipeline inside the request.
func (h *handler) processSync(c *fiber.Ctx) error {
	req, err := parseSubmit(c)
	if err != nil {
		return err
	}
	out, err := h.deps.Processor.Process(c.UserContext(), req.Key, req.HTML)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *handler) status(c *fiber.Ctx) error {
	key := c.Params("key")
	if st, ok := h.deps.Queue.Status(key); ok {
		return c.JSON(st)
	}
	done, err := h.deps.Store.IsProcessed(c.UserContext(), key)
	if err != nil {
		return err
	}
	if !done {
		return common.NewAppError(common.CodeNotFound, "unknown posting key", common.ErrNotFound)
	}
	return c.JSON(async.JobStatus{Key: key, Status: constants.SubmissionCommitted})
}

func (h *handler) get(c *fiber.Ctx) error {
	app, err := h.deps.Store.Get(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	return c.JSON(app)
}

func (h *handler) list(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}
	apps, err := h.deps.Store.ListRecent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"applications": apps, "count": len(apps)})
}

func (h *handler) export(c *fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}
	b, err := h.deps.Exporter.ExportApplicationsXLSX(c.UserContext(), limit)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="applications.xlsx"`)
	return c.Send(b)
}

func (h *handler) health(c *fiber.Ctx) error {
	if h.deps.DB != nil {
		if err := h.deps.DB.HealthCheck(c.UserContext(), 2*time.Second); err != nil {
			return common.NewAppError(common.CodeUnavailable, "database unavailable", err)
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func parseLimit(c *fiber.Ctx) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return repository.DefaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.NewAppError(common.CodeInvalidInput, "limit must be an integer", common.ErrInvalidInput)
	}
	if err := common.NewValidator().Field("limit", n, common.IntRange(1, repository.MaxListLimit)).Err(); err != nil {
		return 0, err
	}
	return n, nil
}

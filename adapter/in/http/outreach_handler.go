package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"outreach_server/core/domain"
	"outreach_server/core/port/in"
	"outreach_server/core/port/out"

	"github.com/gofiber/fiber/v2"
)

// OutreachHandler handles outreach record and reply-sync requests.
type OutreachHandler struct {
	outreachRepo out.OutreachRepository
	replySync    in.ReplySync
}

// NewOutreachHandler creates a new outreach handler. replySync is nil when
// the bound mail backend cannot read conversations back.
func NewOutreachHandler(outreachRepo out.OutreachRepository, replySync in.ReplySync) *OutreachHandler {
	return &OutreachHandler{
		outreachRepo: outreachRepo,
		replySync:    replySync,
	}
}

// Register registers outreach routes.
func (h *OutreachHandler) Register(router fiber.Router) {
	outreach := router.Group("/outreach")

	outreach.Get("/", h.ListOutreach)
	outreach.Post("/", h.CreateOutreach)
	outreach.Get("/analytics", h.Analytics)
	outreach.Get("/:id", h.GetOutreach)
	outreach.Delete("/:id", h.DeleteOutreach)

	// Reply sync
	outreach.Post("/check-replies", h.CheckReplies)
	outreach.Post("/:id/read", h.MarkRead)
	outreach.Post("/:id/responded", h.MarkResponded)
}

// =============================================================================
// Outreach records
// =============================================================================

// ListOutreach returns outreach records, newest first.
func (h *OutreachHandler) ListOutreach(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	filter := out.OutreachFilter{Limit: limit}
	if method := c.Query("method"); method != "" {
		filter.Method = domain.OutreachMethod(method)
	}
	if days, err := strconv.Atoi(c.Query("days")); err == nil && days > 0 {
		filter.CreatedAfter = time.Now().UTC().AddDate(0, 0, -days)
	}

	records, err := h.outreachRepo.List(c.Context(), filter)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"outreach": records,
		"total":    len(records),
	})
}

// CreateOutreachRequest logs an outreach attempt made outside the send path,
// a phone call or an email sent from a personal client.
type CreateOutreachRequest struct {
	ProviderID string `json:"provider_id"`
	ContactID  string `json:"contact_id"`
	Method     string `json:"method"`
	Type       string `json:"type"`
	Notes      string `json:"notes"`
}

// CreateOutreach records a manually logged outreach attempt.
func (h *OutreachHandler) CreateOutreach(c *fiber.Ctx) error {
	var req CreateOutreachRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ProviderID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "provider_id is required")
	}

	method := domain.OutreachMethod(req.Method)
	switch method {
	case domain.MethodEmail, domain.MethodPhone, domain.MethodOther:
	case "":
		method = domain.MethodOther
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid outreach method")
	}

	typ := domain.OutreachType(req.Type)
	if typ == "" {
		typ = domain.OutreachCold
	}

	rec := domain.NewOutreachRecord(req.ProviderID, req.ContactID, method, typ, req.Notes)
	rec.Status = domain.OutreachCompleted

	if err := h.outreachRepo.Create(c.Context(), rec); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// GetOutreach returns a single outreach record.
func (h *OutreachHandler) GetOutreach(c *fiber.Ctx) error {
	rec, err := h.outreachRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if rec == nil {
		return fiber.NewError(fiber.StatusNotFound, "Outreach record not found")
	}
	return c.JSON(rec)
}

// DeleteOutreach removes a record. Only record management deletes; the sync
// engine never does.
func (h *OutreachHandler) DeleteOutreach(c *fiber.Ctx) error {
	id := c.Params("id")

	rec, err := h.outreachRepo.GetByID(c.Context(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if rec == nil {
		return fiber.NewError(fiber.StatusNotFound, "Outreach record not found")
	}

	if err := h.outreachRepo.Delete(c.Context(), id); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// Analytics summarizes outreach and reply activity over a recent window,
// 30 days by default.
func (h *OutreachHandler) Analytics(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "30"))
	if err != nil || days <= 0 {
		days = 30
	}

	records, err := h.outreachRepo.List(c.Context(), out.OutreachFilter{
		CreatedAfter: time.Now().UTC().AddDate(0, 0, -days),
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	byMethod := make(map[string]int)
	byReplyStatus := make(map[string]int)
	tracked := 0
	totalReplies := 0
	withReplies := 0
	for _, rec := range records {
		byMethod[string(rec.Method)]++
		byReplyStatus[string(rec.ReplyStatus)]++
		totalReplies += rec.ReplyCount
		if rec.ConversationID != "" {
			tracked++
		}
		if rec.ReplyReceived {
			withReplies++
		}
	}

	replyRate := 0.0
	if len(records) > 0 {
		replyRate = float64(withReplies) / float64(len(records))
	}

	return c.JSON(fiber.Map{
		"window_days":     days,
		"total_outreach":  len(records),
		"by_method":       byMethod,
		"by_reply_status": byReplyStatus,
		"tracked":         tracked,
		"total_replies":   totalReplies,
		"with_replies":    withReplies,
		"reply_rate":      replyRate,
	})
}

// =============================================================================
// Reply sync
// =============================================================================

// CheckReplies triggers a reply sweep synchronously, the manual counterpart
// of the scheduled sweep.
func (h *OutreachHandler) CheckReplies(c *fiber.Ctx) error {
	if h.replySync == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, domain.ErrReplySyncDisabled.Error())
	}

	lookback := time.Duration(0)
	if days, err := strconv.Atoi(c.Query("days")); err == nil && days > 0 {
		lookback = time.Duration(days) * 24 * time.Hour
	}

	result, err := h.replySync.RunSweep(c.Context(), lookback)
	if err != nil {
		if errors.Is(err, domain.ErrSweepInProgress) {
			return fiber.NewError(fiber.StatusConflict, "A reply sweep is already running")
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(result)
}

// MarkRead transitions a record's reply status from unread to read.
func (h *OutreachHandler) MarkRead(c *fiber.Ctx) error {
	if h.replySync == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, domain.ErrReplySyncDisabled.Error())
	}
	return h.transition(c, h.replySync.MarkRead)
}

// MarkResponded closes out a record's reply.
func (h *OutreachHandler) MarkResponded(c *fiber.Ctx) error {
	if h.replySync == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, domain.ErrReplySyncDisabled.Error())
	}
	return h.transition(c, h.replySync.MarkResponded)
}

func (h *OutreachHandler) transition(c *fiber.Ctx, apply func(ctx context.Context, id string) error) error {
	err := apply(c.Context(), c.Params("id"))
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": "ok"})
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Outreach record not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

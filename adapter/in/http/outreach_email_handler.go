package http

import (
	"errors"

	"outreach_server/core/domain"
	"outreach_server/core/port/in"
	"outreach_server/core/port/out"

	"github.com/gofiber/fiber/v2"
)

// EmailHandler handles outbound outreach email requests.
type EmailHandler struct {
	mail in.OutreachMail
}

func NewEmailHandler(mail in.OutreachMail) *EmailHandler {
	return &EmailHandler{mail: mail}
}

// Register registers email routes.
func (h *EmailHandler) Register(router fiber.Router) {
	email := router.Group("/email")
	email.Post("/send", h.SendEmail)
}

// SendEmailRequest identifies the provider contact and template to send.
type SendEmailRequest struct {
	ProviderID      string   `json:"provider_id"`
	ContactID       string   `json:"contact_id"`
	TemplateName    string   `json:"template_name,omitempty"`
	AttachmentPaths []string `json:"attachment_paths,omitempty"`
}

// SendEmail renders and sends one outreach email.
func (h *EmailHandler) SendEmail(c *fiber.Ctx) error {
	var req SendEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ProviderID == "" || req.ContactID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "provider_id and contact_id are required")
	}

	outcome, err := h.mail.Send(c.Context(), &in.SendOutreachInput{
		ProviderID:      req.ProviderID,
		ContactID:       req.ContactID,
		TemplateName:    req.TemplateName,
		AttachmentPaths: req.AttachmentPaths,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	status := fiber.StatusOK
	if outcome.Result.Status != out.DeliverySuccess {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(outcome)
}

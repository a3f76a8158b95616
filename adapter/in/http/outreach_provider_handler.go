package http

import (
	"outreach_server/core/domain"
	"outreach_server/core/port/out"

	"github.com/gofiber/fiber/v2"
)

// ProviderHandler handles provider and contact requests.
type ProviderHandler struct {
	providerRepo out.ProviderRepository
	contactRepo  out.ContactRepository
}

func NewProviderHandler(providerRepo out.ProviderRepository, contactRepo out.ContactRepository) *ProviderHandler {
	return &ProviderHandler{
		providerRepo: providerRepo,
		contactRepo:  contactRepo,
	}
}

// Register registers provider routes.
func (h *ProviderHandler) Register(router fiber.Router) {
	providers := router.Group("/providers")

	providers.Get("/", h.ListProviders)
	providers.Get("/:id", h.GetProvider)
	providers.Post("/", h.CreateProvider)
	providers.Put("/:id/status", h.UpdateProviderStatus)
	providers.Delete("/:id", h.DeleteProvider)

	// Contacts
	providers.Get("/:id/contacts", h.ListContacts)
	providers.Post("/:id/contacts", h.CreateContact)

	contacts := router.Group("/contacts")
	contacts.Get("/:id", h.GetContact)
	contacts.Delete("/:id", h.DeleteContact)
}

// =============================================================================
// Providers
// =============================================================================

// ListProviders returns all providers.
func (h *ProviderHandler) ListProviders(c *fiber.Ctx) error {
	providers, err := h.providerRepo.List(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"providers": providers,
		"total":     len(providers),
	})
}

// GetProvider returns a single provider.
func (h *ProviderHandler) GetProvider(c *fiber.Ctx) error {
	provider, err := h.providerRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if provider == nil {
		return fiber.NewError(fiber.StatusNotFound, "Provider not found")
	}
	return c.JSON(provider)
}

// CreateProviderRequest represents provider creation request.
type CreateProviderRequest struct {
	Name             string `json:"name"`
	DBAName          string `json:"dba_name,omitempty"`
	Address          string `json:"address,omitempty"`
	ProviderType     string `json:"provider_type,omitempty"`
	StatesInContract string `json:"states_in_contract,omitempty"`
	NPI              string `json:"npi,omitempty"`
	Specialty        string `json:"specialty,omitempty"`
}

// CreateProvider creates a new provider.
func (h *ProviderHandler) CreateProvider(c *fiber.Ctx) error {
	var req CreateProviderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Provider name is required")
	}

	provider := domain.NewProvider(req.Name)
	provider.DBAName = req.DBAName
	provider.Address = req.Address
	provider.ProviderType = req.ProviderType
	provider.StatesInContract = req.StatesInContract
	provider.NPI = req.NPI
	provider.Specialty = req.Specialty

	if err := h.providerRepo.Create(c.Context(), provider); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(provider)
}

// UpdateProviderStatusRequest represents a status update.
type UpdateProviderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateProviderStatus updates a provider's recruitment status.
func (h *ProviderHandler) UpdateProviderStatus(c *fiber.Ctx) error {
	var req UpdateProviderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	status := domain.ProviderStatus(req.Status)
	switch status {
	case domain.ProviderPending, domain.ProviderOutreach, domain.ProviderContracted, domain.ProviderDeclined:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid provider status")
	}

	provider, err := h.providerRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if provider == nil {
		return fiber.NewError(fiber.StatusNotFound, "Provider not found")
	}

	if err := h.providerRepo.UpdateStatus(c.Context(), provider.ID, status); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	provider.Status = status
	return c.JSON(provider)
}

// DeleteProvider deletes a provider.
func (h *ProviderHandler) DeleteProvider(c *fiber.Ctx) error {
	if err := h.providerRepo.Delete(c.Context(), c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// =============================================================================
// Contacts
// =============================================================================

// ListContacts returns a provider's contacts.
func (h *ProviderHandler) ListContacts(c *fiber.Ctx) error {
	contacts, err := h.contactRepo.ListByProvider(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"contacts": contacts,
		"total":    len(contacts),
	})
}

// CreateContactRequest represents contact creation request.
type CreateContactRequest struct {
	Name                   string `json:"name"`
	Email                  string `json:"email,omitempty"`
	Phone                  string `json:"phone,omitempty"`
	Title                  string `json:"title,omitempty"`
	PreferredContactMethod string `json:"preferred_contact_method,omitempty"`
}

// CreateContact creates a contact under a provider.
func (h *ProviderHandler) CreateContact(c *fiber.Ctx) error {
	var req CreateContactRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Contact name is required")
	}

	provider, err := h.providerRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if provider == nil {
		return fiber.NewError(fiber.StatusNotFound, "Provider not found")
	}

	contact := domain.NewContact(provider.ID, req.Name)
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Title = req.Title
	contact.PreferredContactMethod = req.PreferredContactMethod

	if err := h.contactRepo.Create(c.Context(), contact); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

// GetContact returns a single contact.
func (h *ProviderHandler) GetContact(c *fiber.Ctx) error {
	contact, err := h.contactRepo.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if contact == nil {
		return fiber.NewError(fiber.StatusNotFound, "Contact not found")
	}
	return c.JSON(contact)
}

// DeleteContact deletes a contact.
func (h *ProviderHandler) DeleteContact(c *fiber.Ctx) error {
	if err := h.contactRepo.Delete(c.Context(), c.Params("id")); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

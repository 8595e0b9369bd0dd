package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

// ContactHandler serves the contact intake and triage endpoints.
type ContactHandler struct {
	cfg      *config.Config
	contacts services.IContactService
	notifier services.INotifier
}

// NewContactHandler creates a ContactHandler.
func NewContactHandler(cfg *config.Config, contacts services.IContactService, notifier services.INotifier) *ContactHandler {
	return &ContactHandler{cfg: cfg, contacts: contacts, notifier: notifier}
}

type submitContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type updateContactRequest struct {
	Status     *models.ContactStatus   `json:"status"`
	Priority   *models.ContactPriority `json:"priority"`
	Category   *models.ContactCategory `json:"category"`
	Response   *string                 `json:"response"`
	AssignedTo *string                 `json:"assignedTo"`
}

// Submit handles POST /api/contact/submit. Confirmation and admin-alert
// mail is fire and forget: a mail problem never changes the HTTP outcome.
func (h *ContactHandler) Submit(c *gin.Context) {
	var req submitContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	contact, err := h.contacts.Submit(c.Request.Context(), req.Name, req.Email, req.Phone, req.Subject, req.Message)
	if err != nil {
		respondServiceError(c, err, "Contact not found")
		return
	}

	if err := h.notifier.Notify(c.Request.Context(), []string{contact.Email}, models.TmplContactConfirmation, map[string]string{
		"Name":    contact.Name,
		"Subject": contact.Subject,
	}); err != nil {
		log.Printf("Failed to enqueue contact confirmation for %s: %v", contact.Email, err)
	}
	if err := h.notifier.Notify(c.Request.Context(), []string{h.cfg.AdminEmail}, models.TmplContactAdminAlert, map[string]string{
		"Name":    contact.Name,
		"Email":   contact.Email,
		"Subject": contact.Subject,
		"Message": contact.Message,
	}); err != nil {
		log.Printf("Failed to enqueue admin alert for contact %s: %v", contact.ID.Hex(), err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Your message has been received. We will get back to you soon.",
		"data": gin.H{
			"id":     contact.ID.Hex(),
			"status": contact.Status,
		},
	})
}

// List handles GET /api/contact. Supports page, limit and the status
// and priority filters.
func (h *ContactHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		respondError(c, http.StatusBadRequest, "Invalid page parameter")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		respondError(c, http.StatusBadRequest, "Invalid limit parameter")
		return
	}

	status := models.ContactStatus(c.Query("status"))
	if status != "" && !models.ValidContactStatus(status) {
		respondError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}
	priority := models.ContactPriority(c.Query("priority"))
	if priority != "" && !models.ValidContactPriority(priority) {
		respondError(c, http.StatusBadRequest, "Invalid priority filter")
		return
	}

	contacts, pagination, err := h.contacts.List(c.Request.Context(), page, limit, status, priority)
	if err != nil {
		respondServiceError(c, err, "Contact not found")
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}

	respondData(c, http.StatusOK, gin.H{
		"contacts":   contacts,
		"pagination": pagination,
	})
}

// Get handles GET /api/contact/:id.
func (h *ContactHandler) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	contact, err := h.contacts.FindByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Contact not found")
		return
	}
	respondData(c, http.StatusOK, contact)
}

// Update handles PUT /api/contact/:id. Adding a response triggers one
// best-effort reply mail to the original sender.
func (h *ContactHandler) Update(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	var req updateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	upd := services.ContactUpdate{
		Status:   req.Status,
		Priority: req.Priority,
		Category: req.Category,
		Response: req.Response,
	}
	if req.AssignedTo != nil {
		assignee, err := primitive.ObjectIDFromHex(*req.AssignedTo)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid assignee ID")
			return
		}
		upd.AssignedTo = &assignee
	}

	contact, err := h.contacts.Update(c.Request.Context(), id, upd)
	if err != nil {
		respondServiceError(c, err, "Contact not found")
		return
	}

	if req.Response != nil {
		if err := h.notifier.Notify(c.Request.Context(), []string{contact.Email}, models.TmplContactResponse, map[string]string{
			"Name":     contact.Name,
			"Subject":  contact.Subject,
			"Response": *req.Response,
		}); err != nil {
			log.Printf("Failed to enqueue contact response for %s: %v", contact.Email, err)
		}
	}

	respondData(c, http.StatusOK, contact)
}

// Delete handles DELETE /api/contact/:id.
func (h *ContactHandler) Delete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Contact not found")
		return
	}
	respondMessage(c, http.StatusOK, "Contact deleted")
}

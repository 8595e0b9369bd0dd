package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
)

func contactTestRouter(contacts *mockContactService, notifier *mockNotifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{AdminEmail: "admin@dabbadrop.example.com", AppName: "DabbaDrop"}
	h := NewContactHandler(cfg, contacts, notifier)

	r := gin.New()
	r.POST("/api/contact/submit", h.Submit)
	r.GET("/api/contact", h.List)
	r.GET("/api/contact/:id", h.Get)
	r.PUT("/api/contact/:id", h.Update)
	r.DELETE("/api/contact/:id", h.Delete)
	return r
}

func postJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitContact_Created(t *testing.T) {
	contacts := new(mockContactService)
	notifier := new(mockNotifier)
	r := contactTestRouter(contacts, notifier)

	saved := &models.Contact{
		ID:       primitive.NewObjectID(),
		Name:     "Asha",
		Email:    "asha@example.com",
		Subject:  "Late delivery",
		Message:  "My order arrived cold.",
		Status:   models.ContactStatusPending,
		Priority: models.ContactPriorityMedium,
		Category: models.ContactCategoryGeneral,
	}
	contacts.On("Submit", mock.Anything, "Asha", "ASHA@Example.com", "", "Late delivery", "My order arrived cold.").
		Return(saved, nil)
	notifier.On("Notify", mock.Anything, []string{"asha@example.com"}, models.TmplContactConfirmation, mock.Anything).Return(nil)
	notifier.On("Notify", mock.Anything, []string{"admin@dabbadrop.example.com"}, models.TmplContactAdminAlert, mock.Anything).Return(nil)

	w := postJSON(r, http.MethodPost, "/api/contact/submit", gin.H{
		"name":    "Asha",
		"email":   "ASHA@Example.com",
		"subject": "Late delivery",
		"message": "My order arrived cold.",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, saved.ID.Hex(), resp.Data.ID)
	assert.Equal(t, "pending", resp.Data.Status)

	notifier.AssertNumberOfCalls(t, "Notify", 2)
}

func TestSubmitContact_ValidationFailure(t *testing.T) {
	contacts := new(mockContactService)
	notifier := new(mockNotifier)
	r := contactTestRouter(contacts, notifier)

	contacts.On("Submit", mock.Anything, "", "", "", "", "").
		Return(nil, &models.ValidationError{Problems: []string{
			"name is required", "email is required", "subject is required", "message is required",
		}})

	w := postJSON(r, http.MethodPost, "/api/contact/submit", gin.H{})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")
	assert.Contains(t, w.Body.String(), "message is required")
	notifier.AssertNotCalled(t, "Notify")
}

func TestSubmitContact_EmailFailureDoesNotChangeOutcome(t *testing.T) {
	contacts := new(mockContactService)
	notifier := new(mockNotifier)
	r := contactTestRouter(contacts, notifier)

	saved := &models.Contact{
		ID:     primitive.NewObjectID(),
		Name:   "Ravi",
		Email:  "ravi@example.com",
		Status: models.ContactStatusPending,
	}
	contacts.On("Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(saved, nil)
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("queue unreachable"))

	w := postJSON(r, http.MethodPost, "/api/contact/submit", gin.H{
		"name":    "Ravi",
		"email":   "ravi@example.com",
		"subject": "Question",
		"message": "Do you deliver on Sundays?",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListContacts_PaginationMeta(t *testing.T) {
	contacts := new(mockContactService)
	r := contactTestRouter(contacts, new(mockNotifier))

	contacts.On("List", mock.Anything, 2, 10, models.ContactStatus(""), models.ContactPriority("")).
		Return([]models.Contact{{Name: "A"}, {Name: "B"}}, &services.ContactPage{
			CurrentPage:   2,
			TotalPages:    3,
			TotalContacts: 25,
			HasNext:       true,
			HasPrev:       true,
		}, nil)

	w := postJSON(r, http.MethodGet, "/api/contact?page=2&limit=10", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Contacts   []models.Contact     `json:"contacts"`
			Pagination services.ContactPage `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Contacts, 2)
	assert.Equal(t, 2, resp.Data.Pagination.CurrentPage)
	assert.Equal(t, 3, resp.Data.Pagination.TotalPages)
	assert.Equal(t, 25, resp.Data.Pagination.TotalContacts)
	assert.True(t, resp.Data.Pagination.HasNext)
	assert.True(t, resp.Data.Pagination.HasPrev)
}

func TestListContacts_InvalidFilter(t *testing.T) {
	contacts := new(mockContactService)
	r := contactTestRouter(contacts, new(mockNotifier))

	w := postJSON(r, http.MethodGet, "/api/contact?status=bogus", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	contacts.AssertNotCalled(t, "List")
}

func TestGetContact_NotFound(t *testing.T) {
	contacts := new(mockContactService)
	r := contactTestRouter(contacts, new(mockNotifier))

	id := primitive.NewObjectID()
	contacts.On("FindByID", mock.Anything, id).Return(nil, mongo.ErrNoDocuments)

	w := postJSON(r, http.MethodGet, "/api/contact/"+id.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetContact_InvalidID(t *testing.T) {
	r := contactTestRouter(new(mockContactService), new(mockNotifier))

	w := postJSON(r, http.MethodGet, "/api/contact/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateContact_ResponseTriggersOneMail(t *testing.T) {
	contacts := new(mockContactService)
	notifier := new(mockNotifier)
	r := contactTestRouter(contacts, notifier)

	id := primitive.NewObjectID()
	respondedAt := time.Now().UTC()
	updated := &models.Contact{
		ID:          id,
		Name:        "Asha",
		Email:       "asha@example.com",
		Subject:     "Late delivery",
		Response:    "We are sorry, a refund is on its way.",
		Status:      models.ContactStatusResolved,
		RespondedAt: &respondedAt,
	}
	contacts.On("Update", mock.Anything, id, mock.MatchedBy(func(upd services.ContactUpdate) bool {
		return upd.Response != nil && *upd.Response == "We are sorry, a refund is on its way."
	})).Return(updated, nil)
	notifier.On("Notify", mock.Anything, []string{"asha@example.com"}, models.TmplContactResponse, mock.Anything).Return(nil)

	w := postJSON(r, http.MethodPut, "/api/contact/"+id.Hex(), gin.H{
		"status":   "resolved",
		"response": "We are sorry, a refund is on its way.",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "respondedAt")
	notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestUpdateContact_NoResponseNoMail(t *testing.T) {
	contacts := new(mockContactService)
	notifier := new(mockNotifier)
	r := contactTestRouter(contacts, notifier)

	id := primitive.NewObjectID()
	contacts.On("Update", mock.Anything, id, mock.Anything).
		Return(&models.Contact{ID: id, Status: models.ContactStatusInProgress}, nil)

	w := postJSON(r, http.MethodPut, "/api/contact/"+id.Hex(), gin.H{"status": "in-progress"})

	require.Equal(t, http.StatusOK, w.Code)
	notifier.AssertNotCalled(t, "Notify")
}

func TestDeleteContact(t *testing.T) {
	contacts := new(mockContactService)
	r := contactTestRouter(contacts, new(mockNotifier))

	existing := primitive.NewObjectID()
	missing := primitive.NewObjectID()
	contacts.On("Delete", mock.Anything, existing).Return(nil)
	contacts.On("Delete", mock.Anything, missing).Return(mongo.ErrNoDocuments)

	w := postJSON(r, http.MethodDelete, "/api/contact/"+existing.Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, http.MethodDelete, "/api/contact/"+missing.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

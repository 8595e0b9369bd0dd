package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/models"
	"github.com/Shubhams-here/Dabba-Drop/internal/utils"
)

func setupContactService(t *testing.T) (IContactService, *mongo.Database) {
	db := utils.SetupTestDB(t, "dabbadrop_contact_test", "contacts", "users")
	return NewContactService(db), db
}

func TestSubmit_AppliesDefaultsAndNormalizes(t *testing.T) {
	svc, _ := setupContactService(t)

	contact, err := svc.Submit(context.Background(),
		"  Asha  ", "  ASHA@Example.COM ", "", "Late delivery", "My order arrived cold.")
	require.NoError(t, err)

	assert.Equal(t, "Asha", contact.Name)
	assert.Equal(t, "asha@example.com", contact.Email)
	assert.Equal(t, models.ContactStatusPending, contact.Status)
	assert.Equal(t, models.ContactPriorityMedium, contact.Priority)
	assert.Equal(t, models.ContactCategoryGeneral, contact.Category)
	assert.False(t, contact.ID.IsZero())
}

func TestSubmit_ValidationJoinsAllProblems(t *testing.T) {
	svc, _ := setupContactService(t)

	_, err := svc.Submit(context.Background(), "", "not-an-email", "", "", "")
	require.Error(t, err)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.GreaterOrEqual(t, len(vErr.Problems), 3)
	assert.Contains(t, err.Error(), "Name")
	assert.Contains(t, err.Error(), "valid email")
}

func TestList_PaginationWindow(t *testing.T) {
	svc, _ := setupContactService(t)
	ctx := context.Background()

	// inserted in order, listed newest first
	for i := 1; i <= 25; i++ {
		_, err := svc.Submit(ctx,
			fmt.Sprintf("Visitor %02d", i),
			fmt.Sprintf("visitor%02d@example.com", i),
			"",
			fmt.Sprintf("Subject %02d", i),
			"A long enough message body.")
		require.NoError(t, err)
	}

	contacts, page, err := svc.List(ctx, 2, 10, "", "")
	require.NoError(t, err)

	require.Len(t, contacts, 10)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalContacts)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)

	// newest first: page 2 of 25 holds numbers 15 down to 06
	assert.Equal(t, "visitor15@example.com", contacts[0].Email)
	assert.Equal(t, "visitor06@example.com", contacts[9].Email)
}

func TestList_StatusFilter(t *testing.T) {
	svc, _ := setupContactService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, "A", "a@example.com", "", "One", "Message one goes here.")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "B", "b@example.com", "", "Two", "Message two goes here.")
	require.NoError(t, err)

	resolved := models.ContactStatusResolved
	_, err = svc.Update(ctx, first.ID, ContactUpdate{Status: &resolved})
	require.NoError(t, err)

	contacts, page, err := svc.List(ctx, 1, 10, models.ContactStatusResolved, "")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "a@example.com", contacts[0].Email)
	assert.Equal(t, 1, page.TotalContacts)
}

func TestUpdate_ResponseStampsRespondedAt(t *testing.T) {
	svc, _ := setupContactService(t)
	ctx := context.Background()

	contact, err := svc.Submit(ctx, "Asha", "asha@example.com", "", "Late delivery", "My order arrived cold.")
	require.NoError(t, err)
	require.Nil(t, contact.RespondedAt)

	response := "A refund is on its way."
	updated, err := svc.Update(ctx, contact.ID, ContactUpdate{Response: &response})
	require.NoError(t, err)

	assert.Equal(t, response, updated.Response)
	require.NotNil(t, updated.RespondedAt)
}

func TestUpdate_InvalidEnumRejected(t *testing.T) {
	svc, _ := setupContactService(t)
	ctx := context.Background()

	contact, err := svc.Submit(ctx, "Asha", "asha@example.com", "", "Late delivery", "My order arrived cold.")
	require.NoError(t, err)

	bogus := models.ContactStatus("annihilated")
	_, err = svc.Update(ctx, contact.ID, ContactUpdate{Status: &bogus})

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdate_ResolvesAssignee(t *testing.T) {
	svc, db := setupContactService(t)
	ctx := context.Background()

	staff := models.User{
		ID:       primitive.NewObjectID(),
		FullName: "Meera Iyer",
		Email:    "meera@dabbadrop.example.com",
		Role:     models.RoleUser,
		IsAdmin:  true,
	}
	_, err := db.Collection("users").InsertOne(ctx, staff)
	require.NoError(t, err)

	contact, err := svc.Submit(ctx, "Asha", "asha@example.com", "", "Late delivery", "My order arrived cold.")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, contact.ID, ContactUpdate{AssignedTo: &staff.ID})
	require.NoError(t, err)

	require.NotNil(t, updated.Assignee)
	assert.Equal(t, "Meera Iyer", updated.Assignee.FullName)
	assert.Equal(t, "meera@dabbadrop.example.com", updated.Assignee.Email)
}

func TestDelete_MissingContact(t *testing.T) {
	svc, _ := setupContactService(t)

	err := svc.Delete(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestFindByID_Missing(t *testing.T) {
	svc, _ := setupContactService(t)

	_, err := svc.FindByID(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

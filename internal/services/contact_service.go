package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Shubhams-here/Dabba-Drop/internal/db"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// ContactPage holds pagination metadata for contact listings.
type ContactPage struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalContacts int  `json:"totalContacts"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

// ContactUpdate carries the staff-editable fields of a contact.
// Nil fields are left untouched.
type ContactUpdate struct {
	Status     *models.ContactStatus
	Priority   *models.ContactPriority
	Category   *models.ContactCategory
	Response   *string
	AssignedTo *primitive.ObjectID
}

// IContactService defines the interface for contact intake and triage.
type IContactService interface {
	Submit(ctx context.Context, name, email, phone, subject, message string) (*models.Contact, error)
	List(ctx context.Context, page, limit int, status models.ContactStatus, priority models.ContactPriority) ([]models.Contact, *ContactPage, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error)
	Update(ctx context.Context, id primitive.ObjectID, upd ContactUpdate) (*models.Contact, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

const contactsCollection = "contacts"

// contactService implements IContactService.
type contactService struct {
	db *mongo.Database
}

// NewContactService creates a new ContactService.
func NewContactService(db *mongo.Database) IContactService {
	return &contactService{db: db}
}

// Submit validates, normalizes and persists a new contact message.
// Emails are the caller's concern; this only owns the store write.
func (s *contactService) Submit(ctx context.Context, name, email, phone, subject, message string) (*models.Contact, error) {
	contact := models.NewContact(name, email, phone, subject, message)
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	var res *mongo.InsertOneResult
	err := db.Try(func() error {
		var insertErr error
		res, insertErr = s.db.Collection(contactsCollection).InsertOne(ctx, contact)
		return insertErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}
	contact.ID = res.InsertedID.(primitive.ObjectID)
	return contact, nil
}

// List returns one page of contacts, newest first, with the assignee
// identity resolved and pagination metadata attached.
func (s *contactService) List(ctx context.Context, page, limit int, status models.ContactStatus, priority models.ContactPriority) ([]models.Contact, *ContactPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if priority != "" {
		filter["priority"] = priority
	}

	collection := s.db.Collection(contactsCollection)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	// _id breaks ties for documents created within the same millisecond
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []models.Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, nil, fmt.Errorf("failed to decode contacts: %w", err)
	}

	if err := s.resolveAssignees(ctx, contacts); err != nil {
		return nil, nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	pagination := &ContactPage{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalContacts: int(total),
		HasNext:       int64(page*limit) < total,
		HasPrev:       page > 1,
	}
	return contacts, pagination, nil
}

// FindByID fetches a single contact with its assignee resolved.
// Returns mongo.ErrNoDocuments when absent.
func (s *contactService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Collection(contactsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&contact)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}

	single := []models.Contact{contact}
	if err := s.resolveAssignees(ctx, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// Update applies only the supplied fields. Setting Response also stamps
// RespondedAt with the current time. Returns mongo.ErrNoDocuments when
// the contact does not exist.
func (s *contactService) Update(ctx context.Context, id primitive.ObjectID, upd ContactUpdate) (*models.Contact, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}

	if upd.Status != nil {
		if !models.ValidContactStatus(*upd.Status) {
			return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("`%s` is not a valid status", *upd.Status)}}
		}
		set["status"] = *upd.Status
	}
	if upd.Priority != nil {
		if !models.ValidContactPriority(*upd.Priority) {
			return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("`%s` is not a valid priority", *upd.Priority)}}
		}
		set["priority"] = *upd.Priority
	}
	if upd.Category != nil {
		if !models.ValidContactCategory(*upd.Category) {
			return nil, &models.ValidationError{Problems: []string{fmt.Sprintf("`%s` is not a valid category", *upd.Category)}}
		}
		set["category"] = *upd.Category
	}
	if upd.Response != nil {
		set["response"] = *upd.Response
		set["respondedAt"] = time.Now().UTC()
	}
	if upd.AssignedTo != nil {
		set["assignedTo"] = *upd.AssignedTo
	}

	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var contact models.Contact
	err := s.db.Collection(contactsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).
		Decode(&contact)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	single := []models.Contact{contact}
	if err := s.resolveAssignees(ctx, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// Delete removes a contact by ID. Returns mongo.ErrNoDocuments when the
// contact does not exist, making retries an idempotent no-op.
func (s *contactService) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(contactsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// resolveAssignees fills the transient Assignee field from the users
// collection for every contact that has an assignedTo reference.
func (s *contactService) resolveAssignees(ctx context.Context, contacts []models.Contact) error {
	ids := make([]primitive.ObjectID, 0)
	seen := make(map[primitive.ObjectID]bool)
	for i := range contacts {
		if contacts[i].AssignedTo != nil && !seen[*contacts[i].AssignedTo] {
			seen[*contacts[i].AssignedTo] = true
			ids = append(ids, *contacts[i].AssignedTo)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("failed to resolve assignees: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return fmt.Errorf("failed to decode assignees: %w", err)
	}

	byID := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	for i := range contacts {
		if contacts[i].AssignedTo == nil {
			continue
		}
		if u, ok := byID[*contacts[i].AssignedTo]; ok {
			contacts[i].Assignee = &models.Assignee{ID: u.ID, FullName: u.FullName, Email: u.Email}
		}
	}
	return nil
}

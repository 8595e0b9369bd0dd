package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactStatus tracks where a contact message sits in the triage flow.
type ContactStatus string

const (
	ContactStatusPending    ContactStatus = "pending"
	ContactStatusInProgress ContactStatus = "in-progress"
	ContactStatusResolved   ContactStatus = "resolved"
	ContactStatusClosed     ContactStatus = "closed"
)

// ContactPriority ranks how urgently a contact message needs attention.
type ContactPriority string

const (
	ContactPriorityLow    ContactPriority = "low"
	ContactPriorityMedium ContactPriority = "medium"
	ContactPriorityHigh   ContactPriority = "high"
	ContactPriorityUrgent ContactPriority = "urgent"
)

// ContactCategory classifies the topic of a contact message.
type ContactCategory string

const (
	ContactCategoryGeneral     ContactCategory = "general"
	ContactCategoryTechnical   ContactCategory = "technical"
	ContactCategoryBilling     ContactCategory = "billing"
	ContactCategoryPartnership ContactCategory = "partnership"
	ContactCategoryComplaint   ContactCategory = "complaint"
	ContactCategoryFeedback    ContactCategory = "feedback"
)

const (
	ContactNameMaxLen    = 50
	ContactSubjectMaxLen = 100
	ContactMessageMaxLen = 1000
)

var (
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// Contact is a message submitted through the public contact form.
// Mutated only by staff after creation, never by the submitter.
type Contact struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string              `bson:"name" json:"name"`
	Email       string              `bson:"email" json:"email"`
	Phone       string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Subject     string              `bson:"subject" json:"subject"`
	Message     string              `bson:"message" json:"message"`
	Status      ContactStatus       `bson:"status" json:"status"`
	Priority    ContactPriority     `bson:"priority" json:"priority"`
	Category    ContactCategory     `bson:"category" json:"category"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Assignee    *Assignee           `bson:"-" json:"assignee,omitempty"` // resolved on read, not stored
	Response    string              `bson:"response,omitempty" json:"response,omitempty"`
	RespondedAt *time.Time          `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Assignee is the resolved identity of the staff member a contact is assigned to.
type Assignee struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"fullName"`
	Email    string             `json:"email"`
}

// NewContact builds a contact with trimmed fields, a lowercased email and
// the standard defaults applied.
func NewContact(name, email, phone, subject, message string) *Contact {
	now := time.Now().UTC()
	return &Contact{
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Phone:     strings.TrimSpace(phone),
		Subject:   strings.TrimSpace(subject),
		Message:   strings.TrimSpace(message),
		Status:    ContactStatusPending,
		Priority:  ContactPriorityMedium,
		Category:  ContactCategoryGeneral,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the field constraints and returns all violations joined
// into one human-readable message, matching the 400 response contract.
func (c *Contact) Validate() error {
	var problems []string

	switch {
	case c.Name == "":
		problems = append(problems, "Name is required")
	case len(c.Name) > ContactNameMaxLen:
		problems = append(problems, fmt.Sprintf("Name cannot be more than %d characters", ContactNameMaxLen))
	}

	switch {
	case c.Email == "":
		problems = append(problems, "Email is required")
	case !emailPattern.MatchString(c.Email):
		problems = append(problems, "Please enter a valid email")
	}

	if c.Phone != "" && !phonePattern.MatchString(c.Phone) {
		problems = append(problems, "Please enter a valid phone number")
	}

	switch {
	case c.Subject == "":
		problems = append(problems, "Subject is required")
	case len(c.Subject) > ContactSubjectMaxLen:
		problems = append(problems, fmt.Sprintf("Subject cannot be more than %d characters", ContactSubjectMaxLen))
	}

	switch {
	case c.Message == "":
		problems = append(problems, "Message is required")
	case len(c.Message) > ContactMessageMaxLen:
		problems = append(problems, fmt.Sprintf("Message cannot be more than %d characters", ContactMessageMaxLen))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidContactStatus reports whether s is one of the triage statuses.
func ValidContactStatus(s ContactStatus) bool {
	switch s {
	case ContactStatusPending, ContactStatusInProgress, ContactStatusResolved, ContactStatusClosed:
		return true
	}
	return false
}

// ValidContactPriority reports whether p is one of the known priorities.
func ValidContactPriority(p ContactPriority) bool {
	switch p {
	case ContactPriorityLow, ContactPriorityMedium, ContactPriorityHigh, ContactPriorityUrgent:
		return true
	}
	return false
}

// ValidContactCategory reports whether c is one of the known categories.
func ValidContactCategory(c ContactCategory) bool {
	switch c {
	case ContactCategoryGeneral, ContactCategoryTechnical, ContactCategoryBilling,
		ContactCategoryPartnership, ContactCategoryComplaint, ContactCategoryFeedback:
		return true
	}
	return false
}

package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Template IDs for the transactional emails the system sends.
const (
	TmplContactConfirmation  = "contact_confirmation"
	TmplContactAdminAlert    = "contact_admin_alert"
	TmplContactResponse      = "contact_response"
	TmplDeliveryOtp          = "delivery_otp"
	TmplDeliveryConfirmation = "delivery_confirmation"
)

// EmailTemplate defines the structure for email templates stored in the DB.
type EmailTemplate struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TemplateID string             `bson:"template_id" json:"template_id"` // e.g., "contact_confirmation", "delivery_otp"
	Locale     string             `bson:"locale" json:"locale"`           // e.g., "en-US", "hi-IN"
	Subject    string             `bson:"subject" json:"subject"`         // Subject template
	Body       string             `bson:"body" json:"body"`               // Body template (plain text or HTML)
}

package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// IEmailTemplateService defines the interface for fetching email templates.
type IEmailTemplateService interface {
	GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error)
}

const emailTemplatesCollection = "email_templates"
const defaultLocale = "en-US"

// defaultEmailTemplates back every template ID so mail still goes out on
// a fresh database with no templates seeded. Subjects here are also what
// the mock senders use to classify outbound mail in tests.
var defaultEmailTemplates = map[string]models.EmailTemplate{
	models.TmplContactConfirmation: {
		TemplateID: models.TmplContactConfirmation,
		Locale:     defaultLocale,
		Subject:    "Thank you for contacting {{.AppName}}",
		Body:       "Hi {{.Name}},\n\nWe received your message about \"{{.Subject}}\" and our team will get back to you soon.\n\n— The {{.AppName}} team\n",
	},
	models.TmplContactAdminAlert: {
		TemplateID: models.TmplContactAdminAlert,
		Locale:     defaultLocale,
		Subject:    "New Contact Form Submission: {{.Subject}}",
		Body:       "New message from {{.Name}} <{{.Email}}>:\n\n{{.Message}}\n",
	},
	models.TmplContactResponse: {
		TemplateID: models.TmplContactResponse,
		Locale:     defaultLocale,
		Subject:    "Re: {{.Subject}}",
		Body:       "Hi {{.Name}},\n\n{{.Response}}\n\n— The {{.AppName}} team\n",
	},
	models.TmplDeliveryOtp: {
		TemplateID: models.TmplDeliveryOtp,
		Locale:     defaultLocale,
		Subject:    "Your {{.AppName}} Delivery OTP",
		Body:       "Hi {{.Name}},\n\nYour delivery OTP is {{.Otp}}. Share it with the courier to receive your order. It expires in {{.Minutes}} minutes.\n",
	},
	models.TmplDeliveryConfirmation: {
		TemplateID: models.TmplDeliveryConfirmation,
		Locale:     defaultLocale,
		Subject:    "Your {{.AppName}} Order Was Delivered",
		Body:       "Hi {{.Name}},\n\nOrder {{.OrderId}} has been delivered. Enjoy your meal!\n",
	},
}

// emailTemplateService implements IEmailTemplateService.
type emailTemplateService struct {
	db *mongo.Database
}

// NewEmailTemplateService creates a new EmailTemplateService.
func NewEmailTemplateService(db *mongo.Database) IEmailTemplateService {
	return &emailTemplateService{db: db}
}

// GetTemplate fetches a template by ID and locale, falling back first to
// the default locale and then to the compiled-in defaults.
func (s *emailTemplateService) GetTemplate(ctx context.Context, templateID, locale string) (*models.EmailTemplate, error) {
	if locale == "" {
		locale = defaultLocale
	}

	var tmpl models.EmailTemplate
	err := s.db.Collection(emailTemplatesCollection).
		FindOne(ctx, bson.M{"template_id": templateID, "locale": locale}).
		Decode(&tmpl)
	if err == nil {
		return &tmpl, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to fetch email template %s/%s: %w", templateID, locale, err)
	}

	if locale != defaultLocale {
		return s.GetTemplate(ctx, templateID, defaultLocale)
	}

	if fallback, ok := defaultEmailTemplates[templateID]; ok {
		return &fallback, nil
	}
	return nil, fmt.Errorf("no email template for id %s", templateID)
}

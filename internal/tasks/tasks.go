package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"
	"strings"
	"text/template"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/email"
	"github.com/Shubhams-here/Dabba-Drop/internal/services"
	"github.com/Shubhams-here/Dabba-Drop/internal/storage"
)

// Task type names, namespaced by concern.
const (
	TypeEmailDelivery = "email:deliver"
	TypeImageProcess  = "image:process"
)

// EmailTaskPayload is the job body for a templated email delivery.
type EmailTaskPayload struct {
	To         []string          `json:"to"`
	TemplateID string            `json:"template_id"`
	Locale     string            `json:"locale"`
	Data       map[string]string `json:"data"`
}

// ImageProcessPayload is the job body for shop image post-processing.
type ImageProcessPayload struct {
	ShopID string `json:"shop_id"`
	Key    string `json:"key"`
}

// NewEmailDeliveryTask creates a task for sending an email.
func NewEmailDeliveryTask(payload EmailTaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, data, asynq.MaxRetry(5), asynq.Queue("default")), nil
}

// NewImageProcessTask creates a task for resizing an uploaded shop image.
func NewImageProcessTask(payload ImageProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, data, asynq.MaxRetry(3), asynq.Queue("low")), nil
}

// NewClient creates an asynq client from the Redis settings in cfg.
func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// TaskProcessor holds the dependencies the background handlers need.
type TaskProcessor struct {
	cfg       *config.Config
	templates services.IEmailTemplateService
	shops     services.IShopService
	sender    email.Sender
	store     storage.Storage
}

// NewTaskProcessor creates a TaskProcessor.
func NewTaskProcessor(cfg *config.Config, templates services.IEmailTemplateService, shops services.IShopService, sender email.Sender, store storage.Storage) *TaskProcessor {
	return &TaskProcessor{
		cfg:       cfg,
		templates: templates,
		shops:     shops,
		sender:    sender,
		store:     store,
	}
}

// SetupServer builds the asynq server and mux wired to this processor.
func SetupServer(cfg *config.Config, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	return srv, mux
}

// HandleEmailDeliveryTask renders the template named in the payload and
// hands the finished message to the configured sender.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if len(payload.To) == 0 {
		return fmt.Errorf("email task has no recipients: %w", asynq.SkipRetry)
	}

	tmpl, err := p.templates.GetTemplate(ctx, payload.TemplateID, payload.Locale)
	if err != nil {
		return fmt.Errorf("failed to load email template: %w", err)
	}

	data := map[string]string{"AppName": p.cfg.AppName}
	for k, v := range payload.Data {
		data[k] = v
	}

	subject, err := renderTemplate("subject", tmpl.Subject, data)
	if err != nil {
		return fmt.Errorf("failed to render subject for %s: %v: %w", payload.TemplateID, err, asynq.SkipRetry)
	}
	body, err := renderTemplate("body", tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render body for %s: %v: %w", payload.TemplateID, err, asynq.SkipRetry)
	}

	raw := buildRawMessage(p.cfg.SmtpFromAddress, payload.To, subject, body)
	if err := p.sender.Send(ctx, payload.To, subject, raw); err != nil {
		return fmt.Errorf("failed to send %s email: %w", payload.TemplateID, err)
	}

	log.Printf("Sent %s email to %s", payload.TemplateID, strings.Join(payload.To, ", "))
	return nil
}

// HandleImageProcessTask downloads the raw upload, caps its dimensions,
// re-encodes it as JPEG and records the processed key on the shop.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	shopID, err := primitive.ObjectIDFromHex(payload.ShopID)
	if err != nil {
		return fmt.Errorf("invalid shop id %q: %v: %w", payload.ShopID, err, asynq.SkipRetry)
	}

	raw, err := p.store.Download(ctx, payload.Key)
	if err != nil {
		return fmt.Errorf("failed to fetch raw image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode image %s: %v: %w", payload.Key, err, asynq.SkipRetry)
	}

	maxDim := uint(p.cfg.ImageMaxDimension)
	bounds := img.Bounds()
	if uint(bounds.Dx()) > maxDim || uint(bounds.Dy()) > maxDim {
		img = resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode image %s: %w", payload.Key, err)
	}

	processedKey := strings.TrimSuffix(payload.Key, "/raw") + "/image.jpg"
	if err := p.store.Upload(ctx, processedKey, "image/jpeg", buf.Bytes()); err != nil {
		return fmt.Errorf("failed to store processed image: %w", err)
	}

	if err := p.shops.SetImage(ctx, shopID, processedKey); err != nil {
		return fmt.Errorf("failed to record shop image: %w", err)
	}

	// Raw upload is no longer needed once the processed copy exists.
	if err := p.store.Delete(ctx, payload.Key); err != nil {
		log.Printf("Failed to delete raw upload %s: %v", payload.Key, err)
	}

	log.Printf("Processed image for shop %s -> %s", payload.ShopID, processedKey)
	return nil
}

func renderTemplate(name, text string, data map[string]string) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildRawMessage assembles a minimal RFC 5322 message.
func buildRawMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

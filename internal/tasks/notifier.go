package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// enqueuer is the slice of asynq.Client the notifier needs. Kept small
// so tests can substitute a recorder.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqNotifier implements services.INotifier by queueing an email
// delivery task. The actual send happens in the background worker.
type AsynqNotifier struct {
	client enqueuer
}

// NewAsynqNotifier creates an AsynqNotifier on top of an asynq client.
func NewAsynqNotifier(client *asynq.Client) *AsynqNotifier {
	return &AsynqNotifier{client: client}
}

func (n *AsynqNotifier) Notify(ctx context.Context, to []string, templateID string, data map[string]string) error {
	task, err := NewEmailDeliveryTask(EmailTaskPayload{
		To:         to,
		TemplateID: templateID,
		Data:       data,
	})
	if err != nil {
		return err
	}
	if _, err := n.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s email: %w", templateID, err)
	}
	return nil
}

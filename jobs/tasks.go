package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeFeaturedExpiry demotes sellers whose featured window passed.
	TaskTypeFeaturedExpiry = "sellers:expire_featured"
	// TaskTypeAuditPurge prunes activity-log rows past the retention window.
	TaskTypeAuditPurge = "audit:purge"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewFeaturedExpiryTask constructs the featured-seller expiry task.
func NewFeaturedExpiryTask() *asynq.Task {
	return asynq.NewTask(TaskTypeFeaturedExpiry, nil)
}

// NewAuditPurgeTask constructs the activity-log retention task.
func NewAuditPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuditPurge, nil)
}

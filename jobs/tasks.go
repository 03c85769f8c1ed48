package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail delivers a plain transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeOverdueSweep flips past-due sent invoices to overdue.
	TaskTypeOverdueSweep = "invoice:overdue_sweep"
	// TaskTypeRecurringSweep spawns drafts from due recurring templates.
	TaskTypeRecurringSweep = "invoice:recurring_sweep"
	// TaskTypeReminders delivers scheduled reminder notifications.
	TaskTypeReminders = "invoice:reminders"
	// TaskTypeRatesRefresh re-fetches exchange rates for the cache.
	TaskTypeRatesRefresh = "fx:refresh"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs a send-email task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewOverdueSweepTask constructs an overdue sweep task.
func NewOverdueSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeOverdueSweep, nil)
}

// NewRecurringSweepTask constructs a recurring sweep task.
func NewRecurringSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeRecurringSweep, nil)
}

// NewRemindersTask constructs a reminder delivery task.
func NewRemindersTask() *asynq.Task {
	return asynq.NewTask(TaskTypeReminders, nil)
}

// RatesRefreshPayload names the base currency to refresh against.
type RatesRefreshPayload struct {
	Base string `json:"base"`
}

// NewRatesRefreshTask constructs a rates refresh task.
func NewRatesRefreshTask(base string) (*asynq.Task, error) {
	data, err := json.Marshal(RatesRefreshPayload{Base: base})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRatesRefresh, data), nil
}

// TextSender delivers plain-text email. Satisfied by mail.Mailer.
type TextSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

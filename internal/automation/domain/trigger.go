package domain

import "time"

// TriggerType is the scheduling strategy a Trigger uses.
type TriggerType string

const (
	TriggerCron      TriggerType = "CRON"
	TriggerDate      TriggerType = "DATE"
	TriggerWorkqueue TriggerType = "WORKQUEUE"
)

// Trigger is the scheduling rule for a Process.
type Trigger struct {
	ID                        string
	ProcessID                 string
	Type                      TriggerType
	Cron                      string
	Date                      *time.Time
	WorkqueueID               *string
	WorkqueueScaleUpThreshold int
	WorkqueueResourceLimit    int
	Parameters                string
	Enabled                   bool
	Deleted                   bool
	LastTriggered             *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// ValidateShape enforces the per-type field shape:
// CRON ⇒ cron set, date=nil, workqueue_id=nil.
// DATE ⇒ date set, cron="", workqueue_id=nil.
// WORKQUEUE ⇒ workqueue_id set, cron="", date=nil.
func (t Trigger) ValidateShape() error {
	switch t.Type {
	case TriggerCron:
		if t.Cron == "" || t.Date != nil || t.WorkqueueID != nil {
			return ErrInvalid
		}
	case TriggerDate:
		if t.Date == nil || t.Cron != "" || t.WorkqueueID != nil {
			return ErrInvalid
		}
	case TriggerWorkqueue:
		if t.WorkqueueID == nil || t.Cron != "" || t.Date != nil {
			return ErrInvalid
		}
	default:
		return ErrInvalid
	}
	return nil
}

package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskSweepOverdueLeads = "prospect.sweep_overdue"

// Sweep trigger sources recorded on the task payload.
const (
	TriggerCron  = "cron"
	TriggerAdmin = "admin"
)

type SweepOverdueLeadsPayload struct {
	TriggeredBy string    `json:"triggeredBy"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewSweepOverdueLeadsTask(payload SweepOverdueLeadsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSweepOverdueLeads, data), nil
}

func ParseSweepOverdueLeadsPayload(task *asynq.Task) (SweepOverdueLeadsPayload, error) {
	var payload SweepOverdueLeadsPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SweepOverdueLeadsPayload{}, err
	}
	return payload, nil
}

package handlers

import (
	"net/http"

	"bookline/cron"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// SchedulerHandler exposes manual triggers for the periodic scans, for
// operations and testing.
type SchedulerHandler struct {
	Tasks *asynq.Client
}

// NewSchedulerHandler constructs the handler.
func NewSchedulerHandler(tasks *asynq.Client) *SchedulerHandler {
	return &SchedulerHandler{Tasks: tasks}
}

// RunReminders enqueues an immediate reminder scan.
func (h *SchedulerHandler) RunReminders(c *gin.Context) {
	h.enqueue(c, cron.TypeReminderScan)
}

// RunConfirmations enqueues an immediate confirmation scan.
func (h *SchedulerHandler) RunConfirmations(c *gin.Context) {
	h.enqueue(c, cron.TypeConfirmationScan)
}

func (h *SchedulerHandler) enqueue(c *gin.Context, taskType string) {
	info, err := h.Tasks.Enqueue(asynq.NewTask(taskType, nil))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "enqueue failed", "")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "task_id": info.ID})
}

package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue    TaskQueue
	defaults tasks.Defaults
	schedule TaskSchedule
}

// NewTasksController creates a new TasksController. schedule may be nil.
func NewTasksController(queue TaskQueue, defaults tasks.Defaults, schedule TaskSchedule) *TasksController {
	return &TasksController{queue: queue, defaults: defaults, schedule: schedule}
}

// TaskTypeResponse is a task type with its next scheduled run, if any.
type TaskTypeResponse struct {
	tasks.TypeInfo
	NextRun *time.Time `json:"next_run,omitempty"`
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := tasks.Types()
	response := make([]TaskTypeResponse, len(types))
	for i, info := range types {
		response[i] = TaskTypeResponse{TypeInfo: info}
		if tc.schedule != nil {
			response[i].NextRun = tc.schedule.NextRun(info.Type)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"task_types": response,
	})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "task ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
// Manually enqueues a task of the specified type with the configured defaults.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	task, err := tc.defaults.Build(taskType)
	if errors.Is(err, tasks.ErrUnknownTaskType) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "build task")
		return
	}

	id, err := tc.queue.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    taskType,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

package tasks

import (
	"errors"
	"fmt"

	"github.com/mikestefanello/backlite"
)

// ErrUnknownTaskType is returned by Defaults.Build for unknown names.
var ErrUnknownTaskType = errors.New("unknown task type")

// TypeInfo describes a task type that can be run on demand.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Types lists the on-demand task types.
func Types() []TypeInfo {
	return []TypeInfo{
		{Type: QueueBackupCatalog, Description: "Write a timestamped CSV snapshot of the catalog"},
		{Type: QueueCleanupAuditEvents, Description: "Delete audit events past the retention period"},
	}
}

// Defaults carries the settings that scheduled and on-demand tasks share.
type Defaults struct {
	BackupDir          string
	AuditRetentionDays int
}

// Build creates a task of the named type.
func (d Defaults) Build(taskType string) (backlite.Task, error) {
	switch taskType {
	case QueueBackupCatalog:
		return BackupCatalogTask{Dir: d.BackupDir}, nil
	case QueueCleanupAuditEvents:
		return CleanupAuditEventsTask{RetentionDays: d.AuditRetentionDays}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}
}

package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

const (
	CollectionCatalog = "catalog"
	CollectionShelf   = "shelf"
)

type requestInfoKey struct{}

// RequestInfo identifies the HTTP request that caused an event.
type RequestInfo struct {
	RequestID string
	IPAddress string
}

// WithRequestInfo attaches request details to ctx for later events.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request details stored by WithRequestInfo.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// Service provides high-level audit logging functionality.
// A nil *Service discards every event.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	if s == nil {
		return nil
	}
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if s == nil {
		return
	}
	// Stamp now so events keep the order of the calls, not of the writes.
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// LogMutation records a change to the catalog or the shelf. changed is false
// for operations that turned out to be no-ops, such as borrowing a book that
// is already out.
func (s *Service) LogMutation(ctx context.Context, collection string, eventType entities.AuditEventType, entityID, description string, changed bool, err error) {
	if s == nil {
		return
	}
	info := RequestInfoFrom(ctx)
	event := &entities.AuditEvent{
		EventType:   eventType,
		Collection:  collection,
		EntityID:    truncate(entityID, 512),
		Description: truncate(description, 500),
		RequestID:   info.RequestID,
		IPAddress:   info.IPAddress,
		Status:      entities.AuditStatusSuccess,
	}
	if !changed {
		event.Status = entities.AuditStatusNoop
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogImport records a bulk import into the catalog.
func (s *Service) LogImport(ctx context.Context, source string, booksCount int, err error) {
	if s == nil {
		return
	}
	info := RequestInfoFrom(ctx)
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventImport,
		Collection:  CollectionCatalog,
		Description: truncate("Imported books from "+source, 500),
		RequestID:   info.RequestID,
		IPAddress:   info.IPAddress,
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"source":      source,
		"books_count": booksCount,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogBackup records a catalog snapshot written by the backup task.
func (s *Service) LogBackup(files []string, err error) {
	if s == nil {
		return
	}
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventBackup,
		Collection:  CollectionCatalog,
		Description: "Catalog backup",
		Status:      entities.AuditStatusSuccess,
	}
	if mdBytes, e := json.Marshal(map[string]any{"files": files}); e == nil {
		event.Metadata = string(mdBytes)
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records a librarian login or logout.
func (s *Service) LogAuth(ctx context.Context, action string, success bool) {
	if s == nil {
		return
	}
	info := RequestInfoFrom(ctx)
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventAuth,
		Description: action,
		RequestID:   info.RequestID,
		IPAddress:   info.IPAddress,
		Status:      entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(collection string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(collection, limit, offset)
}

// GetEventsForEntity retrieves the history of one book.
func (s *Service) GetEventsForEntity(collection, entityID string) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(collection, entityID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - len("...")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

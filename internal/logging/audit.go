package logging

import (
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names a change to shop data or a login attempt.
type AuditEventType string

const (
	AuditFileWrite  AuditEventType = "file_write"
	AuditFileDelete AuditEventType = "file_delete"
	AuditFileError  AuditEventType = "file_error"

	AuditJobCreated AuditEventType = "job_created"

	AuditLoginAllow AuditEventType = "login_allow"
	AuditLoginDeny  AuditEventType = "login_deny"
)

// AuditEvent is one line in the audit trail.
type AuditEvent struct {
	EventType AuditEventType
	Kind      string // entity kind for file events
	Target    string // key, job id or username
	Success   bool
	Duration  time.Duration
	Error     error
}

// Audit writes an event under the "audit" logger name. Audit lines share the
// configured outputs with the category loggers so one file holds everything.
func Audit(event AuditEvent) {
	fields := []zap.Field{
		zap.String("event", string(event.EventType)),
		zap.String("target", event.Target),
		zap.Bool("success", event.Success),
	}
	if event.Kind != "" {
		fields = append(fields, zap.String("kind", event.Kind))
	}
	if event.Duration > 0 {
		fields = append(fields, zap.Duration("duration", event.Duration))
	}
	if event.Error != nil {
		fields = append(fields, zap.Error(event.Error))
		Root().Named("audit").Warn("audit", fields...)
		return
	}
	Root().Named("audit").Info("audit", fields...)
}

// AuditWrite records a store write.
func AuditWrite(kind, key string, start time.Time, err error) {
	ev := AuditEvent{EventType: AuditFileWrite, Kind: kind, Target: key, Success: err == nil, Duration: time.Since(start), Error: err}
	if err != nil {
		ev.EventType = AuditFileError
	}
	Audit(ev)
}

// AuditDelete records a store delete.
func AuditDelete(kind, key string, err error) {
	ev := AuditEvent{EventType: AuditFileDelete, Kind: kind, Target: key, Success: err == nil, Error: err}
	if err != nil {
		ev.EventType = AuditFileError
	}
	Audit(ev)
}

// AuditLogin records a login attempt without the password.
func AuditLogin(role, username string, ok bool) {
	ev := AuditEvent{EventType: AuditLoginDeny, Kind: role, Target: username}
	if ok {
		ev.EventType = AuditLoginAllow
		ev.Success = true
	}
	Audit(ev)
}

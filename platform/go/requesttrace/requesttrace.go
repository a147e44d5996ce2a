// Package requesttrace carries who-did-what metadata through a request so services can stamp
// deleted_by and attribute published domain events.
package requesttrace

import (
	"context"
	"errors"

	platformauth "github.com/zenGate-Global/wedding-admin/platform/go/auth"
)

type contextKey string

const (
	ctxAuditInfo contextKey = "WEDDING_ADMIN_REQUEST_TRACE"
)

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindAnonymous ActorKind = "anonymous"
	ActorKindSystem    ActorKind = "system"
)

// AuditInfo captures request-scoped metadata. UserID and Email are set only for ActorKindUser.
type AuditInfo struct {
	ActorKind ActorKind
	UserID    *string
	Email     string
	RequestID string
}

// Actor returns the identifier recorded in deleted_by columns and event payloads.
// System work is attributed to "system"; anonymous requests to nobody.
func (a AuditInfo) Actor() *string {
	switch a.ActorKind {
	case ActorKindUser:
		return a.UserID
	case ActorKindSystem:
		system := string(ActorKindSystem)
		return &system
	default:
		return nil
	}
}

func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, ctxAuditInfo, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	audit, ok := ctx.Value(ctxAuditInfo).(AuditInfo)
	return audit, ok
}

// FromContextOrAnonymous returns the AuditInfo stored on the context, or an anonymous record when absent.
func FromContextOrAnonymous(ctx context.Context) AuditInfo {
	if audit, ok := FromContext(ctx); ok {
		return audit
	}
	return Anonymous("")
}

// ActorFrom is shorthand for FromContextOrAnonymous(ctx).Actor().
func ActorFrom(ctx context.Context) *string {
	return FromContextOrAnonymous(ctx).Actor()
}

// FromCredentials builds an AuditInfo from authenticated user credentials and a request ID.
func FromCredentials(creds *platformauth.UserCredentials, requestID string) (AuditInfo, error) {
	if creds == nil {
		return AuditInfo{}, errors.New("credentials are required to build audit info")
	}
	if creds.Id == "" {
		return AuditInfo{}, errors.New("user id is required to build audit info")
	}

	id := creds.Id
	return AuditInfo{
		ActorKind: ActorKindUser,
		UserID:    &id,
		Email:     creds.Email,
		RequestID: requestID,
	}, nil
}

func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// System builds an AuditInfo for cron jobs and CLI commands.
func System(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindSystem, RequestID: requestID}
}

package app

import (
	"errors"
	"fmt"
	"strings"

	"class_schedule_bot/internal/domain/notification"
)

// ErrConfigurationMissing means the class is not configured or not active.
// It is expected for retired classes and is logged, not reported.
var ErrConfigurationMissing = fmt.Errorf("class configuration missing or inactive")

// ErrNoContentAvailable means the class curriculum is empty.
var ErrNoContentAvailable = fmt.Errorf("no content available for rotation")

// ErrPartialDay marks a day where some slots were created and others failed.
// The day counts as covered from then on, so the missing slots need an operator.
var ErrPartialDay = fmt.Errorf("day only partially generated")

// ErrAllChannelsFailed marks a reminder none of whose targets accepted it.
var ErrAllChannelsFailed = fmt.Errorf("all channel targets failed")

// ErrNoTargets marks a reminder for a class without any configured targets.
var ErrNoTargets = fmt.Errorf("no reminder targets configured")

// ErrInvalidTransition is returned when a session status change is not allowed.
var ErrInvalidTransition = fmt.Errorf("invalid session status transition")

// ChannelDispatchError is the failure of one target inside a dispatch.
type ChannelDispatchError struct {
	Target notification.Target
	Err    error
}

func (e *ChannelDispatchError) Error() string {
	return fmt.Sprintf("dispatch to %s: %v", e.Target, e.Err)
}

func (e *ChannelDispatchError) Unwrap() error { return e.Err }

// DispatchFailure aggregates every failed target of a reminder that reached
// no one. It matches ErrAllChannelsFailed with errors.Is.
type DispatchFailure struct {
	SessionID int64
	Offset    notification.Offset
	Targets   []*ChannelDispatchError
}

func (e *DispatchFailure) Error() string {
	parts := make([]string, 0, len(e.Targets))
	for _, t := range e.Targets {
		parts = append(parts, t.Error())
	}
	return fmt.Sprintf("session %d offset %s: %v: %s", e.SessionID, e.Offset, ErrAllChannelsFailed, strings.Join(parts, "; "))
}

func (e *DispatchFailure) Is(target error) bool {
	return target == ErrAllChannelsFailed
}

// joinErrors keeps the report readable in logs.
func joinErrors(errs []error) error {
	return errors.Join(errs...)
}

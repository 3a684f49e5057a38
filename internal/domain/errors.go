package domain

import (
	"errors"
	"fmt"
)

// DependencyKind names the kind of object a host refers to by name.
type DependencyKind string

const (
	DependencyGroup    DependencyKind = "hostgroup"
	DependencyTemplate DependencyKind = "template"
	DependencyProxy    DependencyKind = "proxy"
)

// MissingDependencyError is returned when a referenced group, template or
// proxy does not exist remotely. It is raised before any mutation of the host.
type MissingDependencyError struct {
	Kind DependencyKind
	Name string
}

func (e *MissingDependencyError) Error() string {
	if e.Kind == DependencyGroup {
		return fmt.Sprintf("the %s %q does not exist, use an existing one or set groupCreate: true", e.Kind, e.Name)
	}
	return fmt.Sprintf("the %s %q does not exist", e.Kind, e.Name)
}

// RemoteCallError wraps any failure of a remote API call.
type RemoteCallError struct {
	Method string
	Err    error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call %s failed: %v", e.Method, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// MalformedRecordError describes a fetched host that cannot be projected into
// a Host, typically because it has no main interface. Such records are
// skipped, not reconciled.
type MalformedRecordError struct {
	Host   string
	HostID int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed host record %q: %s", e.Host, e.Reason)
}

// IsMissingDependency reports whether err carries a MissingDependencyError.
func IsMissingDependency(err error) bool {
	var target *MissingDependencyError
	return errors.As(err, &target)
}

// IsRemoteCall reports whether err carries a RemoteCallError.
func IsRemoteCall(err error) bool {
	var target *RemoteCallError
	return errors.As(err, &target)
}

// IsMalformedRecord reports whether err carries a MalformedRecordError.
func IsMalformedRecord(err error) bool {
	var target *MalformedRecordError
	return errors.As(err, &target)
}

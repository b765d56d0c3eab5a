package resilience

import "fmt"

// Typed errors raised by platform collaborators (agents, API clients,
// workflow steps). The classifier keys its table on these concrete type
// names, so adding a new kind is a table entry, not new branching logic.

// ConnectionError indicates a transport-level failure reaching a service.
type ConnectionError struct{ Msg string }

func (e ConnectionError) Error() string { return e.Msg }

// TimeoutError indicates an operation exceeded its deadline.
type TimeoutError struct{ Msg string }

func (e TimeoutError) Error() string { return e.Msg }

// APIError indicates a remote service returned a failure response.
type APIError struct {
	Service    string
	StatusCode int
	Msg        string
}

func (e APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Msg)
}

// RateLimitError indicates a service rejected the call for quota reasons.
type RateLimitError struct{ Msg string }

func (e RateLimitError) Error() string { return e.Msg }

// ValidationError indicates bad input. Retrying cannot help.
type ValidationError struct{ Msg string }

func (e ValidationError) Error() string { return e.Msg }

// AuthenticationError indicates missing or invalid credentials.
type AuthenticationError struct{ Msg string }

func (e AuthenticationError) Error() string { return e.Msg }

// AuthorizationError indicates the caller lacks permission.
type AuthorizationError struct{ Msg string }

func (e AuthorizationError) Error() string { return e.Msg }

// ConfigurationError indicates the process is misconfigured.
type ConfigurationError struct{ Msg string }

func (e ConfigurationError) Error() string { return e.Msg }

// ResourceExhaustedError indicates memory, disk, or quota pressure.
type ResourceExhaustedError struct{ Msg string }

func (e ResourceExhaustedError) Error() string { return e.Msg }

// DataError indicates malformed or missing data from a collaborator.
type DataError struct{ Msg string }

func (e DataError) Error() string { return e.Msg }

// CircuitOpenError surfaces a breaker-open condition from the circuit
// breaker collaborator. The dispatcher treats it as a fallback trigger.
type CircuitOpenError struct{ Service string }

func (e CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for service %s", e.Service)
}

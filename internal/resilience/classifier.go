package resilience

import (
	"context"
	"errors"
	"net"
	"reflect"
	"strings"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// classification is one row of the lookup table: everything the classifier
// needs to say about an error kind.
type classification struct {
	Category    domain.Category
	Severity    domain.Severity
	Recoverable bool
	MaxRetries  int
	Strategy    domain.Strategy
}

// classificationTable maps concrete error type names to classifications.
// New error kinds are additive entries here, not code changes.
var classificationTable = map[string]classification{
	"ConnectionError":        {domain.CategoryNetwork, domain.SeverityHigh, true, 3, domain.StrategyRetry},
	"DNSError":               {domain.CategoryNetwork, domain.SeverityHigh, true, 3, domain.StrategyRetry},
	"TimeoutError":           {domain.CategoryTimeout, domain.SeverityMedium, true, 2, domain.StrategyRetry},
	"APIError":               {domain.CategoryAPI, domain.SeverityMedium, true, 3, domain.StrategyRetry},
	"RateLimitError":         {domain.CategoryAPI, domain.SeverityMedium, true, 3, domain.StrategyCircuitBreak},
	"CircuitOpenError":       {domain.CategoryAPI, domain.SeverityMedium, true, 0, domain.StrategyCircuitBreak},
	"ValidationError":        {domain.CategoryValidation, domain.SeverityLow, false, 0, domain.StrategyFailFast},
	"AuthenticationError":    {domain.CategoryAuthentication, domain.SeverityHigh, false, 0, domain.StrategyFailFast},
	"AuthorizationError":     {domain.CategoryAuthorization, domain.SeverityHigh, false, 0, domain.StrategyFailFast},
	"ConfigurationError":     {domain.CategoryConfiguration, domain.SeverityHigh, false, 0, domain.StrategyFailFast},
	"ResourceExhaustedError": {domain.CategoryResource, domain.SeverityHigh, true, 1, domain.StrategyDegrade},
	"DataError":              {domain.CategoryData, domain.SeverityMedium, true, 2, domain.StrategyFallback},
	"SystemError":            {domain.CategorySystem, domain.SeverityHigh, true, 1, domain.StrategyEscalate},
}

// messagePredicate is a case-insensitive substring rule, checked in order
// only when the type lookup misses.
type messagePredicate struct {
	substrings []string
	class      classification
}

var messagePredicates = []messagePredicate{
	{[]string{"circuit breaker", "circuit open"}, classificationTable["CircuitOpenError"]},
	{[]string{"timeout", "timed out", "deadline exceeded"}, classificationTable["TimeoutError"]},
	{[]string{"authentication", "invalid credentials", "api key"}, classificationTable["AuthenticationError"]},
	{[]string{"unauthorized", "forbidden", "permission denied", "access denied"}, classificationTable["AuthorizationError"]},
	{[]string{"rate limit", "too many requests", "quota exceeded"}, classificationTable["RateLimitError"]},
	{[]string{"out of memory", "memory"}, classification{domain.CategoryResource, domain.SeverityCritical, false, 0, domain.StrategyEscalate}},
	{[]string{"no space", "disk full"}, classification{domain.CategoryResource, domain.SeverityHigh, true, 1, domain.StrategyDegrade}},
	{[]string{"connection", "unreachable", "refused", "network"}, classificationTable["ConnectionError"]},
	{[]string{"validation", "invalid input", "malformed"}, classificationTable["ValidationError"]},
	{[]string{"configuration", "config"}, classificationTable["ConfigurationError"]},
	{[]string{"parse", "decode", "unmarshal"}, classificationTable["DataError"]},
}

// unknownClassification is the total-function default: anything we cannot
// place still gets a retry budget of 2.
var unknownClassification = classification{
	Category:    domain.CategoryUnknown,
	Severity:    domain.SeverityMedium,
	Recoverable: true,
	MaxRetries:  2,
	Strategy:    domain.StrategyRetry,
}

// nonRecoverableCategories always surface to the caller unretried,
// regardless of what a table entry says.
var nonRecoverableCategories = map[domain.Category]bool{
	domain.CategoryAuthentication: true,
	domain.CategoryAuthorization:  true,
	domain.CategoryValidation:     true,
	domain.CategoryConfiguration:  true,
}

// Classify turns an error plus its context into a structured ErrorInfo.
// It is deterministic, side-effect-free, and never fails to return a result.
func Classify(err error, ectx domain.ErrorContext) domain.ErrorInfo {
	name := errorTypeName(err)
	class, ok := classificationTable[name]
	if !ok {
		class, ok = matchMessage(err)
	}
	if !ok {
		class = unknownClassification
	}

	// Hard overrides: some categories and CRITICAL severity are never
	// worth a retry budget, whatever the table says.
	if nonRecoverableCategories[class.Category] || class.Severity == domain.SeverityCritical {
		class.Recoverable = false
		class.MaxRetries = 0
	}

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	return domain.ErrorInfo{
		ErrorType:   name,
		Message:     msg,
		Category:    class.Category,
		Severity:    class.Severity,
		Strategy:    class.Strategy,
		Context:     ectx,
		Recoverable: class.Recoverable,
		MaxRetries:  class.MaxRetries,
	}
}

func matchMessage(err error) (classification, bool) {
	if err == nil {
		return classification{}, false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range messagePredicates {
		for _, s := range p.substrings {
			if strings.Contains(msg, s) {
				return p.class, true
			}
		}
	}
	return classification{}, false
}

// errorTypeName resolves the concrete type name used as the table key.
// Well-known stdlib failure modes map onto platform error kinds so the
// table stays small.
func errorTypeName(err error) string {
	if err == nil {
		return "UnknownError"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TimeoutError"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNSError"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "TimeoutError"
		}
		return "ConnectionError"
	}

	// Walk the unwrap chain for a table-known kind before settling on the
	// outermost concrete type.
	for e := err; e != nil; e = errors.Unwrap(e) {
		if name := concreteName(e); name != "" {
			if _, ok := classificationTable[name]; ok {
				return name
			}
		}
	}

	name := concreteName(err)
	if name == "" || name == "errorString" || name == "wrapError" {
		return "UnknownError"
	}
	return name
}

func concreteName(err error) string {
	t := reflect.TypeOf(err)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

package errors

import (
	"strings"

	"github.com/gobwas/glob"
)

// Class categorizes provider errors by the recovery behavior they demand.
// Classification is driven by known error phrasings rather than typed
// errors because provider SDKs surface restrictions as plain message text.
type Class int

const (
	// ClassUnknown is any error not matched by a classification rule.
	ClassUnknown Class = iota
	// ClassVerification indicates the provider requires organization or
	// account verification before streaming is permitted. Streaming for
	// that provider should be disabled for the rest of the session.
	ClassVerification
	// ClassOverloaded indicates the provider is temporarily overloaded.
	ClassOverloaded
	// ClassRateLimited indicates the request was rejected by a rate limit.
	ClassRateLimited
)

// String returns a human-readable name for the class.
func (c Class) String() string {
	switch c {
	case ClassVerification:
		return "verification"
	case ClassOverloaded:
		return "overloaded"
	case ClassRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// IsTransient reports whether errors of this class may succeed if the
// same request is attempted again later.
func (c Class) IsTransient() bool {
	return c == ClassOverloaded || c == ClassRateLimited
}

// rule maps a message pattern to a class. Patterns are matched against the
// lowercased error text, first match wins.
type rule struct {
	pattern glob.Glob
	class   Class
}

// classifierRules holds the known provider error phrasings. New phrasings
// are added here without touching orchestration control flow.
var classifierRules = []rule{
	{glob.MustCompile("*organization verification*"), ClassVerification},
	{glob.MustCompile("*requires verification*"), ClassVerification},
	{glob.MustCompile("*account verification*"), ClassVerification},
	{glob.MustCompile("*overload*"), ClassOverloaded},
	{glob.MustCompile("*rate limit*"), ClassRateLimited},
	{glob.MustCompile("*too many requests*"), ClassRateLimited},
	{glob.MustCompile("*(429)*"), ClassRateLimited},
	{glob.MustCompile("*429*"), ClassRateLimited},
}

// Classify inspects an error's text and returns its Class.
// A nil error classifies as ClassUnknown.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	text := strings.ToLower(err.Error())
	for _, r := range classifierRules {
		if r.pattern.Match(text) {
			return r.class
		}
	}
	return ClassUnknown
}

// IsVerification reports whether err indicates a provider-side
// verification restriction.
func IsVerification(err error) bool {
	return Classify(err) == ClassVerification
}

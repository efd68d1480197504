package graph

import (
	"strings"
	"time"
)

// BackoffStrategy selects how the delay between retry attempts grows.
type BackoffStrategy int

const (
	// FixedBackoff waits the base delay between every attempt.
	FixedBackoff BackoffStrategy = iota
	// ExponentialBackoff doubles the delay after each attempt.
	ExponentialBackoff
	// LinearBackoff grows the delay by the base delay after each attempt.
	LinearBackoff
)

const defaultBaseDelay = time.Second

// RetryPolicy controls how node errors are retried. MaxRetries counts the
// attempts after the first one, so MaxRetries zero means a single attempt.
// When RetryableErrors is empty every error is retried, otherwise only errors
// whose text contains one of the listed fragments.
type RetryPolicy struct {
	MaxRetries      int
	BackoffStrategy BackoffStrategy
	BaseDelay       time.Duration
	RetryableErrors []string
}

func (p *RetryPolicy) retryable(err error) bool {
	if p == nil || err == nil {
		return false
	}
	if len(p.RetryableErrors) == 0 {
		return true
	}
	text := err.Error()
	for _, fragment := range p.RetryableErrors {
		if strings.Contains(text, fragment) {
			return true
		}
	}
	return false
}

// delay computes the wait before the next attempt. attempt is zero-based.
func (p *RetryPolicy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	switch p.BackoffStrategy {
	case ExponentialBackoff:
		return base * (1 << attempt)
	case LinearBackoff:
		return base * time.Duration(attempt+1)
	default:
		return base
	}
}

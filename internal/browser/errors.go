package browser

import (
	"errors"
	"fmt"
	"time"
)

// Condition names used for waits that are not DOM predicates.
const (
	ConditionPageLoad = "page load"
	ConditionLaunch   = "browser launch"
)

// TimeoutError is returned when a bounded wait is never satisfied
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Condition)
}

// IsTimeout reports whether err is, or wraps, a *TimeoutError
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsPageLoadTimeout reports whether err is a navigation timeout
func IsPageLoadTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te) && te.Condition == ConditionPageLoad
}

package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorInvalidDateRange is returned when a requested window has
// date_to earlier than date_from. The range is never silently swapped.
var ErrorInvalidDateRange = errors.New("invalid date range")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

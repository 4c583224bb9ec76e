package stories

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus is wrapped by FetchError when the API answered
// with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// FetchError is returned for every failed call to the story API. Request
// describes the call ("GET http://host/stories?page=1&pageSize=10").
type FetchError struct {
	Request    string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch stories: %s: HTTP %d: %v", e.Request, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch stories: %s: %v", e.Request, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

package navigation

import (
	"errors"
	"fmt"
)

// ErrEmptyPath is wrapped in a ListError when a navigation target is blank.
var ErrEmptyPath = errors.New("empty path")

// ListError reports that the listing provider could not enumerate Path.
// It is the only error the controller returns to callers.
type ListError struct {
	Path string
	Err  error
}

func (e *ListError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("list directory failed: %v", e.Err)
	}
	return fmt.Sprintf("list directory %s failed: %v", e.Path, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

package tracker

import "fmt"

// Common errors
var (
	ErrConflict = fmt.Errorf("a different repository is already tracked")
	ErrSync     = fmt.Errorf("synchronization failed")
)

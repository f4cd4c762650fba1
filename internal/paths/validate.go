package paths

import (
	"fmt"
	"regexp"
)

var sessionIDRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateSessionID checks that id looks like a server-issued session ID
// before it gets interpolated into URLs or used as a cache key.
func ValidateSessionID(id string) error {
	if !sessionIDRegexp.MatchString(id) {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}

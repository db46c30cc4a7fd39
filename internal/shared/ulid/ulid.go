package ulid

import (
	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string. Used for run ids and HTTP request ids.
var NewULID = func() string {
	return ulid.Make().String()
}

// IsValid reports whether id is a well-formed ULID, e.g. an inbound x-request-id.
func IsValid(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

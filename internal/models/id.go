package models

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewID returns a prefixed ULID, e.g. "m_01hqv3...". The prefix encodes
// the entity kind so ids stay recognizable in the document and the
// activity log.
func NewID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

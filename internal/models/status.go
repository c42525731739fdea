package models

// Status is the two-letter lifecycle code used on the wire: "A" for active
// records, "I" for records that were soft-deleted.
type Status string

const (
	StatusActive   Status = "A"
	StatusInactive Status = "I"
)

// Valid reports whether the code is one of the two known states.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

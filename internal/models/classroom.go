package models

import "time"

// Classroom is a first-class stored entity. The legacy front-end synthesized
// classrooms from distinct classroomId values seen in enrollment rows; here
// the collection is fetched from its own table.
type Classroom struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Level     string    `db:"level" json:"level"`
	Section   string    `db:"section" json:"section"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassroomFilter restricts classroom listings.
type ClassroomFilter struct {
	Status    Status
	Level     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

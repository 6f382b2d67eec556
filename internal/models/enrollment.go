package models

import "time"

// Enrollment is the join entity between a student and a course.
// The same pair may be enrolled more than once; each enrollment is distinct.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
	Seq        int64     `db:"seq" json:"seq"`
}

// EnrollmentDetail enriches Enrollment with both endpoints.
type EnrollmentDetail struct {
	Enrollment
	Student Student `db:"student" json:"student"`
	Course  Course  `db:"course" json:"course"`
}

package models

// Group is a cohort of students taking one subject with one teacher.
// FrequencyCount is the configured number of weekly meetings.
type Group struct {
	ID             int64 `db:"id" json:"id"`
	SubjectID      int64 `db:"subject_id" json:"subject_id" validate:"required"`
	TeacherID      int64 `db:"teacher_id" json:"teacher_id" validate:"required"`
	StudentCount   int   `db:"student_count" json:"student_count" validate:"gt=0"`
	FrequencyCount int   `db:"frequency_count" json:"frequency_count" validate:"gte=0"`
}

package domain

import "time"

// ClassStatus is the moderation state of a class.
type ClassStatus string

const (
	ClassPending  ClassStatus = "pending"
	ClassApproved ClassStatus = "approved"
	ClassDenied   ClassStatus = "denied"
)

// Valid reports whether s is a known status.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassPending, ClassApproved, ClassDenied:
		return true
	}
	return false
}

// validTransitions lists the moderation moves an admin may make. A class never
// returns to pending once reviewed.
var validTransitions = map[ClassStatus][]ClassStatus{
	ClassPending:  {ClassApproved, ClassDenied},
	ClassApproved: {ClassDenied},
	ClassDenied:   {ClassApproved},
}

// CanTransitionTo reports whether a class in status s may move to next.
func (s ClassStatus) CanTransitionTo(next ClassStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Class is a bookable class owned by an instructor.
type Class struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Price            float64     `json:"price"`
	Seats            int         `json:"seats"`
	ImageURL         string      `json:"image_url,omitempty"`
	Status           ClassStatus `json:"status"`
	EnrolledStudents int         `json:"enrolled_students"`
	Feedback         string      `json:"feedback,omitempty"`
	InstructorEmail  string      `json:"instructor_email"`
	InstructorName   string      `json:"instructor_name,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

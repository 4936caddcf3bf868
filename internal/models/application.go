package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "Applied"
	StatusUnderReview ApplicationStatus = "Under Review"
	StatusShortlisted ApplicationStatus = "Shortlisted"
	StatusRejected    ApplicationStatus = "Rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusUnderReview, StatusShortlisted, StatusRejected:
		return true
	default:
		return false
	}
}

type Application struct {
	ID          uuid.UUID
	ApplicantID uuid.UUID
	JobID       uuid.UUID
	Status      ApplicationStatus
	AppliedAt   time.Time
	UpdatedAt   time.Time
}

// Application joined with the data a reader needs to display it
type ApplicationView struct {
	Application
	JobTitle       string
	CompanyName    string
	Location       string
	ApplicantName  string
	ApplicantEmail string
}

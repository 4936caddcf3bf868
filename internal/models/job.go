package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobTypeFullTime = "Full-time"
	JobTypePartTime = "Part-time"
	JobTypeContract = "Contract"
	JobTypeRemote   = "Remote"
	LevelMid        = "Mid-level"
	LevelSenior     = "Senior-level"
	LevelExecutive  = "Executive"
)

type Job struct {
	ID                  uuid.UUID
	OwnerID             uuid.UUID
	Title               string
	CompanyName         string
	Location            string
	JobType             string
	SalaryRange         string
	ExperienceLevel     string
	ContactEmail        string
	ApplicationDeadline time.Time
	Description         string
	CompanyDescription  string
	Requirements        []string
	Skills              []string
	Benefits            []string
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

package client

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/jobboard/internal/models"
)

type User struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Login struct {
	User             User        `json:"user"`
	Role             models.Role `json:"role"`
	ProfileCompleted bool        `json:"profileCompleted"`
	AccessToken      string      `json:"accessToken"`
	RefreshToken     string      `json:"refreshToken"`
}

type RegisterRequest struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role,omitempty"`
}

type Job struct {
	ID                  uuid.UUID `json:"id,omitempty"`
	OwnerID             uuid.UUID `json:"ownerId,omitempty"`
	Title               string    `json:"title"`
	CompanyName         string    `json:"companyName"`
	Location            string    `json:"location"`
	JobType             string    `json:"jobType"`
	SalaryRange         string    `json:"salaryRange,omitempty"`
	ExperienceLevel     string    `json:"experienceLevel"`
	ContactEmail        string    `json:"contactEmail,omitempty"`
	ApplicationDeadline time.Time `json:"applicationDeadline"`
	Description         string    `json:"description"`
	CompanyDescription  string    `json:"companyDescription,omitempty"`
	Requirements        []string  `json:"requirements,omitempty"`
	Skills              []string  `json:"skills,omitempty"`
	Benefits            []string  `json:"benefits,omitempty"`
	Active              bool      `json:"active"`
}

type Application struct {
	ID             uuid.UUID                `json:"id"`
	ApplicantID    uuid.UUID                `json:"applicantId"`
	JobID          uuid.UUID                `json:"jobId"`
	Status         models.ApplicationStatus `json:"status"`
	AppliedAt      time.Time                `json:"appliedAt"`
	JobTitle       string                   `json:"jobTitle,omitempty"`
	CompanyName    string                   `json:"companyName,omitempty"`
	ApplicantName  string                   `json:"applicantName,omitempty"`
	ApplicantEmail string                   `json:"applicantEmail,omitempty"`
}

type Subscription struct {
	ID            uuid.UUID       `json:"id"`
	Status        string          `json:"status"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	JobPostLimit  int             `json:"jobPostLimit"`
	PaymentStatus string          `json:"paymentStatus"`
	PaymentID     string          `json:"paymentId"`
	Amount        decimal.Decimal `json:"amount"`
}

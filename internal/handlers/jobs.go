package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/handlers/render"
	"github.com/nkiryanov/jobboard/internal/handlers/userctx"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
)

type jobResponse struct {
	ID                  uuid.UUID `json:"id"`
	OwnerID             uuid.UUID `json:"ownerId"`
	Title               string    `json:"title"`
	CompanyName         string    `json:"companyName"`
	Location            string    `json:"location"`
	JobType             string    `json:"jobType"`
	SalaryRange         string    `json:"salaryRange"`
	ExperienceLevel     string    `json:"experienceLevel"`
	ContactEmail        string    `json:"contactEmail"`
	ApplicationDeadline time.Time `json:"applicationDeadline"`
	Description         string    `json:"description"`
	CompanyDescription  string    `json:"companyDescription"`
	Requirements        []string  `json:"requirements"`
	Skills              []string  `json:"skills"`
	Benefits            []string  `json:"benefits"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func newJobResponse(j models.Job) jobResponse {
	return jobResponse{
		ID:                  j.ID,
		OwnerID:             j.OwnerID,
		Title:               j.Title,
		CompanyName:         j.CompanyName,
		Location:            j.Location,
		JobType:             j.JobType,
		SalaryRange:         j.SalaryRange,
		ExperienceLevel:     j.ExperienceLevel,
		ContactEmail:        j.ContactEmail,
		ApplicationDeadline: j.ApplicationDeadline,
		Description:         j.Description,
		CompanyDescription:  j.CompanyDescription,
		Requirements:        nonNil(j.Requirements),
		Skills:              nonNil(j.Skills),
		Benefits:            nonNil(j.Benefits),
		Active:              j.Active,
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
}

// Render empty list as [] instead of null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func renderJobs(w http.ResponseWriter, jobs []models.Job) {
	list := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		list = append(list, newJobResponse(j))
	}
	render.JSON(w, list)
}

// Parse id path value or render 400
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func handlePostJob(js jobService, l logger.Logger) http.Handler {
	type request struct {
		Title               string    `json:"title" validate:"required,notblank,max=200"`
		CompanyName         string    `json:"companyName" validate:"required,notblank"`
		Location            string    `json:"location" validate:"required,notblank"`
		JobType             string    `json:"jobType" validate:"required,oneof=Full-time Part-time Contract Remote"`
		SalaryRange         string    `json:"salaryRange"`
		ExperienceLevel     string    `json:"experienceLevel" validate:"required,oneof=Mid-level Senior-level Executive"`
		ContactEmail        string    `json:"contactEmail" validate:"omitempty,email"`
		ApplicationDeadline time.Time `json:"applicationDeadline" validate:"required"`
		Description         string    `json:"description" validate:"required,notblank"`
		CompanyDescription  string    `json:"companyDescription"`
		Requirements        []string  `json:"requirements"`
		Skills              []string  `json:"skills"`
		Benefits            []string  `json:"benefits"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		job, err := js.Post(r.Context(), user, models.Job{
			Title:               data.Title,
			CompanyName:         data.CompanyName,
			Location:            data.Location,
			JobType:             data.JobType,
			SalaryRange:         data.SalaryRange,
			ExperienceLevel:     data.ExperienceLevel,
			ContactEmail:        data.ContactEmail,
			ApplicationDeadline: data.ApplicationDeadline,
			Description:         data.Description,
			CompanyDescription:  data.CompanyDescription,
			Requirements:        data.Requirements,
			Skills:              data.Skills,
			Benefits:            data.Benefits,
			Active:              true,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSONStatus(w, newJobResponse(job), http.StatusCreated)
	})
}

func handleListJobs(js jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobs, err := js.ListAll(r.Context())
		if err != nil {
			renderError(w, l, err)
			return
		}
		renderJobs(w, jobs)
	})
}

func handleListOwnJobs(js jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		jobs, err := js.ListOwn(r.Context(), user)
		if err != nil {
			renderError(w, l, err)
			return
		}
		renderJobs(w, jobs)
	})
}

func handleUpdateJob(js jobService, l logger.Logger) http.Handler {
	type request struct {
		Title               *string    `json:"title" validate:"omitempty,notblank,max=200"`
		CompanyName         *string    `json:"companyName" validate:"omitempty,notblank"`
		Location            *string    `json:"location" validate:"omitempty,notblank"`
		JobType             *string    `json:"jobType" validate:"omitempty,oneof=Full-time Part-time Contract Remote"`
		SalaryRange         *string    `json:"salaryRange"`
		ExperienceLevel     *string    `json:"experienceLevel" validate:"omitempty,oneof=Mid-level Senior-level Executive"`
		ContactEmail        *string    `json:"contactEmail" validate:"omitempty,email"`
		ApplicationDeadline *time.Time `json:"applicationDeadline"`
		Description         *string    `json:"description" validate:"omitempty,notblank"`
		CompanyDescription  *string    `json:"companyDescription"`
		Requirements        []string   `json:"requirements"`
		Skills              []string   `json:"skills"`
		Benefits            []string   `json:"benefits"`
		Active              *bool      `json:"active"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		jobID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		job, err := js.Update(r.Context(), user, jobID, repository.UpdateJobParams{
			Title:               data.Title,
			CompanyName:         data.CompanyName,
			Location:            data.Location,
			JobType:             data.JobType,
			SalaryRange:         data.SalaryRange,
			ExperienceLevel:     data.ExperienceLevel,
			ContactEmail:        data.ContactEmail,
			ApplicationDeadline: data.ApplicationDeadline,
			Description:         data.Description,
			CompanyDescription:  data.CompanyDescription,
			Requirements:        data.Requirements,
			Skills:              data.Skills,
			Benefits:            data.Benefits,
			Active:              data.Active,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, newJobResponse(job))
	})
}

func handleDeleteJob(js jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		jobID, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := js.Delete(r.Context(), user, jobID); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, messageResponse{Message: "Job deleted successfully"})
	})
}

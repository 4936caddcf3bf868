package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/handlers/render"
	"github.com/nkiryanov/jobboard/internal/handlers/userctx"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
)

type applicationResponse struct {
	ID          uuid.UUID                `json:"id"`
	ApplicantID uuid.UUID                `json:"applicantId"`
	JobID       uuid.UUID                `json:"jobId"`
	Status      models.ApplicationStatus `json:"status"`
	AppliedAt   time.Time                `json:"appliedAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

func newApplicationResponse(a models.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		ApplicantID: a.ApplicantID,
		JobID:       a.JobID,
		Status:      a.Status,
		AppliedAt:   a.AppliedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type applicationViewResponse struct {
	applicationResponse
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
	Location       string `json:"location"`
	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
}

func renderApplications(w http.ResponseWriter, apps []models.ApplicationView) {
	list := make([]applicationViewResponse, 0, len(apps))
	for _, a := range apps {
		list = append(list, applicationViewResponse{
			applicationResponse: newApplicationResponse(a.Application),
			JobTitle:            a.JobTitle,
			CompanyName:         a.CompanyName,
			Location:            a.Location,
			ApplicantName:       a.ApplicantName,
			ApplicantEmail:      a.ApplicantEmail,
		})
	}
	render.JSON(w, list)
}

func handleApply(as applicationService, l logger.Logger) http.Handler {
	type request struct {
		JobID string `json:"jobId" validate:"required,uuid"`
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

		app, err := as.Apply(r.Context(), user, uuid.MustParse(data.JobID))
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSONStatus(w, newApplicationResponse(app), http.StatusCreated)
	})
}

func handleMyApplications(as applicationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		apps, err := as.ListMine(r.Context(), user)
		if err != nil {
			renderError(w, l, err)
			return
		}
		renderApplications(w, apps)
	})
}

func handleCompanyApplications(as applicationService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		apps, err := as.ListForCompany(r.Context(), user)
		if err != nil {
			renderError(w, l, err)
			return
		}
		renderApplications(w, apps)
	})
}

func handleUpdateApplicationStatus(as applicationService, l logger.Logger) http.Handler {
	type request struct {
		ApplicationID string `json:"applicationId" validate:"required,uuid"`
		Status        string `json:"status" validate:"required"`
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

		app, err := as.UpdateStatus(r.Context(), user, uuid.MustParse(data.ApplicationID), models.ApplicationStatus(data.Status))
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, newApplicationResponse(app))
	})
}

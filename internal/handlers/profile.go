package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nkiryanov/jobboard/internal/handlers/render"
	"github.com/nkiryanov/jobboard/internal/handlers/userctx"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
)

type profileResponse struct {
	Role      models.Role     `json:"role"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newProfileResponse(p models.Profile) profileResponse {
	return profileResponse{Role: p.Role, Data: p.Data, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

// Profile body is free form object, the service checks its shape
func bindRaw(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	var data json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		render.DecodeError(w, err)
		return nil, false
	}
	return data, true
}

func handleCreateProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, ok := bindRaw(w, r)
		if !ok {
			return
		}

		profile, err := ps.Create(r.Context(), user, data)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSONStatus(w, newProfileResponse(profile), http.StatusCreated)
	})
}

func handleGetProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		profile, err := ps.Get(r.Context(), user)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, newProfileResponse(profile))
	})
}

func handleUpdateProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, ok := bindRaw(w, r)
		if !ok {
			return
		}

		profile, err := ps.Update(r.Context(), user, data)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, newProfileResponse(profile))
	})
}

func handleDeleteProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		if err := ps.Delete(r.Context(), user); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, messageResponse{Message: "Profile deleted successfully"})
	})
}

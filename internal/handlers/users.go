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
	"github.com/nkiryanov/jobboard/internal/service/auth"
)

type userResponse struct {
	ID        uuid.UUID   `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func newUserList(users []models.User) []userResponse {
	list := make([]userResponse, 0, len(users))
	for _, u := range users {
		list = append(list, newUserResponse(u))
	}
	return list
}

type loginResponse struct {
	User             userResponse `json:"user"`
	Role             models.Role  `json:"role"`
	ProfileCompleted bool         `json:"profileCompleted"`
	AccessToken      string       `json:"accessToken"`
	RefreshToken     string       `json:"refreshToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Set tokens to cookies and render them in body as well
func renderLogin(w http.ResponseWriter, as authService, result models.LoginResult, code int) {
	as.SetTokenPairToResponse(w, result.Tokens)
	render.JSONStatus(w, loginResponse{
		User:             newUserResponse(result.User),
		Role:             result.User.Role,
		ProfileCompleted: result.ProfileCompleted,
		AccessToken:      result.Tokens.Access.Value,
		RefreshToken:     result.Tokens.Refresh.Value,
	}, code)
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		FirstName string `json:"firstName" validate:"required,notblank,max=100"`
		LastName  string `json:"lastName" validate:"required,notblank,max=100"`
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,min=8,max=72"`
		Role      string `json:"role" validate:"required,oneof=jobseeker company admin"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := as.Register(r.Context(), auth.RegisterParams{
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Email:     data.Email,
			Password:  data.Password,
			Role:      models.Role(data.Role),
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		renderLogin(w, as, result, http.StatusCreated)
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := as.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			renderError(w, l, err)
			return
		}

		renderLogin(w, as, result, http.StatusOK)
	})
}

func handleSendOTP(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if err := as.RequestOTP(r.Context(), data.Email); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, messageResponse{Message: "OTP sent to email"})
	})
}

func handleLoginOTP(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
		OTP   string `json:"otp" validate:"required,len=6,numeric"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := as.LoginOTP(r.Context(), data.Email, data.OTP)
		if err != nil {
			renderError(w, l, err)
			return
		}

		renderLogin(w, as, result, http.StatusOK)
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refresh, err := as.GetRefreshString(r)
		if err != nil {
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
			return
		}

		result, err := as.RefreshPair(r.Context(), refresh)
		if err != nil {
			renderError(w, l, err)
			return
		}

		renderLogin(w, as, result, http.StatusOK)
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		if err := as.Logout(r.Context(), user); err != nil {
			renderError(w, l, err)
			return
		}

		as.ClearTokens(w)
		render.JSON(w, messageResponse{Message: "Logged out successfully"})
	})
}

func handleCurrentUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}
		render.JSON(w, newUserResponse(user))
	})
}

func handleListUsers(as authService, l logger.Logger) http.Handler {
	type response struct {
		Jobseekers []userResponse `json:"jobseekers"`
		Companies  []userResponse `json:"companies"`
		Admins     []userResponse `json:"admins"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		users, err := as.ListUsers(r.Context(), user)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, response{
			Jobseekers: newUserList(users.Jobseekers),
			Companies:  newUserList(users.Companies),
			Admins:     newUserList(users.Admins),
		})
	})
}

func handleUpdateAuthProfile(as authService, l logger.Logger) http.Handler {
	type request struct {
		FirstName *string `json:"firstName" validate:"omitempty,notblank,max=100"`
		LastName  *string `json:"lastName" validate:"omitempty,notblank,max=100"`
		Email     *string `json:"email" validate:"omitempty,email"`
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

		updated, err := as.UpdateAuthProfile(r.Context(), user, repository.UpdateUserParams{
			FirstName: data.FirstName,
			LastName:  data.LastName,
			Email:     data.Email,
		})
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, newUserResponse(updated))
	})
}

func handleChangePassword(as authService, l logger.Logger) http.Handler {
	type request struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
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

		if err := as.ChangePassword(r.Context(), user, data.OldPassword, data.NewPassword); err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, messageResponse{Message: "Password changed successfully"})
	})
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/handlers/authctx"
	"github.com/nkiryanov/authd/internal/handlers/render"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/models"
)

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

func userFromModel(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

func handleUserMe(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := authctx.FromContext(r.Context())

		user, err := users.GetUser(r.Context(), session.Claim.UserID)
		if err != nil {
			l.Error("Failed to get user", "user_id", session.Claim.UserID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, userFromModel(user))
	})
}

func handleChangePassword(users userService, l logger.Logger) http.Handler {
	type request struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, _ := authctx.FromContext(r.Context())

		err = users.ChangePassword(r.Context(), session.Claim.UserID, data.CurrentPassword, data.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrWrongPassword):
				render.ServiceError(w, "Wrong password", http.StatusForbidden)
			default:
				l.Error("Failed to change password", "user_id", session.Claim.UserID, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Password changed successfully"})
	})
}

func handleUserBalance(billing BillingService, l logger.Logger) http.Handler {
	type response struct {
		Current   decimal.Decimal `json:"current"`
		Withdrawn decimal.Decimal `json:"withdrawn"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if billing == nil {
			render.ServiceError(w, "Billing is not available", http.StatusServiceUnavailable)
			return
		}

		session, _ := authctx.FromContext(r.Context())

		balance, err := billing.GetBalance(r.Context(), session.Claim.UserID)
		if err != nil {
			l.Error("Failed to get balance", "user_id", session.Claim.UserID, "error", err)
			render.ServiceError(w, "Billing is not available", http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, response{Current: balance.Current, Withdrawn: balance.Withdrawn})
	})
}

// Superuser only lookup of any user by id
func handleAdminGetUser(users userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("user_id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		user, err := users.GetUser(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("Failed to get user", "user_id", userID, "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, userFromModel(user))
	})
}

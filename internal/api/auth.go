package api

import (
	"errors"
	"net/http"

	"ms-parking/internal/auth"
	"ms-parking/internal/utils"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	User  loginUser `json:"user"`
	Token string    `json:"token"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeBadRequest(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, loginResponse{
		User:  loginUser{ID: res.User.ID, Username: res.User.Username, Role: res.User.Role},
		Token: res.Token,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

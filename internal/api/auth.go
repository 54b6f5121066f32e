package api

import (
	"net/http"

	"github.com/lostfound/lostfound/internal/service"
	"github.com/lostfound/lostfound/internal/upload"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	Auth *service.Auth
}

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Bio         string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register. The body is JSON or a
// multipart form carrying an optional profile image.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if isJSON(r) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, badBody(err))
			return
		}
		in = service.RegisterInput{
			Name:        req.Name,
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
			Address:     req.Address,
			City:        req.City,
			Bio:         req.Bio,
		}
	} else {
		defer cleanupForm(r)
		if err := parseForm(r); err != nil {
			writeError(w, r, badBody(err))
			return
		}
		in = service.RegisterInput{
			Name:         r.FormValue("name"),
			Email:        r.FormValue("email"),
			Password:     r.FormValue("password"),
			PhoneNumber:  r.FormValue("phoneNumber"),
			Address:      r.FormValue("address"),
			City:         r.FormValue("city"),
			Bio:          r.FormValue("bio"),
			ProfileImage: formFile(r, upload.ProfileField),
		}
	}

	session, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, session)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isJSON(r) {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, badBody(err))
			return
		}
	} else {
		defer cleanupForm(r)
		if err := parseForm(r); err != nil {
			writeError(w, r, badBody(err))
			return
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	session, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, session)
}

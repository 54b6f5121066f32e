package api

import (
	"net/http"

	"github.com/lostfound/lostfound/internal/service"
	"github.com/lostfound/lostfound/internal/upload"
)

// UsersHandler handles the authenticated user's own profile.
type UsersHandler struct {
	Auth *service.Auth
}

type updateProfileRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phoneNumber"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Bio         *string `json:"bio"`
}

// Me handles GET /api/auth/me.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.Me(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/auth/me. Fields left out of the body are kept.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if isJSON(r) {
		var req updateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, badBody(err))
			return
		}
		in = service.ProfileInput{
			Name:        req.Name,
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
		in = service.ProfileInput{
			Name:         optional(r, "name"),
			PhoneNumber:  optional(r, "phoneNumber"),
			Address:      optional(r, "address"),
			City:         optional(r, "city"),
			Bio:          optional(r, "bio"),
			ProfileImage: formFile(r, upload.ProfileField),
		}
	}

	user, err := h.Auth.UpdateProfile(r.Context(), UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

func optional(r *http.Request, field string) *string {
	v, ok := formValue(r, field)
	if !ok {
		return nil
	}
	return &v
}

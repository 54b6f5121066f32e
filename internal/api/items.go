package api

import (
	"net/http"
	"strconv"

	"github.com/lostfound/lostfound/internal/apperr"
	"github.com/lostfound/lostfound/internal/model"
	"github.com/lostfound/lostfound/internal/service"
	"github.com/lostfound/lostfound/internal/store"
	"github.com/lostfound/lostfound/internal/upload"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	Items *service.Items
}

type listResponse struct {
	Count int          `json:"count"`
	Data  []model.Item `json:"data"`
}

type createItemRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phoneno     string `json:"phoneno"`
	PhoneNumber string `json:"phoneNumber"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	ItemType    string `json:"itemType"`
	Date        string `json:"date"`
}

type loserRequest struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// filter reads the list filter from the query string.
func filter(r *http.Request) (store.ItemFilter, error) {
	q := r.URL.Query()
	f := store.ItemFilter{
		Type:  q.Get("itemType"),
		Query: q.Get("q"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, apperr.Wrap(apperr.CodeInvalidArgument, "limit must be a number", err)
		}
		f.Limit = n
	}
	return f, nil
}

// List handles GET /item.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := h.Items.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, listResponse{Count: len(items), Data: items})
}

// bindCreate reads a listing submission from a multipart form or a JSON
// body. JSON submissions cannot carry the image.
func bindCreate(r *http.Request) (service.CreateItemInput, error) {
	var in service.CreateItemInput
	if isJSON(r) {
		var req createItemRequest
		if err := decodeJSON(r, &req); err != nil {
			return in, badBody(err)
		}
		phone := req.Phoneno
		if phone == "" {
			phone = req.PhoneNumber
		}
		return service.CreateItemInput{
			Name:        req.Name,
			Email:       req.Email,
			PhoneNumber: phone,
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			ItemType:    req.ItemType,
			Date:        req.Date,
		}, nil
	}

	if err := parseForm(r); err != nil {
		return in, badBody(err)
	}
	phone := r.FormValue("phoneno")
	if phone == "" {
		phone = r.FormValue("phoneNumber")
	}
	return service.CreateItemInput{
		Name:        r.FormValue("name"),
		Email:       r.FormValue("email"),
		PhoneNumber: phone,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		ItemType:    r.FormValue("itemType"),
		Date:        r.FormValue("date"),
		File:        formFile(r, upload.ItemField),
	}, nil
}

// Create handles POST /item.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "")
}

// create stores a submission. A non-empty itemType overrides the submitted one.
func (h *ItemsHandler) create(w http.ResponseWriter, r *http.Request, itemType string) {
	defer cleanupForm(r)

	in, err := bindCreate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if itemType != "" {
		in.ItemType = itemType
	}

	item, err := h.Items.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /item/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Items.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /item/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Items.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}

// AttachLoser handles POST /item/{id}/loser.
func (h *ItemsHandler) AttachLoser(w http.ResponseWriter, r *http.Request) {
	var req loserRequest
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
		req.Phone = r.FormValue("phone")
		req.Email = r.FormValue("email")
	}

	item, err := h.Items.AttachLoserContact(r.Context(), r.PathValue("id"), req.Phone, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Loser info added",
		"item":    item,
	})
}

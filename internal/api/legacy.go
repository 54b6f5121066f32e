package api

import (
	"net/http"

	"github.com/lostfound/lostfound/internal/model"
	"github.com/lostfound/lostfound/internal/store"
)

// The /api/lost, /api/found and /api/items/{id} routes predate /item. They
// are served by the same handlers and answer with a Deprecation header.

// listByType handles GET /api/lost and GET /api/found with a bare array.
func (h *ItemsHandler) listByType(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.Items.List(r.Context(), store.ItemFilter{Type: itemType})
		if err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, items)
	}
}

// createByType handles POST /api/lost and POST /api/found.
func (h *ItemsHandler) createByType(itemType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.create(w, r, itemType)
	}
}

func registerLegacy(mux *http.ServeMux, items *ItemsHandler, authMW func(http.Handler) http.Handler) {
	mux.Handle("GET /api/lost", Deprecated(items.listByType(model.ItemTypeLost)))
	mux.Handle("GET /api/found", Deprecated(items.listByType(model.ItemTypeFound)))
	mux.Handle("POST /api/lost", Deprecated(authMW(items.createByType(model.ItemTypeLost))))
	mux.Handle("POST /api/found", Deprecated(authMW(items.createByType(model.ItemTypeFound))))
	mux.Handle("GET /api/items/{id}", Deprecated(authMW(http.HandlerFunc(items.Get))))
	mux.Handle("DELETE /api/items/{id}", Deprecated(authMW(http.HandlerFunc(items.Delete))))
}

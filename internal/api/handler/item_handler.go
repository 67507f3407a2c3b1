package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	appMiddleware "authgate/internal/api/middleware"
	"authgate/internal/app/service"
	"authgate/internal/common"
	"authgate/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type ItemHandler struct {
	itemService *service.ItemService
}

func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

func (h *ItemHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/items", h.list)
}

func (h *ItemHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/items", h.create)
	r.Get("/items/advanced", h.listAdvanced)
	r.Put("/items/{itemID}", h.update)
	r.Delete("/items/{itemID}", h.delete)
}

func (h *ItemHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var req service.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := h.itemService.Create(r.Context(), user, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), "Internal server error")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) listAdvanced(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ItemFilter{
		Search:  q.Get("search"),
		OwnerID: q.Get("owner_id"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := h.itemService.ListAdvanced(r.Context(), filter)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), "Internal server error")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ItemHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	var req service.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	item, err := h.itemService.Update(r.Context(), chi.URLParam(r, "itemID"), user, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := h.itemService.Delete(r.Context(), chi.URLParam(r, "itemID"), user); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "Item deleted"})
}

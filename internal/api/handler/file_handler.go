package handler

import (
	"net/http"

	appMiddleware "authgate/internal/api/middleware"
	"authgate/internal/app/service"
	"authgate/internal/common"
	"authgate/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20 // multipart memory limit

type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

func (h *FileHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/upload", h.upload)
	r.Post("/upload/multiple", h.uploadMultiple)
	r.Get("/my-files", h.listMine)
	r.Delete("/file/{fileID}", h.delete)
	r.Put("/file/{fileID}", h.replace)
}

func (h *FileHandler) upload(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	file, header, err := r.FormFile("uploaded_file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "uploaded_file is required")
		return
	}
	defer file.Close()

	record, err := h.fileService.Upload(r.Context(), user, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, record)
}

func (h *FileHandler) uploadMultiple(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		common.RespondWithError(w, http.StatusBadRequest, "files are required")
		return
	}

	records := []*model.StoredFile{}
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart payload")
			return
		}
		record, err := h.fileService.Upload(r.Context(), user, header.Filename, header.Header.Get("Content-Type"), file)
		file.Close()
		if err != nil {
			common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
			return
		}
		records = append(records, record)
	}
	common.RespondWithJSON(w, http.StatusCreated, records)
}

func (h *FileHandler) listMine(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	files, err := h.fileService.ListMine(r.Context(), user)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), "Internal server error")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, files)
}

func (h *FileHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := h.fileService.Delete(r.Context(), chi.URLParam(r, "fileID"), user); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "File deleted successfully"})
}

func (h *FileHandler) replace(w http.ResponseWriter, r *http.Request) {
	user, ok := appMiddleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	file, header, err := r.FormFile("new_file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "new_file is required")
		return
	}
	defer file.Close()

	record, err := h.fileService.Replace(r.Context(), chi.URLParam(r, "fileID"), user, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, record)
}

package images

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/middleware"
	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

// Margen para los encabezados multipart y el JSON que envuelve el base64.
const formOverhead = 1 << 20

func RegisterRoutes(r chi.Router, svc *Service, rs httpx.Responder, v *validation.Validator) {
	r.Route("/images", func(ir chi.Router) {
		ir.Post("/upload-profile", uploadProfileHandler(svc, rs, v))
		ir.Post("/upload", uploadImagesHandler(svc, rs))
		ir.Get("/", listImagesHandler(svc, rs, v))
		ir.Delete("/", deleteImageHandler(svc, rs, v))
	})
}

type base64UploadRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
	FileName    string `json:"file_name" validate:"omitempty,max=255"`
}

type uploadResponse struct {
	URL       string `json:"url"`
	PublicURL string `json:"public_url"`
	FileName  string `json:"file_name"`
	Path      string `json:"path"`
}

type failedFileResponse struct {
	FileName string `json:"file_name"`
	Detail   string `json:"detail"`
}

type batchUploadResponse struct {
	UploadedFiles []uploadResponse     `json:"uploaded_files"`
	FailedFiles   []failedFileResponse `json:"failed_files"`
	TotalUploaded int                  `json:"total_uploaded"`
	TotalFailed   int                  `json:"total_failed"`
}

type imageResponse struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	PublicURL   string    `json:"public_url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// uploadProfileHandler godoc
// @Summary Subir imagen de perfil
// @Description Multipart (campo file) o JSON con image_base64 (data URL). Solo jpeg, png, webp o gif de hasta 10MB.
// @Tags images
// @Accept multipart/form-data
// @Accept json
// @Produce json
// @Param file formData file false "Imagen"
// @Success 201 {object} uploadResponse
// @Failure 400 {object} httpx.ErrorBody "tipo o tamaño no permitido"
// @Failure 401 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody "perfil inexistente"
// @Router /images/upload-profile [post]
func uploadProfileHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, base64Len(MaxImageSize)+formOverhead)

		var up Upload
		if isMultipart(r) {
			up, err = readFormFile(r, "file")
		} else {
			up, err = readBase64(r, v)
		}
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		st, err := svc.UploadProfileImage(r.Context(), claims.UserID, up)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, toUploadResponse(st))
	}
}

// uploadImagesHandler godoc
// @Summary Subir imágenes
// @Description Hasta 10 archivos (campo files) a la carpeta bovinos del usuario. Los rechazados se informan por nombre.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Imágenes"
// @Success 201 {object} batchUploadResponse
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Router /images/upload [post]
func uploadImagesHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}
		if !isMultipart(r) {
			rs.Error(w, r, domainerr.Invalid("multipart/form-data body required"))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, int64(MaxImageSize+formOverhead)*MaxFilesPerUpload)
		if err := r.ParseMultipartForm(MaxImageSize); err != nil {
			rs.Error(w, r, formError(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File["files"]
		if len(headers) > MaxFilesPerUpload {
			rs.Error(w, r, domainerr.Invalid("at most 10 files per upload"))
			return
		}

		files := make([]Upload, 0, len(headers))
		for _, fh := range headers {
			up, err := openPart(fh)
			if err != nil {
				rs.Error(w, r, err)
				return
			}
			files = append(files, up)
		}

		res, err := svc.UploadImages(r.Context(), claims.UserID, files)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		out := batchUploadResponse{
			UploadedFiles: make([]uploadResponse, 0, len(res.Uploaded)),
			FailedFiles:   make([]failedFileResponse, 0, len(res.Failed)),
			TotalUploaded: len(res.Uploaded),
			TotalFailed:   len(res.Failed),
		}
		for _, st := range res.Uploaded {
			out.UploadedFiles = append(out.UploadedFiles, toUploadResponse(st))
		}
		for _, f := range res.Failed {
			out.FailedFiles = append(out.FailedFiles, failedFileResponse{FileName: f.FileName, Detail: f.Detail})
		}

		httpx.WriteJSON(w, http.StatusCreated, out)
	}
}

// listImagesHandler godoc
// @Summary Listar imágenes
// @Tags images
// @Produce json
// @Param folder query string false "perfiles o bovinos (default bovinos)"
// @Success 200 {array} imageResponse
// @Failure 401 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /images [get]
func listImagesHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		folder := strings.TrimSpace(r.URL.Query().Get("folder"))
		if err := v.Var("folder", folder, "omitempty,oneof=perfiles bovinos"); err != nil {
			rs.Error(w, r, err)
			return
		}

		items, err := svc.List(r.Context(), claims.UserID, folder)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		out := make([]imageResponse, 0, len(items))
		for _, it := range items {
			out = append(out, imageResponse{
				Path:        it.Path,
				Name:        it.Name,
				PublicURL:   it.PublicURL,
				Size:        it.Size,
				ContentType: it.ContentType,
				UpdatedAt:   it.UpdatedAt,
			})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// deleteImageHandler godoc
// @Summary Eliminar imagen
// @Tags images
// @Param path query string true "Ruta del objeto, p.ej. bovinos/<user>/archivo.jpg"
// @Success 204
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /images [delete]
func deleteImageHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		p := strings.TrimSpace(r.URL.Query().Get("path"))
		if err := v.Var("path", p, "required"); err != nil {
			rs.Error(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, p); err != nil {
			rs.Error(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func readFormFile(r *http.Request, field string) (Upload, error) {
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		return Upload{}, formError(err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return Upload{}, domainerr.Invalid(field + " is required")
	}
	return openPart(headers[0])
}

func openPart(fh *multipart.FileHeader) (Upload, error) {
	if fh.Size > MaxImageSize {
		return Upload{}, domainerr.Invalid("file exceeds the 10MB limit")
	}

	f, err := fh.Open()
	if err != nil {
		return Upload{}, domainerr.Wrap(domainerr.ErrInvalidInput, "could not read file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return Upload{}, domainerr.Wrap(domainerr.ErrInvalidInput, "could not read file", err)
	}
	return Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readBase64(r *http.Request, v *validation.Validator) (Upload, error) {
	var req base64UploadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return Upload{}, err
	}
	if err := v.Struct(req); err != nil {
		return Upload{}, err
	}

	up, err := DecodeDataURL(req.ImageBase64)
	if err != nil {
		return Upload{}, err
	}
	up.FileName = strings.TrimSpace(req.FileName)
	return up, nil
}

func formError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return domainerr.Invalid("file exceeds the 10MB limit")
	}
	return domainerr.Wrap(domainerr.ErrInvalidInput, "invalid multipart form", err)
}

func base64Len(n int) int64 {
	return int64((n + 2) / 3 * 4)
}

func toUploadResponse(st Stored) uploadResponse {
	return uploadResponse{
		URL:       st.PublicURL,
		PublicURL: st.PublicURL,
		FileName:  st.FileName,
		Path:      st.Path,
	}
}

package animals

import (
	"net/http"
	"time"

	"bovine-monitoring/internal/domain/measurements"
	"bovine-monitoring/internal/middleware"
	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, rs httpx.Responder, v *validation.Validator) {
	r.Post("/animals", createAnimalHandler(svc, rs, v))
	r.Get("/animals/search", searchAnimalsHandler(svc, rs, v))
	r.Get("/animals/{animalID}", getAnimalHandler(svc, rs))
	r.Put("/animals/{animalID}", updateAnimalHandler(svc, rs, v))
	r.Delete("/animals/{animalID}", deleteAnimalHandler(svc, rs))
	r.Get("/animals/{animalID}/with-measurements", animalWithMeasurementsHandler(svc, rs))

	// Bovinos de una finca
	r.Get("/farms/{farmID}/animals", listFarmAnimalsHandler(svc, rs))
}

type createAnimalRequest struct {
	FarmID string  `json:"farm_id" validate:"required,uuid"`
	Tag    string  `json:"tag" validate:"required,notblank,max=50"`
	Sex    *string `json:"sex" validate:"omitempty,sex"`
	Breed  *string `json:"breed" validate:"omitempty,max=100"`
}

type updateAnimalRequest struct {
	Tag   *string `json:"tag" validate:"omitempty,notblank,max=50"`
	Sex   *string `json:"sex" validate:"omitempty,sex"`
	Breed *string `json:"breed" validate:"omitempty,max=100"`
}

// Response es la representación pública de un bovino.
type Response struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag"`
	Sex       *string   `json:"sex"`
	Breed     *string   `json:"breed"`
	FarmID    string    `json:"farm_id"`
	CreatedAt time.Time `json:"created_at"`
}

type withMeasurementsResponse struct {
	Response
	Measurements []measurements.Response `json:"measurements"`
}

// createAnimalHandler godoc
// @Summary Registrar bovino
// @Description La finca debe pertenecer al usuario; si no, responde 404.
// @Tags animals
// @Accept json
// @Produce json
// @Param payload body createAnimalRequest true "Bovino; sex M o H"
// @Success 201 {object} Response
// @Failure 401 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody "farm not found"
// @Failure 422 {object} httpx.ErrorBody
// @Router /animals [post]
func createAnimalHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req createAnimalRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		a, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			FarmID: req.FarmID,
			Tag:    req.Tag,
			Sex:    req.Sex,
			Breed:  req.Breed,
		})
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, NewResponse(a))
	}
}

// searchAnimalsHandler godoc
// @Summary Buscar bovinos por placa
// @Description Coincidencia parcial sin distinguir mayúsculas, solo en las fincas del usuario.
// @Tags animals
// @Produce json
// @Param tag query string true "Texto a buscar"
// @Success 200 {array} Response
// @Failure 422 {object} httpx.ErrorBody
// @Router /animals/search [get]
func searchAnimalsHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		tag := r.URL.Query().Get("tag")
		if err := v.Var("tag", tag, "required,notblank,max=50"); err != nil {
			rs.Error(w, r, err)
			return
		}

		items, err := svc.Search(r.Context(), claims.UserID, tag)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponses(items))
	}
}

// getAnimalHandler godoc
// @Summary Obtener bovino
// @Tags animals
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorBody
// @Router /animals/{animalID} [get]
func getAnimalHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		a, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "animalID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponse(a))
	}
}

// updateAnimalHandler godoc
// @Summary Actualizar bovino
// @Tags animals
// @Accept json
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Param payload body updateAnimalRequest true "Campos a modificar"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /animals/{animalID} [put]
func updateAnimalHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req updateAnimalRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		a, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "animalID"), Patch{
			Tag:   req.Tag,
			Sex:   req.Sex,
			Breed: req.Breed,
		})
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponse(a))
	}
}

// deleteAnimalHandler godoc
// @Summary Eliminar bovino
// @Description Elimina también sus mediciones.
// @Tags animals
// @Param animalID path string true "ID del bovino"
// @Success 204
// @Failure 404 {object} httpx.ErrorBody
// @Router /animals/{animalID} [delete]
func deleteAnimalHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "animalID")); err != nil {
			rs.Error(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// animalWithMeasurementsHandler godoc
// @Summary Bovino con sus mediciones
// @Tags animals
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Success 200 {object} withMeasurementsResponse
// @Failure 404 {object} httpx.ErrorBody
// @Router /animals/{animalID}/with-measurements [get]
func animalWithMeasurementsHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		res, err := svc.GetWithMeasurements(r.Context(), claims.UserID, chi.URLParam(r, "animalID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, withMeasurementsResponse{
			Response:     NewResponse(res.Animal),
			Measurements: measurements.NewResponses(res.Measurements),
		})
	}
}

// listFarmAnimalsHandler godoc
// @Summary Listar bovinos de una finca
// @Tags animals
// @Produce json
// @Param farmID path string true "ID de la finca"
// @Success 200 {array} Response
// @Failure 404 {object} httpx.ErrorBody
// @Router /farms/{farmID}/animals [get]
func listFarmAnimalsHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		items, err := svc.ListByFarm(r.Context(), claims.UserID, chi.URLParam(r, "farmID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponses(items))
	}
}

func NewResponse(a Animal) Response {
	return Response{
		ID:        a.ID,
		Tag:       a.Tag,
		Sex:       a.Sex,
		Breed:     a.Breed,
		FarmID:    a.FarmID,
		CreatedAt: a.CreatedAt,
	}
}

func NewResponses(items []Animal) []Response {
	out := make([]Response, 0, len(items))
	for _, a := range items {
		out = append(out, NewResponse(a))
	}
	return out
}

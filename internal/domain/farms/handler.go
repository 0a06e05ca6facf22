package farms

import (
	"net/http"
	"time"

	"bovine-monitoring/internal/domain/animals"
	"bovine-monitoring/internal/domain/measurements"
	"bovine-monitoring/internal/middleware"
	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, rs httpx.Responder, v *validation.Validator) {
	r.Route("/farms", func(fr chi.Router) {
		fr.Post("/", createFarmHandler(svc, rs, v))
		fr.Get("/", listFarmsHandler(svc, rs))
		fr.Get("/{farmID}", getFarmHandler(svc, rs))
		fr.Put("/{farmID}", updateFarmHandler(svc, rs, v))
		fr.Delete("/{farmID}", deleteFarmHandler(svc, rs))

		fr.Get("/{farmID}/with-animals", farmWithAnimalsHandler(svc, rs))
		fr.Get("/{farmID}/complete", farmCompleteHandler(svc, rs))
	})
}

type farmRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// Response es la representación pública de una finca.
type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type withAnimalsResponse struct {
	Response
	Animals []animals.Response `json:"animals"`
}

type animalOverviewResponse struct {
	animals.Response
	LatestMeasurement *measurements.Response `json:"latest_measurement"`
	Recent            bool                   `json:"recent"`
}

type summaryResponse struct {
	TotalAnimals            int `json:"total_animals"`
	AnimalsWithMeasurements int `json:"animals_with_measurements"`
	RecentlyMeasured        int `json:"recently_measured"`
}

type completeResponse struct {
	Response
	Animals     []animalOverviewResponse `json:"animals"`
	Summary     summaryResponse          `json:"summary"`
	EvaluatedOn string                   `json:"evaluated_on"`
}

// createFarmHandler godoc
// @Summary Crear finca
// @Tags farms
// @Accept json
// @Produce json
// @Param payload body farmRequest true "Finca"
// @Success 201 {object} Response
// @Failure 401 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /farms [post]
func createFarmHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req farmRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		f, err := svc.Create(r.Context(), claims.UserID, req.Name)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, NewResponse(f))
	}
}

// listFarmsHandler godoc
// @Summary Listar mis fincas
// @Description Más recientes primero.
// @Tags farms
// @Produce json
// @Success 200 {array} Response
// @Failure 401 {object} httpx.ErrorBody
// @Router /farms [get]
func listFarmsHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		items, err := svc.List(r.Context(), claims.UserID)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		out := make([]Response, 0, len(items))
		for _, f := range items {
			out = append(out, NewResponse(f))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// getFarmHandler godoc
// @Summary Obtener finca
// @Tags farms
// @Produce json
// @Param farmID path string true "ID de la finca"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorBody
// @Router /farms/{farmID} [get]
func getFarmHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		f, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "farmID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponse(f))
	}
}

// updateFarmHandler godoc
// @Summary Renombrar finca
// @Tags farms
// @Accept json
// @Produce json
// @Param farmID path string true "ID de la finca"
// @Param payload body farmRequest true "Finca"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /farms/{farmID} [put]
func updateFarmHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req farmRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		f, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "farmID"), req.Name)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponse(f))
	}
}

// deleteFarmHandler godoc
// @Summary Eliminar finca
// @Description Elimina también sus bovinos y mediciones.
// @Tags farms
// @Param farmID path string true "ID de la finca"
// @Success 204
// @Failure 404 {object} httpx.ErrorBody
// @Router /farms/{farmID} [delete]
func deleteFarmHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "farmID")); err != nil {
			rs.Error(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// farmWithAnimalsHandler godoc
// @Summary Finca con sus bovinos
// @Tags farms
// @Produce json
// @Param farmID path string true "ID de la finca"
// @Success 200 {object} withAnimalsResponse
// @Failure 404 {object} httpx.ErrorBody
// @Router /farms/{farmID}/with-animals [get]
func farmWithAnimalsHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		res, err := svc.GetWithAnimals(r.Context(), claims.UserID, chi.URLParam(r, "farmID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, withAnimalsResponse{
			Response: NewResponse(res.Farm),
			Animals:  animals.NewResponses(res.Animals),
		})
	}
}

// farmCompleteHandler godoc
// @Summary Finca completa
// @Description Cada bovino con su última medición (o null) y la marca recent (medición a 30 días o menos), más un resumen.
// @Tags farms
// @Produce json
// @Param farmID path string true "ID de la finca"
// @Success 200 {object} completeResponse
// @Failure 404 {object} httpx.ErrorBody
// @Router /farms/{farmID}/complete [get]
func farmCompleteHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		ov, err := svc.Complete(r.Context(), claims.UserID, chi.URLParam(r, "farmID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, toCompleteResponse(ov))
	}
}

func NewResponse(f Farm) Response {
	return Response{
		ID:        f.ID,
		Name:      f.Name,
		OwnerID:   f.OwnerID,
		CreatedAt: f.CreatedAt,
	}
}

func toCompleteResponse(ov Overview) completeResponse {
	out := completeResponse{
		Response: NewResponse(ov.Farm),
		Animals:  make([]animalOverviewResponse, 0, len(ov.Animals)),
		Summary: summaryResponse{
			TotalAnimals:            ov.Summary.TotalAnimals,
			AnimalsWithMeasurements: ov.Summary.AnimalsWithMeasurements,
			RecentlyMeasured:        ov.Summary.RecentlyMeasured,
		},
		EvaluatedOn: ov.EvaluatedOn.Format(time.DateOnly),
	}
	for _, a := range ov.Animals {
		item := animalOverviewResponse{
			Response: animals.NewResponse(a.Animal),
			Recent:   a.Recent,
		}
		if a.Latest != nil {
			m := measurements.NewResponse(*a.Latest)
			item.LatestMeasurement = &m
		}
		out.Animals = append(out.Animals, item)
	}
	return out
}

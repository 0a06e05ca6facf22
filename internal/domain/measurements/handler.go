package measurements

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/middleware"
	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/logger"
	"bovine-monitoring/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, rs httpx.Responder, v *validation.Validator) {
	r.Route("/measurements", func(mr chi.Router) {
		mr.Post("/", createMeasurementHandler(svc, rs, v))
		mr.Get("/{measurementID}", getMeasurementHandler(svc, rs))
		mr.Put("/{measurementID}", updateMeasurementHandler(svc, rs, v))
		mr.Delete("/{measurementID}", deleteMeasurementHandler(svc, rs))
	})

	// Consultas por animal
	r.Route("/animals/{animalID}/measurements", func(mr chi.Router) {
		mr.Get("/", listMeasurementsHandler(svc, rs))
		mr.Get("/range", rangeMeasurementsHandler(svc, rs, v))
		mr.Get("/latest", latestMeasurementHandler(svc, rs))
		mr.Get("/stats", statsHandler(svc, rs))
		mr.Get("/export", exportHandler(svc, rs))
		mr.Post("/batch", batchHandler(svc, rs, v))
	})
}

// measurementPayload es el cuerpo de alta de una medición.
// Las medidas aceptan número o string decimal (máx. 2 decimales, >= 0).
type measurementPayload struct {
	AnimalID        string  `json:"animal_id"`
	Date            string  `json:"date" validate:"required,civildate"` // YYYY-MM-DD
	HeightCm        *Metric `json:"height_cm" swaggertype:"number"`
	TorsoLengthCm   *Metric `json:"torso_length_cm" swaggertype:"number"`
	ObliqueLengthCm *Metric `json:"oblique_length_cm" swaggertype:"number"`
	HipLengthCm     *Metric `json:"hip_length_cm" swaggertype:"number"`
	HipWidthCm      *Metric `json:"hip_width_cm" swaggertype:"number"`
	ScaleWeightKg   *Metric `json:"scale_weight_kg" swaggertype:"number"`
	AgeMonths       *int    `json:"age_months" validate:"omitempty,gte=0"`
}

// updateMeasurementRequest: campos ausentes no se modifican.
type updateMeasurementRequest struct {
	Date            *string `json:"date" validate:"omitempty,civildate"`
	HeightCm        *Metric `json:"height_cm" swaggertype:"number"`
	TorsoLengthCm   *Metric `json:"torso_length_cm" swaggertype:"number"`
	ObliqueLengthCm *Metric `json:"oblique_length_cm" swaggertype:"number"`
	HipLengthCm     *Metric `json:"hip_length_cm" swaggertype:"number"`
	HipWidthCm      *Metric `json:"hip_width_cm" swaggertype:"number"`
	ScaleWeightKg   *Metric `json:"scale_weight_kg" swaggertype:"number"`
	AgeMonths       *int    `json:"age_months" validate:"omitempty,gte=0"`
}

// Response es la representación pública de una medición.
type Response struct {
	ID              string    `json:"id"`
	AnimalID        string    `json:"animal_id"`
	Date            string    `json:"date"`
	HeightCm        *float64  `json:"height_cm"`
	TorsoLengthCm   *float64  `json:"torso_length_cm"`
	ObliqueLengthCm *float64  `json:"oblique_length_cm"`
	HipLengthCm     *float64  `json:"hip_length_cm"`
	HipWidthCm      *float64  `json:"hip_width_cm"`
	ScaleWeightKg   *float64  `json:"scale_weight_kg"`
	AgeMonths       *int      `json:"age_months"`
	CreatedAt       time.Time `json:"created_at"`
}

type averagesResponse struct {
	HeightCm        *float64 `json:"height_cm"`
	TorsoLengthCm   *float64 `json:"torso_length_cm"`
	ObliqueLengthCm *float64 `json:"oblique_length_cm"`
	HipLengthCm     *float64 `json:"hip_length_cm"`
	HipWidthCm      *float64 `json:"hip_width_cm"`
	ScaleWeightKg   *float64 `json:"scale_weight_kg"`
	AgeMonths       *float64 `json:"age_months"`
}

type statsResponse struct {
	AnimalID          string           `json:"animal_id"`
	TotalMeasurements int              `json:"total_measurements"`
	FirstDate         *string          `json:"first_date"`
	LastDate          *string          `json:"last_date"`
	Averages          averagesResponse `json:"averages"`
}

type batchFailureResponse struct {
	Index  int    `json:"index"`
	Detail string `json:"detail"`
}

type batchResponse struct {
	Created      []Response             `json:"created"`
	Failed       []batchFailureResponse `json:"failed"`
	TotalCreated int                    `json:"total_created"`
	TotalFailed  int                    `json:"total_failed"`
}

type exportResponse struct {
	AnimalID          string     `json:"animal_id"`
	ExportedAt        time.Time  `json:"exported_at"`
	TotalMeasurements int        `json:"total_measurements"`
	Measurements      []Response `json:"measurements"`
}

// createMeasurementHandler godoc
// @Summary Registrar medición
// @Description Registra una medición para un bovino de una finca del usuario. Si el bovino no existe o no es del usuario responde 404 y no se escribe nada.
// @Tags measurements
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body measurementPayload true "Medición; date en formato YYYY-MM-DD"
// @Success 201 {object} Response
// @Failure 401 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody "animal not found"
// @Failure 422 {object} httpx.ErrorBody
// @Router /measurements [post]
func createMeasurementHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req measurementPayload
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Var("animal_id", req.AnimalID, "required"); err != nil {
			rs.Error(w, r, err)
			return
		}

		in, err := req.toInput()
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		m, err := svc.Create(r.Context(), claims.UserID, in)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, NewResponse(m))
	}
}

// getMeasurementHandler godoc
// @Summary Obtener medición
// @Tags measurements
// @Produce json
// @Param measurementID path string true "ID de la medición"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorBody
// @Router /measurements/{measurementID} [get]
func getMeasurementHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		m, err := svc.Get(r.Context(), claims.UserID, chi.URLParam(r, "measurementID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponse(m))
	}
}

// updateMeasurementHandler godoc
// @Summary Actualizar medición
// @Description Actualización parcial: los campos ausentes o null no se modifican.
// @Tags measurements
// @Accept json
// @Produce json
// @Param measurementID path string true "ID de la medición"
// @Param payload body updateMeasurementRequest true "Campos a modificar"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /measurements/{measurementID} [put]
func updateMeasurementHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req updateMeasurementRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		p := Patch{
			HeightCm:        req.HeightCm,
			TorsoLengthCm:   req.TorsoLengthCm,
			ObliqueLengthCm: req.ObliqueLengthCm,
			HipLengthCm:     req.HipLengthCm,
			HipWidthCm:      req.HipWidthCm,
			ScaleWeightKg:   req.ScaleWeightKg,
			AgeMonths:       req.AgeMonths,
		}
		if req.Date != nil {
			d, err := ParseDate(*req.Date)
			if err != nil {
				rs.Error(w, r, dateError("date"))
				return
			}
			p.Date = &d
		}

		m, err := svc.Update(r.Context(), claims.UserID, chi.URLParam(r, "measurementID"), p)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponse(m))
	}
}

// deleteMeasurementHandler godoc
// @Summary Eliminar medición
// @Tags measurements
// @Param measurementID path string true "ID de la medición"
// @Success 204
// @Failure 404 {object} httpx.ErrorBody
// @Router /measurements/{measurementID} [delete]
func deleteMeasurementHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "measurementID")); err != nil {
			rs.Error(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// listMeasurementsHandler godoc
// @Summary Listar mediciones de un bovino
// @Description Ordenadas por fecha descendente.
// @Tags measurements
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Param limit query int false "1-100, por defecto 50"
// @Success 200 {array} Response
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /animals/{animalID}/measurements [get]
func listMeasurementsHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				rs.Error(w, r, domainerr.Validation("validation error", domainerr.FieldError{Field: "limit", Message: "must be an integer"}))
				return
			}
			if n == 0 {
				n = -1 // 0 explícito es inválido, no "default"
			}
			limit = n
		}

		items, err := svc.ListByAnimal(r.Context(), claims.UserID, chi.URLParam(r, "animalID"), limit)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponses(items))
	}
}

// rangeMeasurementsHandler godoc
// @Summary Mediciones por rango de fechas
// @Tags measurements
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Param from query string true "Fecha inicial YYYY-MM-DD (inclusive)"
// @Param to query string true "Fecha final YYYY-MM-DD (inclusive)"
// @Success 200 {array} Response
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody "fechas inválidas o from > to"
// @Router /animals/{animalID}/measurements/range [get]
func rangeMeasurementsHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		q := r.URL.Query()
		if err := v.Var("from", q.Get("from"), "required,civildate"); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Var("to", q.Get("to"), "required,civildate"); err != nil {
			rs.Error(w, r, err)
			return
		}
		from, _ := ParseDate(q.Get("from"))
		to, _ := ParseDate(q.Get("to"))

		items, err := svc.Range(r.Context(), claims.UserID, chi.URLParam(r, "animalID"), from, to)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponses(items))
	}
}

// latestMeasurementHandler godoc
// @Summary Última medición de un bovino
// @Tags measurements
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Success 200 {object} Response
// @Failure 404 {object} httpx.ErrorBody "sin mediciones o bovino inexistente"
// @Router /animals/{animalID}/measurements/latest [get]
func latestMeasurementHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		m, err := svc.Latest(r.Context(), claims.UserID, chi.URLParam(r, "animalID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, NewResponse(m))
	}
}

// statsHandler godoc
// @Summary Estadísticas de mediciones
// @Description Total, primera/última fecha y promedio por campo (ignorando ausentes; null si ningún registro lo tiene).
// @Tags measurements
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Success 200 {object} statsResponse
// @Failure 404 {object} httpx.ErrorBody
// @Router /animals/{animalID}/measurements/stats [get]
func statsHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		st, err := svc.Stats(r.Context(), claims.UserID, chi.URLParam(r, "animalID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, toStatsResponse(st))
	}
}

// batchHandler godoc
// @Summary Alta masiva de mediciones
// @Description Hasta 50 mediciones para el mismo bovino. Las que fallan se informan por índice; si fallan todas responde 400.
// @Tags measurements
// @Accept json
// @Produce json
// @Param animalID path string true "ID del bovino"
// @Param payload body []measurementPayload true "Mediciones"
// @Success 201 {object} batchResponse
// @Failure 400 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /animals/{animalID}/measurements/batch [post]
func batchHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req []measurementPayload
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if len(req) > MaxBatchSize {
			rs.Error(w, r, domainerr.Validation(fmt.Sprintf("batch cannot exceed %d measurements", MaxBatchSize)))
			return
		}

		inputs := make([]Input, 0, len(req))
		for i, item := range req {
			if err := v.Struct(item); err != nil {
				rs.Error(w, r, prefixFields(err, i))
				return
			}
			in, err := item.toInput()
			if err != nil {
				rs.Error(w, r, prefixFields(err, i))
				return
			}
			inputs = append(inputs, in)
		}

		res, err := svc.Batch(r.Context(), claims.UserID, chi.URLParam(r, "animalID"), inputs)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		out := batchResponse{
			Created:      NewResponses(res.Created),
			Failed:       make([]batchFailureResponse, 0, len(res.Failed)),
			TotalCreated: len(res.Created),
			TotalFailed:  len(res.Failed),
		}
		for _, f := range res.Failed {
			out.Failed = append(out.Failed, batchFailureResponse{Index: f.Index, Detail: f.Detail})
		}

		httpx.WriteJSON(w, http.StatusCreated, out)
	}
}

// exportHandler godoc
// @Summary Exportar mediciones
// @Tags measurements
// @Produce json
// @Produce text/csv
// @Param animalID path string true "ID del bovino"
// @Param format query string false "json (default) o csv"
// @Success 200 {object} exportResponse
// @Failure 404 {object} httpx.ErrorBody
// @Failure 400 {object} httpx.ErrorBody "formato no soportado"
// @Router /animals/{animalID}/measurements/export [get]
func exportHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "csv" {
			rs.Error(w, r, domainerr.Invalid("format must be json or csv"))
			return
		}

		exp, err := svc.Export(r.Context(), claims.UserID, chi.URLParam(r, "animalID"))
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		if format == "csv" {
			name := fmt.Sprintf("measurements_%s_%s.csv", exp.AnimalID, exp.ExportedAt.Format("20060102"))
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
			w.WriteHeader(http.StatusOK)
			if err := WriteCSV(w, exp.Items); err != nil {
				// La cabecera ya salió; solo queda registrarlo.
				logger.FromContext(r.Context()).Warn("csv export interrupted", map[string]any{
					"animal_id": exp.AnimalID,
					"error":     err.Error(),
				})
			}
			return
		}

		httpx.WriteJSON(w, http.StatusOK, exportResponse{
			AnimalID:          exp.AnimalID,
			ExportedAt:        exp.ExportedAt,
			TotalMeasurements: len(exp.Items),
			Measurements:      NewResponses(exp.Items),
		})
	}
}

func (p measurementPayload) toInput() (Input, error) {
	d, err := ParseDate(p.Date)
	if err != nil {
		return Input{}, dateError("date")
	}
	return Input{
		AnimalID:        strings.TrimSpace(p.AnimalID),
		Date:            d,
		HeightCm:        p.HeightCm,
		TorsoLengthCm:   p.TorsoLengthCm,
		ObliqueLengthCm: p.ObliqueLengthCm,
		HipLengthCm:     p.HipLengthCm,
		HipWidthCm:      p.HipWidthCm,
		ScaleWeightKg:   p.ScaleWeightKg,
		AgeMonths:       p.AgeMonths,
	}, nil
}

func NewResponse(m Measurement) Response {
	return Response{
		ID:              m.ID,
		AnimalID:        m.AnimalID,
		Date:            m.Date.Format(time.DateOnly),
		HeightCm:        FloatPtr(m.HeightCm),
		TorsoLengthCm:   FloatPtr(m.TorsoLengthCm),
		ObliqueLengthCm: FloatPtr(m.ObliqueLengthCm),
		HipLengthCm:     FloatPtr(m.HipLengthCm),
		HipWidthCm:      FloatPtr(m.HipWidthCm),
		ScaleWeightKg:   FloatPtr(m.ScaleWeightKg),
		AgeMonths:       m.AgeMonths,
		CreatedAt:       m.CreatedAt,
	}
}

func NewResponses(items []Measurement) []Response {
	out := make([]Response, 0, len(items))
	for _, m := range items {
		out = append(out, NewResponse(m))
	}
	return out
}

func toStatsResponse(st Stats) statsResponse {
	out := statsResponse{
		AnimalID:          st.AnimalID,
		TotalMeasurements: st.Total,
		Averages: averagesResponse{
			HeightCm:        st.Averages.HeightCm,
			TorsoLengthCm:   st.Averages.TorsoLengthCm,
			ObliqueLengthCm: st.Averages.ObliqueLengthCm,
			HipLengthCm:     st.Averages.HipLengthCm,
			HipWidthCm:      st.Averages.HipWidthCm,
			ScaleWeightKg:   st.Averages.ScaleWeightKg,
			AgeMonths:       st.Averages.AgeMonths,
		},
	}
	if st.FirstDate != nil {
		s := st.FirstDate.Format(time.DateOnly)
		out.FirstDate = &s
	}
	if st.LastDate != nil {
		s := st.LastDate.Format(time.DateOnly)
		out.LastDate = &s
	}
	return out
}

func dateError(field string) error {
	return domainerr.Validation("validation error", domainerr.FieldError{Field: field, Message: "must be a date in YYYY-MM-DD format"})
}

// prefixFields antepone el índice del ítem a cada campo inválido: "[3].date".
func prefixFields(err error, i int) error {
	fields := domainerr.FieldsOf(err)
	if len(fields) == 0 {
		return err
	}
	out := make([]domainerr.FieldError, 0, len(fields))
	for _, f := range fields {
		out = append(out, domainerr.FieldError{Field: fmt.Sprintf("[%d].%s", i, f.Field), Message: f.Message})
	}
	return domainerr.Validation("validation error", out...)
}

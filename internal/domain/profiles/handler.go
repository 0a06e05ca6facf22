package profiles

import (
	"net/http"
	"time"

	"bovine-monitoring/internal/middleware"
	"bovine-monitoring/internal/platform/httpx"
	"bovine-monitoring/internal/platform/validation"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, rs httpx.Responder, v *validation.Validator) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(svc, rs, v))
		ar.Post("/login", loginHandler(svc, rs, v))
		ar.Post("/logout", logoutHandler(svc, rs))

		// Perfil del usuario actual
		ar.Get("/me", getMeHandler(svc, rs))
		ar.Put("/me", updateMeHandler(svc, rs, v))
		ar.Patch("/me", updateMeHandler(svc, rs, v))

		ar.Get("/verify", verifyHandler(rs))
	})
}

type registerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	FullName        *string `json:"full_name" validate:"omitempty,max=255"`
	ProfileImageURL *string `json:"profile_image_url" validate:"omitempty,url"`
}

type ProfileResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	FullName        *string   `json:"full_name"`
	ProfileImageURL *string   `json:"profile_image_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type userResponse struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	CreatedAt time.Time        `json:"created_at"`
	Profile   *ProfileResponse `json:"profile"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea la cuenta en el proveedor de identidad y su perfil.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro; password de 6 caracteres o más"
// @Success 201 {object} tokenResponse
// @Failure 400 {object} httpx.ErrorBody "rechazado por el proveedor (p.ej. email ya registrado)"
// @Failure 422 {object} httpx.ErrorBody
// @Router /auth/register [post]
func registerHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		acc, err := svc.Register(r.Context(), RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
		})
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusCreated, toTokenResponse(acc))
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /auth/login [post]
func loginHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		acc, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, toTokenResponse(acc))
	}
}

// logoutHandler godoc
// @Summary Cerrar sesión
// @Tags auth
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} messageResponse
// @Failure 401 {object} httpx.ErrorBody
// @Router /auth/logout [post]
func logoutHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := middleware.RequireClaims(r.Context()); err != nil {
			rs.Error(w, r, err)
			return
		}

		svc.Logout(r.Context(), middleware.BearerToken(r))
		httpx.WriteJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
	}
}

// getMeHandler godoc
// @Summary Perfil del usuario actual
// @Tags auth
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody
// @Router /auth/me [get]
func getMeHandler(svc *Service, rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		p, err := svc.Get(r.Context(), claims.UserID)
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		out := NewProfileResponse(p)
		out.Email = claims.Email
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// updateMeHandler godoc
// @Summary Actualizar perfil
// @Description Actualización parcial del perfil del usuario actual.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body updateProfileRequest true "Campos a modificar"
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} httpx.ErrorBody
// @Failure 404 {object} httpx.ErrorBody
// @Failure 422 {object} httpx.ErrorBody
// @Router /auth/me [put]
func updateMeHandler(svc *Service, rs httpx.Responder, v *validation.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		var req updateProfileRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			rs.Error(w, r, err)
			return
		}
		if err := v.Struct(req); err != nil {
			rs.Error(w, r, err)
			return
		}

		p, err := svc.Update(r.Context(), claims.UserID, Patch{
			FullName: req.FullName,
			ImageURL: req.ProfileImageURL,
		})
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		out := NewProfileResponse(p)
		out.Email = claims.Email
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// verifyHandler godoc
// @Summary Verificar token
// @Tags auth
// @Produce json
// @Success 200 {object} verifyResponse
// @Failure 401 {object} httpx.ErrorBody
// @Router /auth/verify [get]
func verifyHandler(rs httpx.Responder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.RequireClaims(r.Context())
		if err != nil {
			rs.Error(w, r, err)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, verifyResponse{Valid: true, UserID: claims.UserID, Email: claims.Email})
	}
}

func NewProfileResponse(p Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID,
		FullName:        p.FullName,
		ProfileImageURL: p.ImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toTokenResponse(acc Account) tokenResponse {
	out := tokenResponse{
		AccessToken:  acc.Session.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    acc.Session.ExpiresIn,
		RefreshToken: acc.Session.RefreshToken,
		User: userResponse{
			ID:        acc.Session.User.ID,
			Email:     acc.Session.User.Email,
			CreatedAt: acc.Session.User.CreatedAt,
		},
	}
	if acc.Profile != nil {
		p := NewProfileResponse(*acc.Profile)
		p.Email = acc.Session.User.Email
		out.User.Profile = &p
	}
	return out
}

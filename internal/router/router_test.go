package router_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authmem "bovine-monitoring/internal/adapters/auth/memory"
	"bovine-monitoring/internal/middleware"
	"bovine-monitoring/internal/platform/config"
	"bovine-monitoring/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type client struct {
	t      *testing.T
	base   string
	userID string
	token  string
}

func (c client) do(method, path string, body any) (int, http.Header, []byte) {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(middleware.DebugUserHeader, c.userID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, resp.Header, raw
}

func (c client) json(method, path string, body any, wantStatus int) map[string]any {
	c.t.Helper()
	st, _, raw := c.do(method, path, body)
	require.Equal(c.t, wantStatus, st, "%s %s body=%s", method, path, string(raw))

	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &out))
	}
	return out
}

func TestHTTP_EndToEnd_OwnershipChain(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	owner := client{t: t, base: ts.URL, userID: "owner-1"}
	other := client{t: t, base: ts.URL, userID: "other-1"}
	anon := client{t: t, base: ts.URL}

	health := anon.json("GET", "/health", nil, http.StatusOK)
	assert.Equal(t, "healthy", health["status"])

	// 1) Finca, bovino y medición de hoy
	farm := owner.json("POST", "/api/v1/farms", map[string]any{"name": "La Esperanza"}, http.StatusCreated)
	farmID := farm["id"].(string)
	assert.Equal(t, "owner-1", farm["owner_id"])

	animal := owner.json("POST", "/api/v1/animals", map[string]any{
		"farm_id": farmID,
		"tag":     "BOV-001",
		"sex":     "H",
	}, http.StatusCreated)
	animalID := animal["id"].(string)

	// Sin medición todavía
	owner.json("POST", "/api/v1/animals", map[string]any{"farm_id": farmID, "tag": "BOV-002"}, http.StatusCreated)

	today := time.Now().UTC().Format(time.DateOnly)
	m := owner.json("POST", "/api/v1/measurements", map[string]any{
		"animal_id":  animalID,
		"date":       today,
		"height_cm":  120.5,
		"age_months": 14,
	}, http.StatusCreated)
	assert.Equal(t, 120.5, m["height_cm"])
	assert.Equal(t, today, m["date"])

	// 2) Resumen de la finca
	complete := owner.json("GET", "/api/v1/farms/"+farmID+"/complete", nil, http.StatusOK)
	assert.Equal(t, map[string]any{
		"total_animals":             float64(2),
		"animals_with_measurements": float64(1),
		"recently_measured":         float64(1),
	}, complete["summary"])

	// 3) Otro usuario no ve nada: siempre 404 con el cuerpo común
	body := other.json("GET", "/api/v1/animals/"+animalID, nil, http.StatusNotFound)
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "animal not found", body["detail"])
	assert.Equal(t, float64(404), body["status_code"])

	other.json("GET", "/api/v1/farms/"+farmID, nil, http.StatusNotFound)
	other.json("POST", "/api/v1/measurements", map[string]any{"animal_id": animalID, "date": today}, http.StatusNotFound)

	// Exponentes extremos se rechazan al decodificar
	start := time.Now()
	owner.json("POST", "/api/v1/measurements", map[string]any{
		"animal_id": animalID,
		"date":      today,
		"height_cm": json.RawMessage(`1e50000000`),
	}, http.StatusBadRequest)
	owner.json("POST", "/api/v1/animals/"+animalID+"/measurements/batch", []map[string]any{
		{"animal_id": animalID, "date": today, "scale_weight_kg": json.RawMessage(`"9e-50000000"`)},
	}, http.StatusBadRequest)
	assert.Less(t, time.Since(start), 2*time.Second)

	stats := owner.json("GET", "/api/v1/animals/"+animalID+"/measurements/stats", nil, http.StatusOK)
	assert.Equal(t, float64(1), stats["total_measurements"])

	// 4) Ids mal formados y sin auth
	owner.json("GET", "/api/v1/farms/no-es-uuid", nil, http.StatusNotFound)
	anon.json("GET", "/api/v1/farms", nil, http.StatusUnauthorized)

	// 5) Búsqueda y export
	st, _, raw := owner.do("GET", "/api/v1/animals/search?tag=bov", nil)
	require.Equal(t, http.StatusOK, st)
	var found []map[string]any
	require.NoError(t, json.Unmarshal(raw, &found))
	assert.Len(t, found, 2)

	st, hdr, raw := owner.do("GET", "/api/v1/animals/"+animalID+"/measurements/export?format=csv", nil)
	require.Equal(t, http.StatusOK, st)
	assert.True(t, strings.HasPrefix(hdr.Get("Content-Type"), "text/csv"))
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(string(raw)), "\n")+1)

	owner.json("GET", "/api/v1/animals/"+animalID+"/measurements/export?format=xml", nil, http.StatusBadRequest)

	// 6) Borrar la finca arrastra bovinos y mediciones
	st, _, _ = owner.do("DELETE", "/api/v1/farms/"+farmID, nil)
	require.Equal(t, http.StatusNoContent, st)
	owner.json("GET", "/api/v1/animals/"+animalID, nil, http.StatusNotFound)
	owner.json("GET", "/api/v1/measurements/"+m["id"].(string), nil, http.StatusNotFound)
}

func TestHTTP_AuthFlowAndProfileImage(t *testing.T) {
	idp := authmem.NewIdentityProvider()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Identity:     idp,
		AuthVerifier: idp,
	}))
	defer ts.Close()

	anon := client{t: t, base: ts.URL}

	reg := anon.json("POST", "/api/v1/auth/register", map[string]any{
		"email":     "ana@finca.co",
		"password":  "secreto",
		"full_name": "Ana Pérez",
	}, http.StatusCreated)
	assert.Equal(t, "bearer", reg["token_type"])
	token := reg["access_token"].(string)
	require.NotEmpty(t, token)

	anon.json("POST", "/api/v1/auth/register", map[string]any{"email": "ana@finca.co", "password": "secreto"}, http.StatusBadRequest)
	anon.json("POST", "/api/v1/auth/login", map[string]any{"email": "ana@finca.co", "password": "otra-clave"}, http.StatusUnauthorized)

	login := anon.json("POST", "/api/v1/auth/login", map[string]any{"email": "ana@finca.co", "password": "secreto"}, http.StatusOK)
	token = login["access_token"].(string)

	user := client{t: t, base: ts.URL, token: token}

	me := user.json("GET", "/api/v1/auth/me", nil, http.StatusOK)
	assert.Equal(t, "ana@finca.co", me["email"])
	assert.Equal(t, "Ana Pérez", me["full_name"])

	// El header de debug se ignora cuando hay verifier
	client{t: t, base: ts.URL, userID: "intruso"}.json("GET", "/api/v1/farms", nil, http.StatusUnauthorized)

	up := user.json("POST", "/api/v1/images/upload-profile", map[string]any{
		"image_base64": "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes),
		"file_name":    "yo.png",
	}, http.StatusCreated)
	assert.Equal(t, up["url"], up["public_url"])
	assert.True(t, strings.HasPrefix(up["path"].(string), "perfiles/"))

	me = user.json("GET", "/api/v1/auth/me", nil, http.StatusOK)
	assert.Equal(t, up["public_url"], me["profile_image_url"])

	user.json("POST", "/api/v1/images/upload-profile", map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 nada")),
	}, http.StatusBadRequest)

	user.json("POST", "/api/v1/auth/logout", nil, http.StatusOK)
	user.json("GET", "/api/v1/auth/me", nil, http.StatusUnauthorized)
}

func TestHTTP_HealthDegradedAndMetrics(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Config: config.Default(),
		HealthCheck: func(context.Context) error {
			return errors.New("db down")
		},
	}))
	defer ts.Close()

	anon := client{t: t, base: ts.URL}
	health := anon.json("GET", "/health", nil, http.StatusOK)
	assert.Equal(t, "degraded", health["status"])
	assert.Equal(t, "Monitoreo Bovinos IA Backend", health["service"])

	welcome := anon.json("GET", "/", nil, http.StatusOK)
	assert.Equal(t, "1.0.0", welcome["version"])

	st, _, raw := anon.do("GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(raw), "bovinos_http_requests_total")

	anon.json("GET", "/no-existe", nil, http.StatusNotFound)
}

func TestHTTP_RateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.RPS = 0.001
	cfg.RateLimit.Burst = 2

	ts := httptest.NewServer(router.NewRouter(router.Options{Config: cfg}))
	defer ts.Close()

	c := client{t: t, base: ts.URL, userID: "owner-1"}
	for i := 0; i < 2; i++ {
		st, _, _ := c.do("GET", "/api/v1/farms", nil)
		require.Equal(t, http.StatusOK, st)
	}
	body := c.json("GET", "/api/v1/farms", nil, http.StatusTooManyRequests)
	assert.Equal(t, "rate limit exceeded", body["detail"])

	// Otro usuario tiene su propio cupo
	st, _, _ := client{t: t, base: ts.URL, userID: "owner-2"}.do("GET", "/api/v1/farms", nil)
	assert.Equal(t, http.StatusOK, st)
}

func TestHTTP_CORSCredentials(t *testing.T) {
	preflight := func(t *testing.T, cfg config.Config, origin string) http.Header {
		t.Helper()
		ts := httptest.NewServer(router.NewRouter(router.Options{Config: cfg}))
		defer ts.Close()

		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/farms", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.Header
	}

	hdr := preflight(t, config.Default(), "https://evil.example")
	assert.Empty(t, hdr.Get("Access-Control-Allow-Credentials"))
	assert.NotEqual(t, "https://evil.example", hdr.Get("Access-Control-Allow-Origin"))

	cfg := config.Default()
	cfg.CORSOrigins = []string{"https://app.finca.co"}
	hdr = preflight(t, cfg, "https://app.finca.co")
	assert.Equal(t, "true", hdr.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "https://app.finca.co", hdr.Get("Access-Control-Allow-Origin"))
}

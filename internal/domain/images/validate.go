package images

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"bovine-monitoring/internal/domain/domainerr"

	"github.com/gabriel-vasile/mimetype"
)

// Tipos aceptados y la extensión con la que se guardan.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Validate comprueba tamaño, tipo declarado y contenido real.
// Devuelve el content type detectado.
func Validate(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", domainerr.Invalid("file is empty")
	}
	if len(u.Data) > MaxImageSize {
		return "", domainerr.Invalid("file exceeds the 10MB limit")
	}

	if declared := normalizeType(u.ContentType); declared != "" {
		if _, ok := allowedTypes[declared]; !ok {
			return "", domainerr.Invalid(fmt.Sprintf("file type not allowed: %s", declared))
		}
	}

	detected := mimetype.Detect(u.Data)
	for t := range allowedTypes {
		if detected.Is(t) {
			return t, nil
		}
	}
	return "", domainerr.Invalid(fmt.Sprintf("file content is not an allowed image: %s", detected.String()))
}

// DecodeDataURL acepta "data:<mime>;base64,<datos>" o base64 pelado.
// El tamaño se revisa antes de decodificar.
func DecodeDataURL(s string) (Upload, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Upload{}, domainerr.Invalid("image_base64 is required")
	}

	var u Upload
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(strings.ToLower(header), ";base64") {
			return Upload{}, domainerr.Invalid("invalid data url")
		}
		u.ContentType = header[:len(header)-len(";base64")]
		s = payload
	}

	if base64.StdEncoding.DecodedLen(len(s)) > MaxImageSize+2 {
		return Upload{}, domainerr.Invalid("file exceeds the 10MB limit")
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Upload{}, domainerr.Wrap(domainerr.ErrInvalidInput, "invalid base64 image", err)
	}
	u.Data = data
	return u, nil
}

func normalizeType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "application/octet-stream":
		// Sin tipo útil: se decide por contenido.
		return ""
	}
	return ct
}

// extensionFor conserva la extensión original si coincide con el tipo detectado.
func extensionFor(fileName, contentType string) string {
	ext := strings.ToLower(path.Ext(fileName))
	want := allowedTypes[contentType]
	if ext == want || (contentType == "image/jpeg" && ext == ".jpeg") {
		return ext
	}
	return want
}

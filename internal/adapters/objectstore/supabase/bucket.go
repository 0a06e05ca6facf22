package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sbplatform "bovine-monitoring/internal/platform/supabase"
	"bovine-monitoring/internal/ports/objectstore"

	"github.com/tidwall/gjson"
)

// Tope de objetos por listado (Storage pagina de a 100 por defecto).
const listLimit = 1000

// Bucket implementa objectstore.ObjectStore sobre Supabase Storage.
type Bucket struct {
	sb   *sbplatform.Client
	name string
}

func NewBucket(sb *sbplatform.Client, name string) (*Bucket, error) {
	name = strings.TrimSpace(name)
	if sb == nil || name == "" {
		return nil, errors.New("storage bucket not configured")
	}
	return &Bucket{sb: sb, name: name}, nil
}

func (b *Bucket) Upload(ctx context.Context, path string, data []byte, opts objectstore.UploadOptions) error {
	h := b.sb.ServiceHeaders()
	h["Content-Type"] = opts.ContentType
	if opts.CacheControl != "" {
		h["Cache-Control"] = "max-age=" + opts.CacheControl
	}
	h["x-upsert"] = "false"

	u := b.sb.StorageURL("object/" + url.PathEscape(b.name) + "/" + escapePath(path))
	if err := b.sb.HTTP().Do(ctx, http.MethodPost, u, h, data, nil); err != nil {
		return fmt.Errorf("storage upload %s: %w", path, err)
	}
	return nil
}

// Delete borra los paths indicados. Si Storage no borró ninguno devuelve ErrNotFound.
func (b *Bucket) Delete(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	var raw json.RawMessage
	u := b.sb.StorageURL("object/" + url.PathEscape(b.name))
	err := b.sb.HTTP().DoJSON(ctx, http.MethodDelete, u, b.sb.ServiceHeaders(), map[string][]string{"prefixes": paths}, &raw)
	if err != nil {
		return fmt.Errorf("storage delete: %w", err)
	}

	if res := gjson.ParseBytes(raw); res.IsArray() && len(res.Array()) == 0 {
		return objectstore.ErrNotFound
	}
	return nil
}

func (b *Bucket) List(ctx context.Context, prefix string) ([]objectstore.Object, error) {
	prefix = strings.Trim(prefix, "/")
	body := map[string]any{
		"prefix": prefix,
		"limit":  listLimit,
		"offset": 0,
		"sortBy": map[string]string{"column": "created_at", "order": "desc"},
	}

	var raw json.RawMessage
	u := b.sb.StorageURL("object/list/" + url.PathEscape(b.name))
	if err := b.sb.HTTP().DoJSON(ctx, http.MethodPost, u, b.sb.ServiceHeaders(), body, &raw); err != nil {
		return nil, fmt.Errorf("storage list %s: %w", prefix, err)
	}

	out := make([]objectstore.Object, 0)
	for _, it := range gjson.ParseBytes(raw).Array() {
		// Las "carpetas" vienen sin id.
		if it.Get("id").Type == gjson.Null {
			continue
		}
		o := objectstore.Object{
			Path:        prefix + "/" + it.Get("name").String(),
			Size:        it.Get("metadata.size").Int(),
			ContentType: it.Get("metadata.mimetype").String(),
		}
		if ts := it.Get("updated_at").String(); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				o.UpdatedAt = t.UTC()
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (b *Bucket) PublicURL(path string) string {
	return b.sb.StorageURL("object/public/" + url.PathEscape(b.name) + "/" + escapePath(path))
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

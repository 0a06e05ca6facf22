package images

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/domain/profiles"
	"bovine-monitoring/internal/platform/logger"
	"bovine-monitoring/internal/ports/objectstore"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ProfileUpdater guarda la URL de la imagen en el perfil del usuario.
type ProfileUpdater interface {
	SetImageURL(ctx context.Context, userID, url string) (profiles.Profile, error)
}

type Service struct {
	store    objectstore.ObjectStore
	profiles ProfileUpdater
	now      func() time.Time
	newID    func() (string, error)
}

func NewService(store objectstore.ObjectStore, pu ProfileUpdater) *Service {
	return &Service{
		store:    store,
		profiles: pu,
		now:      time.Now,
		newID:    func() (string, error) { return gonanoid.Generate(idAlphabet, 8) },
	}
}

// UploadProfileImage sube la imagen y la asigna al perfil. Si el perfil no se
// puede actualizar, el objeto subido se borra.
func (s *Service) UploadProfileImage(ctx context.Context, userID string, u Upload) (Stored, error) {
	if strings.TrimSpace(userID) == "" {
		return Stored{}, domainerr.Unauthorized("not authenticated")
	}

	st, err := s.put(ctx, FolderProfiles, userID, u)
	if err != nil {
		return Stored{}, err
	}

	if _, err := s.profiles.SetImageURL(ctx, userID, st.PublicURL); err != nil {
		if derr := s.store.Delete(ctx, st.Path); derr != nil {
			logger.FromContext(ctx).Error("orphaned profile image", map[string]any{"path": st.Path, "error": derr})
		}
		return Stored{}, err
	}
	return st, nil
}

// UploadImages sube varios archivos a la carpeta de bovinos del usuario.
// Cada archivo se valida por separado; los que fallan se reportan.
func (s *Service) UploadImages(ctx context.Context, userID string, files []Upload) (BatchResult, error) {
	if strings.TrimSpace(userID) == "" {
		return BatchResult{}, domainerr.Unauthorized("not authenticated")
	}
	if len(files) == 0 {
		return BatchResult{}, domainerr.Invalid("no files provided")
	}
	if len(files) > MaxFilesPerUpload {
		return BatchResult{}, domainerr.Invalid(fmt.Sprintf("at most %d files per upload", MaxFilesPerUpload))
	}

	res := BatchResult{
		Uploaded: make([]Stored, 0, len(files)),
		Failed:   make([]Failure, 0),
	}
	for _, f := range files {
		st, err := s.put(ctx, FolderAnimals, userID, f)
		if err != nil {
			detail := domainerr.DetailOf(err)
			if detail == "" {
				logger.FromContext(ctx).Warn("image upload failed", map[string]any{"file": f.FileName, "error": err})
				detail = "upload failed"
			}
			res.Failed = append(res.Failed, Failure{FileName: f.FileName, Detail: detail})
			continue
		}
		res.Uploaded = append(res.Uploaded, st)
	}
	return res, nil
}

func (s *Service) List(ctx context.Context, userID, folder string) ([]Image, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerr.Unauthorized("not authenticated")
	}
	if folder == "" {
		folder = FolderAnimals
	}
	if folder != FolderProfiles && folder != FolderAnimals {
		return nil, domainerr.Validation("validation error", domainerr.FieldError{Field: "folder", Message: "must be one of: perfiles bovinos"})
	}

	objs, err := s.store.List(ctx, folder+"/"+userID)
	if err != nil {
		return nil, fmt.Errorf("images: list: %w", err)
	}

	out := make([]Image, 0, len(objs))
	for _, o := range objs {
		out = append(out, Image{
			Path:        o.Path,
			Name:        path.Base(o.Path),
			PublicURL:   s.store.PublicURL(o.Path),
			Size:        o.Size,
			ContentType: o.ContentType,
			UpdatedAt:   o.UpdatedAt,
		})
	}
	return out, nil
}

// Delete borra un objeto del usuario. Rutas fuera de sus carpetas son 404.
func (s *Service) Delete(ctx context.Context, userID, objectPath string) error {
	if strings.TrimSpace(userID) == "" {
		return domainerr.Unauthorized("not authenticated")
	}
	if !ownsPath(userID, objectPath) {
		return domainerr.NotFound("image not found")
	}

	if err := s.store.Delete(ctx, objectPath); err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return domainerr.NotFound("image not found")
		}
		return fmt.Errorf("images: delete: %w", err)
	}
	return nil
}

func (s *Service) put(ctx context.Context, folder, userID string, u Upload) (Stored, error) {
	contentType, err := Validate(u)
	if err != nil {
		return Stored{}, err
	}

	id, err := s.newID()
	if err != nil {
		return Stored{}, fmt.Errorf("images: object id: %w", err)
	}
	objectPath := fmt.Sprintf("%s/%s/%s_%s%s",
		folder, userID, s.now().UTC().Format("20060102_150405"), id, extensionFor(u.FileName, contentType))

	if err := s.store.Upload(ctx, objectPath, u.Data, objectstore.UploadOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	}); err != nil {
		return Stored{}, fmt.Errorf("images: upload: %w", err)
	}

	name := strings.TrimSpace(u.FileName)
	if name == "" {
		name = path.Base(objectPath)
	}
	return Stored{Path: objectPath, PublicURL: s.store.PublicURL(objectPath), FileName: name}, nil
}

func ownsPath(userID, p string) bool {
	if p == "" || strings.Contains(p, "..") || path.Clean(p) != p {
		return false
	}
	for _, folder := range []string{FolderProfiles, FolderAnimals} {
		prefix := folder + "/" + userID + "/"
		if strings.HasPrefix(p, prefix) && len(p) > len(prefix) {
			return true
		}
	}
	return false
}

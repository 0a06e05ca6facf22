package images

import "time"

const (
	MaxImageSize      = 10 << 20
	MaxFilesPerUpload = 10

	FolderProfiles = "perfiles"
	FolderAnimals  = "bovinos"

	cacheControl = "3600"
)

// Upload es un archivo recibido, antes de validar.
type Upload struct {
	FileName    string
	ContentType string // declarado por el cliente; puede venir vacío
	Data        []byte
}

// Stored es un objeto ya guardado en el bucket.
type Stored struct {
	Path      string
	PublicURL string
	FileName  string
}

type Failure struct {
	FileName string
	Detail   string
}

type BatchResult struct {
	Uploaded []Stored
	Failed   []Failure
}

// Image es un objeto listado en una carpeta del usuario.
type Image struct {
	Path        string
	Name        string
	PublicURL   string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}

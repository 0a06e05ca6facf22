package profiles

import "time"

// Profile son los datos de la cuenta; ID es el id del usuario en el proveedor de auth.
type Profile struct {
	ID       string
	FullName *string
	ImageURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

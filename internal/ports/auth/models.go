package auth

import "time"

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// User es la identidad tal como la devuelve el proveedor de auth.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Session es el resultado de un registro o login.
// En registros con confirmación de email pendiente AccessToken viene vacío.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int
	User         User
}

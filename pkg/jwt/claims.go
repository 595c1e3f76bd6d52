package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the session process to the host bridge
type Claims struct {
	UserID   string `json:"user_id"`
	RoomName string `json:"room_name"`
	jwt.RegisteredClaims
}

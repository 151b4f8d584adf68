package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims incluye los claims estándar JWT más el dueño del token.
// ID (jti) es el id de la fila en access_tokens; sin esa fila el token no es válido.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Generate firma un token para la sesión tokenID del usuario userID.
// expMinutes <= 0 no agrega exp: la sesión vive hasta el logout.
func Generate(secret, tokenID, userID, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if tokenID == "" || userID == "" {
		return "", fmt.Errorf("jwt: tokenID y userID son obligatorios")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       tokenID,
			Issuer:   issuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	if expMinutes > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve los claims.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("claims inválidos")
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, errors.New("claims incompletos")
	}
	return claims, nil
}

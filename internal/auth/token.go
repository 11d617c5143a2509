package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ms-excursions/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ExtractTokenFromRequest extracts a JWT from the Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// ExtractIdentityFromJWT pulls the platform claims out of a token the
// gateway already verified. Signature validation happens upstream in
// the OIDC middleware.
func ExtractIdentityFromJWT(tokenString string) (models.Identity, error) {
	if tokenString == "" {
		return models.Identity{}, errors.New("empty token")
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Identity{}, errors.New("subject claim not found in token")
	}

	identity := models.Identity{Subject: sub}
	if sellerID, ok := claims["seller_id"].(float64); ok {
		identity.SellerID = int64(sellerID)
	}
	if role, ok := claims["role"].(string); ok {
		identity.Role = models.Role(role)
	}
	return identity, nil
}

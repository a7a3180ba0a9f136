package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"olympiad-api/models"
)

// Envelope is the body of every 2xx response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

func RespondWithError(w http.ResponseWriter, status int, e models.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := struct {
		Success bool                `json:"success"`
		Error   string              `json:"error"`
		Errors  []models.FieldError `json:"errors,omitempty"`
	}{Success: false, Error: e.Message, Errors: e.Errors}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to encode error response")
	}
}

func ResponseJSON(w http.ResponseWriter, data interface{}) {
	ResponseJSONStatus(w, http.StatusOK, data, "")
}

func ResponseJSONStatus(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Success: true, Data: data, Message: message}); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

// ResponseJSONCount responds with data plus its element count, the shape the
// listing endpoints use.
func ResponseJSONCount(w http.ResponseWriter, data interface{}, count int) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Envelope{Success: true, Data: data, Count: &count}); err != nil {
		log.WithError(err).Error("failed to encode response")
	}
}

// RespondStorageError logs the storage failure and returns a generic 500.
// Outside production mode the underlying error text is included.
func RespondStorageError(w http.ResponseWriter, op string, err error) {
	log.WithError(err).Error(op)
	msg := op
	if os.Getenv("APP_ENV") != "production" {
		msg = fmt.Sprintf("%s: %v", op, err)
	}
	RespondWithError(w, http.StatusInternalServerError, models.Error{Message: msg})
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func ComparePasswords(hashedPassword string, password []byte) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), password) == nil
}

// AuthContext is the identity snapshot carried by a token. Permissions are
// captured at issuance time and not re-read per request; a revoked permission
// stays valid until the token expires.
type AuthContext struct {
	UserID      int
	Email       string
	Name        string
	Level       int
	Permissions []string
}

// HasPermission is the single policy-evaluation point. Route guards go
// through it instead of comparing role integers inline; role levels map to
// permission sets in the seed data.
func (a AuthContext) HasPermission(name string) bool {
	for _, p := range a.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// GenerateToken issues the session token for a logged-in user.
func GenerateToken(user models.User, expiration time.Duration) (string, error) {
	secret := os.Getenv("SECRET")
	if secret == "" {
		return "", errors.New("SECRET environment variable is not set")
	}

	claims := jwt.MapClaims{
		"iss":         "olympiad-api",
		"user_id":     user.ID,
		"email":       user.Email,
		"name":        user.FullName,
		"level":       user.RoleLevel,
		"permissions": user.Permissions,
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(expiration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken validates the bearer token of a request and rebuilds the
// identity snapshot from its claims.
func VerifyToken(r *http.Request) (AuthContext, error) {
	var auth AuthContext

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return auth, errors.New("authorization header missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return auth, errors.New("invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(os.Getenv("SECRET")), nil
	})
	if err != nil || !token.Valid {
		return auth, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return auth, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return auth, errors.New("user_id not found in token")
	}
	auth.UserID = int(userID)
	if email, ok := claims["email"].(string); ok {
		auth.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		auth.Name = name
	}
	if level, ok := claims["level"].(float64); ok {
		auth.Level = int(level)
	}
	if perms, ok := claims["permissions"].([]interface{}); ok {
		for _, p := range perms {
			if s, ok := p.(string); ok {
				auth.Permissions = append(auth.Permissions, s)
			}
		}
	}
	return auth, nil
}

// ClientIP returns the requester address, honoring X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		host = host[:i]
	}
	return host
}

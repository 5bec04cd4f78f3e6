package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type contextKey string

const ownerContextKey contextKey = "owner_key"

const sessionTokenHeader = "X-Session-Token"

// Authenticator извлекает владельца корзины из запроса. Bearer-токен
// даёт авторизованного владельца, заголовок X-Session-Token — анонимного.
// Невалидный Bearer-токен отклоняется с 401: тихий откат к анонимной
// сессии смешал бы корзины двух владельцев.
type Authenticator struct {
	secret []byte
	logger *log.Entry
}

// NewAuthenticator создаёт Authenticator с HS256 секретом.
func NewAuthenticator(secret []byte, logger *log.Entry) *Authenticator {
	if logger == nil {
		logger = log.New().WithField("component", "http-auth")
	}
	return &Authenticator{secret: secret, logger: logger}
}

// Middleware резолвит владельца и кладёт его в контекст запроса.
// Запрос без Bearer-токена и без session-токена проходит дальше без
// владельца: публичные маршруты (каталог, health) его не требуют.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			userID, err := a.userIDFromBearer(header)
			if err != nil {
				a.logger.WithError(err).Debug("rejected bearer token")
				respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}
			owner := domain.AuthenticatedOwner(userID)
			next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
			return
		}

		if token := r.Header.Get(sessionTokenHeader); token != "" {
			owner := domain.AnonymousOwner(token)
			if err := owner.Validate(); err != nil {
				respondError(w, http.StatusBadRequest, "invalid_request", "invalid session token")
				return
			}
			next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) userIDFromBearer(header string) (string, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", domain.ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", domain.ErrUnauthenticated
	}
	return claims.Subject, nil
}

// IssueToken выпускает HS256 токен для userID. Используется сидингом и
// тестами; выдача токенов конечным пользователям живёт вне этого сервиса.
func (a *Authenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func withOwner(ctx context.Context, owner domain.OwnerKey) context.Context {
	return context.WithValue(ctx, ownerContextKey, owner)
}

// OwnerFromContext возвращает владельца, положенного auth middleware.
func OwnerFromContext(ctx context.Context) (domain.OwnerKey, bool) {
	owner, ok := ctx.Value(ownerContextKey).(domain.OwnerKey)
	return owner, ok
}

// requireOwner достаёт владельца или отвечает 401.
func requireOwner(w http.ResponseWriter, r *http.Request) (domain.OwnerKey, bool) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authorization or session token required")
		return domain.OwnerKey{}, false
	}
	return owner, true
}

// requireUser достаёт авторизованного владельца или отвечает 401.
func requireUser(w http.ResponseWriter, r *http.Request) (domain.OwnerKey, bool) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok || !owner.IsAuthenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authenticated user required")
		return domain.OwnerKey{}, false
	}
	return owner, true
}

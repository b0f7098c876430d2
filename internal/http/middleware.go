package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/techhub/internal/notify"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey string

const (
	shopperIDKey ctxKey = "shopper_id"
	requestIDKey ctxKey = "request_id"

	ShopperCookie = "techhub_sid"
	shopperMaxAge = 365 * 24 * 60 * 60
)

// ShopperMiddleware identifies the anonymous shopper by cookie, issuing a new
// id when the cookie is missing or malformed. The id scopes cart and session state.
func ShopperMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var shopperID string
		if c, err := r.Cookie(ShopperCookie); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				shopperID = id.String()
			}
		}

		if shopperID == "" {
			shopperID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ShopperCookie,
				Value:    shopperID,
				Path:     "/",
				MaxAge:   shopperMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), shopperIDKey, shopperID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NotificationsMiddleware attaches a collector so handlers can return the
// messages raised while serving the request.
func NotificationsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, _ := notify.WithCollector(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func LoggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", getRequestID(r.Context())))
		})
	}
}

func getShopperID(ctx context.Context) string {
	if shopperID, ok := ctx.Value(shopperIDKey).(string); ok {
		return shopperID
	}
	return ""
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

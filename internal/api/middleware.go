package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// AdminToken은 X-Admin-Token 헤더를 상수 시간으로 비교합니다.
// 토큰이 설정되지 않으면 관리 API를 열지 않습니다.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusServiceUnavailable, "관리 토큰이 설정되지 않았습니다")
				return
			}
			provided := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
			if !secureTokenEqual(provided, token) {
				writeError(w, http.StatusUnauthorized, "유효하지 않은 관리 토큰")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger는 요청 하나마다 zap 로그를 남깁니다
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("HTTP 요청",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

func secureTokenEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/recipebook/api/pkg/logger"
)

type logInfoKeyType struct{}

// logInfo is filled in by handlers further down the chain.
type logInfo struct {
	userID uint
}

// Logging logs one line per request with request ID and, once known, the user.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &logInfo{}
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), logInfoKeyType{}, info)))

		fields := []zap.Field{
			zap.String("id", GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Int("bytes", rw.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		}
		if info.userID != 0 {
			fields = append(fields, zap.Uint("user_id", info.userID))
		}
		if rw.status >= http.StatusInternalServerError {
			logger.L().Error("request", fields...)
			return
		}
		logger.L().Info("request", fields...)
	})
}

func setLogUser(ctx context.Context, id uint) {
	if info, ok := ctx.Value(logInfoKeyType{}).(*logInfo); ok {
		info.userID = id
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

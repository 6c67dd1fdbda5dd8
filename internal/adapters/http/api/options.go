package api

import "time"

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes caps request bodies of imports.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithRequestTimeout bounds every business route.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const apiVersion = "1.0.0"

type StatusService struct {
	db *gorm.DB
}

func NewStatusService(db *gorm.DB) *StatusService {
	return &StatusService{db: db}
}

func (s *StatusService) AddRoutes(r chi.Router) {
	r.Get("/", RestHandler(s.Banner))
	r.Get("/health", RestHandler(s.Health))
}

func (s *StatusService) Banner(r *http.Request) (any, error) {
	return map[string]string{
		"message": "ThinkInk AI API",
		"version": apiVersion,
		"status":  "running",
	}, nil
}

func (s *StatusService) Health(r *http.Request) (any, error) {
	sqlDb, err := s.db.DB()
	if err != nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "database unavailable")
	}
	if err := sqlDb.PingContext(r.Context()); err != nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "database unavailable")
	}

	return map[string]string{"status": "healthy"}, nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"hashchat/internal/domain"
	"hashchat/internal/repository"
)

// HistoryService es el camino de lectura del historial entre dos usuarios.
type HistoryService struct {
	repo repository.MessageRepository
}

var ErrHistoryServiceNotConfigured = errors.New("history service not configured")

func NewHistoryService(repo repository.MessageRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// List exige que el solicitante sea uno de los dos participantes.
func (s *HistoryService) List(ctx context.Context, requesterID, userID, otherUserID string, limit int) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrHistoryServiceNotConfigured
	}
	requesterID = strings.TrimSpace(requesterID)
	userID = strings.TrimSpace(userID)
	otherUserID = strings.TrimSpace(otherUserID)

	if requesterID == "" || (requesterID != userID && requesterID != otherUserID) {
		return nil, ErrUnauthorized
	}
	if userID == "" || otherUserID == "" {
		return []domain.Message{}, nil
	}
	return s.repo.History(ctx, userID, otherUserID, domain.ClampHistoryLimit(limit))
}

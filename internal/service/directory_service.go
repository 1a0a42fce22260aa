package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hashchat/internal/domain"
	"hashchat/internal/repository"
)

const (
	minSearchQueryLength = 2
	searchResultLimit    = 10
)

// DirectoryService resuelve usuarios por id o username y busca por prefijo.
type DirectoryService struct {
	logger *zap.Logger
	users  repository.UserRepository
	cache  DisplayNameCache
}

func NewDirectoryService(logger *zap.Logger, users repository.UserRepository, cache DisplayNameCache) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		logger: logger,
		users:  users,
		cache:  cache,
	}
}

// DisplayNameOf devuelve el username. Un cache caido no impide la consulta al repo.
func (s *DirectoryService) DisplayNameOf(ctx context.Context, userID string) (string, error) {
	if s.cache != nil {
		name, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Debug("display name cache get failed", zap.Error(err), zap.String("user_id", userID))
		} else if ok {
			return name, nil
		}
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, user.ID, user.Username); err != nil {
			s.logger.Debug("display name cache set failed", zap.Error(err), zap.String("user_id", userID))
		}
	}
	return user.Username, nil
}

func (s *DirectoryService) GetByID(ctx context.Context, userID string) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, ErrUserNotFound
	}
	return s.lookup(s.users.GetByID(ctx, userID))
}

func (s *DirectoryService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	username = normalizeUsername(username)
	if username == "" {
		return domain.User{}, ErrUserNotFound
	}
	return s.lookup(s.users.GetByUsername(ctx, username))
}

// Search devuelve hasta 10 usuarios cuyo username empieza con q, sin incluir al solicitante.
func (s *DirectoryService) Search(ctx context.Context, requesterID, q string) ([]domain.User, error) {
	q = normalizeUsername(q)
	if len(q) < minSearchQueryLength {
		return []domain.User{}, nil
	}
	return s.users.SearchByUsernamePrefix(ctx, q, requesterID, searchResultLimit)
}

func (s *DirectoryService) lookup(user domain.User, err error) (domain.User, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

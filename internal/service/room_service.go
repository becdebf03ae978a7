package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/academia-hub/agenda-api/internal/dto"
	"github.com/academia-hub/agenda-api/internal/models"
	appErrors "github.com/academia-hub/agenda-api/pkg/errors"
)

type roomRegistry interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	UpdateStatus(ctx context.Context, id string, status models.RoomStatus) error
}

// RoomService maintains the local mirror of the externally owned room registry.
type RoomService struct {
	repo         roomRegistry
	availability *AvailabilityService
	logger       *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(repo roomRegistry, availability *AvailabilityService, logger *zap.Logger) *RoomService {
	return &RoomService{repo: repo, availability: availability, logger: logger}
}

// List returns all registered rooms.
func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
	}
	return rooms, nil
}

// Get fetches one room.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	return room, nil
}

// Create registers a room synced from the external registry.
func (s *RoomService) Create(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error) {
	status := models.RoomAvailable
	if req.Status != "" {
		if !models.ValidRoomStatus(req.Status) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown room status "+req.Status)
		}
		status = models.RoomStatus(req.Status)
	}
	if req.Capacity <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "room capacity must be positive")
	}

	room := &models.Room{Name: req.Name, Capacity: req.Capacity, Status: status}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create room")
	}

	s.flush(ctx)
	if s.logger != nil {
		s.logger.Info("room registered", zap.String("room_id", room.ID), zap.Int("capacity", room.Capacity))
	}
	return room, nil
}

// UpdateStatus sets a room's registry status.
func (s *RoomService) UpdateStatus(ctx context.Context, id, status string) (*models.Room, error) {
	if !models.ValidRoomStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown room status "+status)
	}

	if err := s.repo.UpdateStatus(ctx, id, models.RoomStatus(status)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update room status")
	}

	s.flush(ctx)
	return s.Get(ctx, id)
}

// flush drops derived read-models that depend on the room census.
func (s *RoomService) flush(ctx context.Context) {
	if s.availability != nil {
		s.availability.FlushRegistry()
		s.availability.Invalidate(ctx)
	}
}

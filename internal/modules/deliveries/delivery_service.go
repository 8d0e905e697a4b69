package deliveries

import (
	"context"
	"fmt"
	"time"

	"fleet-ops/internal/models"

	"github.com/google/uuid"
)

// ServiceInterface defines the contract for the delivery service.
type ServiceInterface interface {
	CreateDelivery(ctx context.Context, req models.CreateDeliveryRequest) (*models.Delivery, error)
	GetDelivery(ctx context.Context, id string) (*models.Delivery, error)
	ListDeliveries(ctx context.Context, filter models.DeliveryFilter, page, limit int) ([]*models.Delivery, int, error)
	UpdateDelivery(ctx context.Context, id string, req models.UpdateDeliveryRequest) (*models.Delivery, error)
	DeleteDelivery(ctx context.Context, id string) error
}

// Service implements the delivery CRUD logic.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new delivery service.
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// CreateDelivery registers a new delivery job in pending state.
func (s *Service) CreateDelivery(ctx context.Context, req models.CreateDeliveryRequest) (*models.Delivery, error) {
	scheduled, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		return nil, fmt.Errorf("service.CreateDelivery: invalid scheduled_date: %w", err)
	}

	d := &models.Delivery{
		ID:              uuid.New().String(),
		DeliveryNumber:  req.DeliveryNumber,
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		Status:          models.DeliveryStatusPending,
		ScheduledDate:   scheduled,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
	}

	created, err := s.repo.Create(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("service.CreateDelivery: %w", err)
	}
	return created, nil
}

// GetDelivery retrieves a single delivery.
func (s *Service) GetDelivery(ctx context.Context, id string) (*models.Delivery, error) {
	return s.repo.FindByID(ctx, id)
}

// ListDeliveries retrieves deliveries matching the filter.
func (s *Service) ListDeliveries(ctx context.Context, filter models.DeliveryFilter, page, limit int) ([]*models.Delivery, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, filter, page, limit)
}

// UpdateDelivery applies a partial update.
func (s *Service) UpdateDelivery(ctx context.Context, id string, req models.UpdateDeliveryRequest) (*models.Delivery, error) {
	d, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateDelivery: %w", err)
	}
	return d, nil
}

// DeleteDelivery removes a delivery.
func (s *Service) DeleteDelivery(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

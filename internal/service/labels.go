package service

import (
	"context"
	"errors"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

// ErrInvalidLabel is returned when a label request has no address
var ErrInvalidLabel = errors.New("label requires a mac address")

// LabelService manages operator labels. It never touches the registry.
type LabelService struct {
	store  repository.LabelStore
	events *EventBus
}

// NewLabelService creates a label service
func NewLabelService(store repository.LabelStore, events *EventBus) *LabelService {
	return &LabelService{store: store, events: events}
}

// List returns every label
func (s *LabelService) List(ctx context.Context) ([]domain.Label, error) {
	return s.store.ListLabels(ctx)
}

// Set creates or replaces a label
func (s *LabelService) Set(ctx context.Context, l domain.Label) (*domain.Label, error) {
	l.MAC = domain.CanonicalMAC(l.MAC)
	if l.MAC == "" {
		return nil, ErrInvalidLabel
	}
	if err := s.store.SetLabel(ctx, l.MAC, l.Label); err != nil {
		return nil, err
	}
	s.events.Publish(Event{Type: EventLabelUpdated, Payload: l})
	return &l, nil
}

// Delete removes a label
func (s *LabelService) Delete(ctx context.Context, mac string) error {
	mac = domain.CanonicalMAC(mac)
	if err := s.store.DeleteLabel(ctx, mac); err != nil {
		return err
	}
	s.events.Publish(Event{Type: EventLabelDeleted, Payload: map[string]string{"mac": mac}})
	return nil
}

package service

import (
	"github.com/opinix/opinix/internal/engine"
	"github.com/opinix/opinix/internal/feed"
	"github.com/opinix/opinix/internal/ledger"
)

// AdminService exposes operational utilities. Reset exists for the
// behavioral test harness, which clears all state between scenarios.
type AdminService struct {
	ledger    *ledger.Ledger
	registry  *engine.Registry
	publisher *feed.Publisher
}

// NewAdminService creates a new AdminService.
func NewAdminService(ledger *ledger.Ledger, registry *engine.Registry, publisher *feed.Publisher) *AdminService {
	return &AdminService{
		ledger:    ledger,
		registry:  registry,
		publisher: publisher,
	}
}

// Reset clears all ledger accounts and markets and restarts event
// numbering. Attached feed subscribers survive a reset.
func (s *AdminService) Reset() {
	s.ledger.Reset()
	s.registry.Reset()
	s.publisher.ResetSequence()
}

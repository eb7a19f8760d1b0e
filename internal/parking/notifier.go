package parking

import (
	"ms-parking/internal/models"
)

// Notifier receives state changes after the service lock is released, in the
// order the changes were applied. Implementations must not block or mutate the
// Service: the realtime hub drops slow clients, the kafka publisher
// and storage journal queue their work.
type Notifier interface {
	ZoneUpdated(update models.ZoneUpdate)
	AdminUpdated(event models.AdminEvent)
	TicketCheckedIn(ticket models.Ticket)
	TicketCheckedOut(ticket models.Ticket, result models.CheckoutResult)
}

// outbox collects notifications inside a critical section so they can be
// delivered once the lock is gone.
type outbox struct {
	zones     []models.ZoneUpdate
	admin     []models.AdminEvent
	checkIns  []models.Ticket
	checkOuts []checkedOut
}

type checkedOut struct {
	ticket models.Ticket
	result models.CheckoutResult
}

// handOffLocked reserves the delivery slot before mu is released. The
// matching deliver call releases it.
func (s *Service) handOffLocked() {
	s.deliverMu.Lock()
}

func (s *Service) deliver(out *outbox) {
	defer s.deliverMu.Unlock()

	s.notifyMu.RLock()
	notifiers := append([]Notifier(nil), s.notifiers...)
	s.notifyMu.RUnlock()

	for _, n := range notifiers {
		for _, t := range out.checkIns {
			n.TicketCheckedIn(t)
		}
		for _, c := range out.checkOuts {
			n.TicketCheckedOut(c.ticket, c.result)
		}
		for _, z := range out.zones {
			n.ZoneUpdated(z)
		}
		for _, a := range out.admin {
			n.AdminUpdated(a)
		}
	}
}

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ms-parking/internal/logger"
	"ms-parking/internal/models"
)

const writeTimeout = 5 * time.Second

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Journal writes ticket and zone changes to the store as they happen. It
// acts as a parking notifier; writes run on one background goroutine and a
// full queue drops the write with a warning. The shutdown snapshot repairs
// anything dropped.
type Journal struct {
	store  *Store
	logger *logger.Logger

	queue chan job
	wg    sync.WaitGroup
}

func NewJournal(store *Store, log *logger.Logger, queueSize int) *Journal {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Journal{store: store, logger: log, queue: make(chan job, queueSize)}
}

// Start runs the writer until ctx is cancelled, then drains what is queued.
func (j *Journal) Start(ctx context.Context) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.logger.LogProcess("journal", "writer started")
		for {
			select {
			case jb := <-j.queue:
				j.run(jb)
			case <-ctx.Done():
				j.drain()
				j.logger.LogProcess("journal", "writer drained and stopped")
				return
			}
		}
	}()
}

func (j *Journal) Wait() {
	j.wg.Wait()
}

func (j *Journal) drain() {
	for {
		select {
		case jb := <-j.queue:
			j.run(jb)
		default:
			return
		}
	}
}

// run gives each write its own deadline so writes still land while the
// service shuts down.
func (j *Journal) run(jb job) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := jb.run(ctx); err != nil {
		j.logger.Error("DATABASE", fmt.Sprintf("Journal %s failed: %v", jb.name, err))
	}
}

func (j *Journal) enqueue(jb job) {
	select {
	case j.queue <- jb:
	default:
		j.logger.Warn("DATABASE", fmt.Sprintf("Journal queue full, dropping %s", jb.name))
	}
}

func (j *Journal) ZoneUpdated(update models.ZoneUpdate) {
	z := update.Zone
	j.enqueue(job{
		name: "zone " + z.ID,
		run: func(ctx context.Context) error {
			return j.store.UpdateZoneCounters(ctx, z.ID, z.Occupied, z.Open)
		},
	})
}

func (j *Journal) AdminUpdated(event models.AdminEvent) {
	j.logger.LogAdmin(event.AdminID, event.Action, fmt.Sprintf("%s %s", event.TargetType, event.TargetID))
}

func (j *Journal) TicketCheckedIn(ticket models.Ticket) {
	j.enqueue(job{
		name: "ticket " + ticket.ID,
		run: func(ctx context.Context) error {
			return j.store.RecordTicket(ctx, ticket)
		},
	})
}

func (j *Journal) TicketCheckedOut(ticket models.Ticket, _ models.CheckoutResult) {
	j.TicketCheckedIn(ticket)
}

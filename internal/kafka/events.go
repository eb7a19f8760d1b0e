package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ms-parking/internal/config"
	"ms-parking/internal/logger"
	"ms-parking/internal/models"
)

const (
	EventZoneUpdated      = "zone.updated"
	EventAdminUpdated     = "admin.updated"
	EventTicketCheckedIn  = "ticket.checked-in"
	EventTicketCheckedOut = "ticket.checked-out"
)

const publishTimeout = 10 * time.Second

type outgoing struct {
	topic string
	event models.ParkingEvent
}

// EventPublisher turns parking notifications into Kafka events. Notifications
// are queued and written by one background goroutine so request handlers
// never wait on the broker; a full queue drops the event with a warning.
type EventPublisher struct {
	publisher Publisher
	topics    config.TopicConfig
	logger    *logger.Logger
	now       func() time.Time

	queue chan outgoing
	wg    sync.WaitGroup
}

func NewEventPublisher(p Publisher, topics config.TopicConfig, log *logger.Logger, queueSize int) *EventPublisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &EventPublisher{
		publisher: p,
		topics:    topics,
		logger:    log,
		now:       time.Now,
		queue:     make(chan outgoing, queueSize),
	}
}

// Start runs the writer until ctx is cancelled, then drains what is queued.
func (e *EventPublisher) Start(ctx context.Context) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case msg := <-e.queue:
				e.write(msg)
			case <-ctx.Done():
				e.drain()
				return
			}
		}
	}()
}

// Wait blocks until the writer goroutine has exited.
func (e *EventPublisher) Wait() {
	e.wg.Wait()
}

func (e *EventPublisher) drain() {
	for {
		select {
		case msg := <-e.queue:
			e.write(msg)
		default:
			return
		}
	}
}

// write gives each publish its own deadline so queued events still go out
// while the service shuts down.
func (e *EventPublisher) write(msg outgoing) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	value, err := json.Marshal(msg.event)
	if err != nil {
		e.logger.Error("KAFKA", fmt.Sprintf("Failed to encode %s event: %v", msg.event.Type, err))
		return
	}
	if err := e.publisher.Publish(ctx, msg.topic, msg.event.Key, value); err != nil {
		e.logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s to %s: %v", msg.event.Key, msg.topic, err))
		return
	}
	e.logger.LogKafka("PUBLISH", msg.topic, msg.event.Key)
}

func (e *EventPublisher) enqueue(topic, kind, key string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("KAFKA", fmt.Sprintf("Failed to encode %s payload: %v", kind, err))
		return
	}
	msg := outgoing{
		topic: topic,
		event: models.ParkingEvent{Type: kind, Key: key, OccurredAt: e.now().UTC(), Payload: raw},
	}
	select {
	case e.queue <- msg:
	default:
		e.logger.Warn("KAFKA", fmt.Sprintf("Event queue full, dropping %s %s", kind, key))
	}
}

func (e *EventPublisher) ZoneUpdated(update models.ZoneUpdate) {
	e.enqueue(e.topics.ZoneUpdated, EventZoneUpdated, update.Zone.ID, update.Zone)
}

func (e *EventPublisher) AdminUpdated(event models.AdminEvent) {
	e.enqueue(e.topics.AdminUpdated, EventAdminUpdated, event.TargetID, event)
}

func (e *EventPublisher) TicketCheckedIn(ticket models.Ticket) {
	e.enqueue(e.topics.TicketCheckedIn, EventTicketCheckedIn, ticket.ID, ticket)
}

func (e *EventPublisher) TicketCheckedOut(ticket models.Ticket, result models.CheckoutResult) {
	e.enqueue(e.topics.TicketCheckedOut, EventTicketCheckedOut, ticket.ID, result)
}

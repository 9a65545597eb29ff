package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cyrilbhau/visitor-kiosk/internal/model"
	"github.com/cyrilbhau/visitor-kiosk/internal/repository"
)

// StartCRMConsumer connects to RabbitMQ, declares the visit.recorded queue
// (durable), and starts consuming events.  Each event is appended to
// logs/crm.log in a single-line, human-friendly format and recorded as a
// crm_sync_events row.  No real CRM provider is wired yet, so every row is
// recorded with status SKIPPED under the configured provider tag, mirroring
// the delivery audit a live integration would leave behind.  The function
// runs a reconnect loop with backoff and keeps the server operating through
// broker outages; processing errors reject the offending message without
// requeueing it.
func StartCRMConsumer(syncs *repository.CrmSyncRepo, provider string) error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("crm-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, syncs, provider); err != nil {
			log.Printf("crm-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, syncs *repository.CrmSyncRepo, provider string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("crm-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(visitQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(visitQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		if err := handleVisitEvent(d.Body, syncs, provider); err != nil {
			log.Printf("crm-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleVisitEvent(body []byte, syncs *repository.CrmSyncRepo, provider string) error {
	var ev VisitRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// Ensure logs directory exists
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "crm.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Visit recorded | visit_id=%d | name=%q | email=%q | reason=%q | source=%s\n",
		ev.CreatedAt, ev.VisitID, ev.FullName, ev.Email, ev.ReasonLabel, ev.Source)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := syncs.Record(ctx, model.CrmSyncEvent{
		VisitID:  ev.VisitID,
		Provider: provider,
		Status:   "SKIPPED",
	}); err != nil {
		return fmt.Errorf("record sync event: %w", err)
	}
	return nil
}

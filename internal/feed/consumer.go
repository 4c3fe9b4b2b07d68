package feed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
)

// StartAlertConsumer drains the upstream market alert topic into the feed
// store until the context is cancelled. Malformed messages are logged and
// skipped; the consumer never stops over one bad payload.
func StartAlertConsumer(ctx context.Context, reader *kafka.Reader, svc *Service) {
	if reader == nil {
		return
	}

	log.Println("📡 Alert consumer started")

	go func() {
		defer reader.Close()

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					log.Println("📡 Alert consumer stopped")
					return
				}
				log.Printf("❌ Alert consumer read error: %v", err)
				continue
			}

			var alert UpstreamAlert
			if err := json.Unmarshal(msg.Value, &alert); err != nil {
				log.Printf("⚠️ Skipping malformed alert at offset %d: %v", msg.Offset, err)
				continue
			}
			if alert.Title == "" {
				log.Printf("⚠️ Skipping alert without title at offset %d", msg.Offset)
				continue
			}

			if _, err := svc.Ingest(ctx, alert); err != nil {
				log.Printf("❌ Failed to ingest alert %q: %v", alert.Title, err)
			}
		}
	}()
}

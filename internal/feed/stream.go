package feed

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/mwangik8/sugar-board-backend/utils"
)

// feedChannel is the redis pub/sub channel carrying live feed items to
// every connected dashboard.
const feedChannel = "feed:stream"

// RedisBroadcaster publishes stored feed items to the live channel and
// mirrors them onto the board event topic for downstream consumers.
type RedisBroadcaster struct{}

func NewRedisBroadcaster() *RedisBroadcaster {
	return &RedisBroadcaster{}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, item *Item) {
	payload, err := json.Marshal(item)
	if err != nil {
		log.Printf("❌ Failed to marshal feed item %s: %v", item.ID, err)
		return
	}

	if utils.RedisClient != nil {
		if err := utils.RedisClient.Publish(ctx, feedChannel, payload).Err(); err != nil {
			log.Printf("⚠️ Feed broadcast failed for %s: %v", item.ID, err)
		}
	}

	utils.PublishEvent(ctx, item.ID, payload)
}

// Subscribe opens a pub/sub subscription on the live feed channel. The
// caller owns the subscription and must close it.
func Subscribe(ctx context.Context) *redis.PubSub {
	return utils.RedisClient.Subscribe(ctx, feedChannel)
}

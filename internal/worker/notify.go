package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Notification types forwarded to the browser over the websocket relay.
const (
	NotifyTypePDF        = "pdf"
	NotifyTypeEvaluation = "evaluation"
)

// NotifyMessage is the websocket message protocol published on the user's
// redis channel. Field names must stay aligned with the frontend parser.
type NotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	DocumentID    uint   `json:"document_id"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

func publishUserNotify(ctx context.Context, client *redis.Client, userID uint, notify NotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

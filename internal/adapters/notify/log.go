package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

// LogSink writes notifications to the log. Used when no channel is configured.
type LogSink struct{}

func (LogSink) Send(_ context.Context, n domain.Notification) error {
	log.Info().Str("recipient", n.Recipient).Str("message", n.Message).Msg("notification")
	return nil
}

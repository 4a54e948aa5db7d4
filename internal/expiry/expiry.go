// Package expiry closes open posts whose deadline has passed.
package expiry

import (
	"context"
	"time"

	"github.com/campusconnect/campusconnect/internal/invitations"
	"github.com/rs/zerolog/log"
)

// RunDeadlineSweep closes every open post past its deadline, applying the
// same disconnect cascade as a manual closure. Each post closes in its own
// transaction, so a failure on one post does not roll back the others.
// The function is idempotent - safe to run repeatedly.
//
// This is the main entry point called by the cron scheduler.
func RunDeadlineSweep(ctx context.Context, svc *invitations.Service) error {
	log.Info().Msg("Starting deadline sweep")

	startTime := time.Now()

	postsClosed, disconnected, err := svc.CloseExpiredPosts(ctx)
	if err != nil {
		log.Error().Err(err).
			Int("posts_closed", postsClosed).
			Msg("Deadline sweep failed")
		return err
	}

	log.Info().
		Int("posts_closed", postsClosed).
		Int("connections_disconnected", disconnected).
		Dur("duration", time.Since(startTime)).
		Msg("Deadline sweep completed")

	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/postbot/pkg/types"
)

// SimulatedPublisher records the post in the trace instead of calling the
// platform. Receipts carry a synthetic "sim-" id and no URL.
type SimulatedPublisher struct {
	Logger logrus.FieldLogger

	// NewID overrides id generation in tests.
	NewID func() string
}

// Name implements Publisher.
func (s *SimulatedPublisher) Name() string { return "simulate" }

// Publish implements Publisher.
func (s *SimulatedPublisher) Publish(ctx context.Context, text string) (types.Published, error) {
	if err := ctx.Err(); err != nil {
		return types.Published{}, &PublishError{Kind: KindTimeout, Err: err}
	}

	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	id := "sim-" + newID()

	log := s.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{"stage": "publish", "post_id": id}).Infof("simulated post: %s", text)

	return receipt(id, "", true), nil
}

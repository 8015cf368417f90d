// Package archive copies completed turns of logged-in users to Firestore.
// Writes are best effort: a failure is logged and the chat continues, and
// nothing is ever read back into the live session.
package archive

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/aivy-lab/aivy/backend/internal/model/chat"
)

const writeTimeout = 5 * time.Second

// Service wraps the Firestore client.
type Service struct {
	client *firestore.Client
}

// NewService wraps an initialized Firestore client.
func NewService(client *firestore.Client) *Service {
	return &Service{client: client}
}

// ArchiveTurn stores one completed exchange under the account's transcript
// collection. Errors are logged, never returned; durability is not promised
// anywhere in the product.
func (s *Service) ArchiveTurn(ctx context.Context, uid, subject string, turn chat.Turn) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, _, err := s.client.Collection("transcripts").Add(ctx, map[string]any{
		"uid":       uid,
		"subject":   subject,
		"user":      turn.UserText,
		"assistant": turn.AssistantText,
		"createdAt": firestore.ServerTimestamp,
	})
	if err != nil {
		log.Printf("[archive] failed to store turn for uid=%s subject=%s: %v", uid, subject, err)
	}
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}

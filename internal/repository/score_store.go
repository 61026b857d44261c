package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taucat/reaper/internal/model"
)

// ScoreStore is the durable side of the game: cumulative reaped seconds
// per (player, server) and the per-server game counter. Implementations
// must make AddScore and NextGameNumber atomic single-statement updates
// so concurrent calls never lose an increment.
type ScoreStore interface {
	NextGameNumber(ctx context.Context, serverID string) (int, error)
	AddScore(ctx context.Context, serverID, playerID string, delta int) (int, error)
	ScoreOf(ctx context.Context, serverID, playerID string) (*model.Score, error)
	TopScores(ctx context.Context, serverID string, limit int) ([]model.Score, error)
	ClearServer(ctx context.Context, serverID string) error
}

type scoreStore struct {
	scores   *mongo.Collection
	counters *mongo.Collection
}

// NewScoreStore creates a MongoDB-backed score store.
func NewScoreStore(db *mongo.Database) ScoreStore {
	return &scoreStore{
		scores:   db.Collection("scores"),
		counters: db.Collection("game_counters"),
	}
}

// NextGameNumber atomically increments the server's game counter and
// returns the new value. A server that has never played gets 1.
func (s *scoreStore) NextGameNumber(ctx context.Context, serverID string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter model.GameCounter
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": serverID},
		bson.M{"$inc": bson.M{"count": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance game counter: %w", err)
	}

	return counter.Count, nil
}

// AddScore upserts the player's score with a single conditional $inc
// and returns the post-update total.
func (s *scoreStore) AddScore(ctx context.Context, serverID, playerID string, delta int) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var score model.Score
	err := s.scores.FindOneAndUpdate(ctx,
		bson.M{"serverId": serverID, "playerId": playerID},
		bson.M{"$inc": bson.M{"seconds": delta}},
		opts,
	).Decode(&score)
	if err != nil {
		return 0, fmt.Errorf("failed to update score: %w", err)
	}

	return score.Seconds, nil
}

func (s *scoreStore) ScoreOf(ctx context.Context, serverID, playerID string) (*model.Score, error) {
	var score model.Score
	err := s.scores.FindOne(ctx, bson.M{"serverId": serverID, "playerId": playerID}).Decode(&score)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get score: %w", err)
	}

	return &score, nil
}

// TopScores returns up to limit scores for the server, highest first.
// Ties break by playerId ascending so the ordering is deterministic.
func (s *scoreStore) TopScores(ctx context.Context, serverID string, limit int) ([]model.Score, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "seconds", Value: -1}, {Key: "playerId", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.scores.Find(ctx, bson.M{"serverId": serverID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list top scores: %w", err)
	}
	defer cursor.Close(ctx)

	var scores []model.Score
	if err := cursor.All(ctx, &scores); err != nil {
		return nil, fmt.Errorf("failed to decode top scores: %w", err)
	}

	return scores, nil
}

// ClearServer deletes every score record for the server. The game
// counter is intentionally left alone.
func (s *scoreStore) ClearServer(ctx context.Context, serverID string) error {
	if _, err := s.scores.DeleteMany(ctx, bson.M{"serverId": serverID}); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}
	return nil
}

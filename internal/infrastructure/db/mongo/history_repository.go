package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/semanticpilot/backend/internal/core/domain"
)

const collectionHistory = "report_history"

// HistoryRepository implements ports.HistoryRepository on the report_history
// collection.
type HistoryRepository struct {
	col *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	return &HistoryRepository{col: db.Collection(collectionHistory)}
}

type historyDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Kind      string             `bson:"kind,omitempty"`
	Payload   bson.M             `bson:"payload,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *HistoryRepository) Insert(ctx context.Context, rec *domain.HistoryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	doc := historyDoc{
		UserID:    rec.UserID,
		Kind:      rec.Kind,
		Payload:   bson.M(rec.Payload),
		CreatedAt: createdAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	rec.CreatedAt = createdAt
	return nil
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.HistoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.HistoryRecord
	for cur.Next(ctx) {
		var doc historyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		out = append(out, &domain.HistoryRecord{
			ID:        doc.ID.Hex(),
			UserID:    doc.UserID,
			Kind:      doc.Kind,
			Payload:   map[string]any(doc.Payload),
			CreatedAt: doc.CreatedAt,
		})
	}
	return out, cur.Err()
}

// ListOverCap returns the ids of records beyond the newest cap for the user:
// sort newest-first, skip cap, project ids only.
func (r *HistoryRepository) ListOverCap(ctx context.Context, userID string, cap int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(cap).
		SetProjection(bson.M{"_id": 1})

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list over cap: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode id: %w", err)
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cur.Err()
}

func (r *HistoryRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		if res != nil {
			return res.DeletedCount, fmt.Errorf("delete history records: %w", err)
		}
		return 0, fmt.Errorf("delete history records: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *HistoryRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	raw, err := r.col.Distinct(ctx, "user_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// EnsureIndexes creates the indexes cleanup and listing rely on.
func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

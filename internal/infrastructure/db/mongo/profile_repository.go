package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/semanticpilot/backend/internal/core/domain"
	"github.com/semanticpilot/backend/internal/core/ports"
)

const collectionUsers = "users"

// ProfileRepository implements ports.ProfileRepository on the users collection.
// The document _id is the identity provider's user id.
type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{col: db.Collection(collectionUsers)}
}

type profileDoc struct {
	UserID               string    `bson:"_id"`
	Email                string    `bson:"email,omitempty"`
	Role                 string    `bson:"role,omitempty"`
	Plan                 string    `bson:"plan"`
	Credits              int64     `bson:"credits"`
	Banned               bool      `bson:"banned,omitempty"`
	StripeCheckoutID     string    `bson:"stripe_checkout_id,omitempty"`
	StripeCustomerID     string    `bson:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string    `bson:"stripe_subscription_id,omitempty"`
	CreatedAt            time.Time `bson:"created_at"`
	LastLoginAt          time.Time `bson:"last_login_at"`
	LastActivityAt       time.Time `bson:"last_activity_at,omitempty"`
}

// toDomain decodes the stored document. Role decoding happens here, at the
// store boundary: an absent or unrecognised role string becomes RoleUser.
func (d *profileDoc) toDomain() *domain.Profile {
	return &domain.Profile{
		UserID:               d.UserID,
		Email:                d.Email,
		Role:                 domain.ParseRole(d.Role),
		Plan:                 domain.Plan(d.Plan),
		Credits:              d.Credits,
		Banned:               d.Banned,
		StripeCheckoutID:     d.StripeCheckoutID,
		StripeCustomerID:     d.StripeCustomerID,
		StripeSubscriptionID: d.StripeSubscriptionID,
		CreatedAt:            d.CreatedAt,
		LastLoginAt:          d.LastLoginAt,
		LastActivityAt:       d.LastActivityAt,
	}
}

func (r *ProfileRepository) FindByID(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc profileDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return doc.toDomain(), nil
}

// Ensure loads or lazily creates the profile in one upsert, so concurrent
// first contacts race safely to a single document. Email and last login are
// refreshed on every call.
func (r *ProfileRepository) Ensure(ctx context.Context, id domain.Identity, defaults ports.ProfileDefaults) (*domain.Profile, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// BSON datetimes hold millisecond precision; truncate so the timestamp
	// written here compares equal to the one decoded from the write below.
	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"email":         id.Email,
			"last_login_at": now,
		},
		"$setOnInsert": bson.M{
			"role":       string(defaults.Role),
			"plan":       string(defaults.Plan),
			"credits":    defaults.Credits,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc profileDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id.UserID}, update, opts).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("ensure profile: %w", err)
	}

	created := doc.CreatedAt.Equal(now)
	return doc.toDomain(), created, nil
}

// ApplyCheckoutUpgrade is the compare-and-swap at the heart of webhook
// idempotence: the write is conditioned on the stored checkout reference
// differing from the event's, so concurrent duplicate deliveries grant
// credits exactly once.
func (r *ProfileRepository) ApplyCheckoutUpgrade(ctx context.Context, userID string, up ports.CheckoutUpgrade) (*domain.Profile, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":                userID,
		"stripe_checkout_id": bson.M{"$ne": up.CheckoutID},
	}
	update := bson.M{
		"$set": bson.M{
			"plan":                   string(domain.PlanPro),
			"stripe_checkout_id":     up.CheckoutID,
			"stripe_customer_id":     up.CustomerID,
			"stripe_subscription_id": up.SubscriptionID,
		},
		"$inc": bson.M{"credits": up.BonusCredits},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("%w: checkout upgrade: %v", domain.ErrStorageUnavailable, err)
	}

	// No match: either the profile is missing or this checkout reference was
	// applied before. Read back to tell the two apart.
	current, findErr := r.FindByID(ctx, userID)
	if findErr != nil {
		return nil, false, findErr
	}
	if current.StripeCheckoutID == up.CheckoutID {
		return current, false, nil
	}
	// A concurrent writer changed the reference between our update and read;
	// safe to retry the whole operation.
	return nil, false, fmt.Errorf("%w: checkout upgrade conflict for user %s", domain.ErrStorageUnavailable, userID)
}

func (r *ProfileRepository) AddCredits(ctx context.Context, userID string, delta int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc profileDoc
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$inc": bson.M{"credits": delta}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("add credits: %w", err)
	}
	return doc.Credits, nil
}

func (r *ProfileRepository) SetCredits(ctx context.Context, userID string, credits int64) error {
	return r.setField(ctx, userID, "credits", credits)
}

func (r *ProfileRepository) SetRole(ctx context.Context, userID string, role domain.Role) error {
	return r.setField(ctx, userID, "role", string(role))
}

func (r *ProfileRepository) SetBanned(ctx context.Context, userID string, banned bool) error {
	return r.setField(ctx, userID, "banned", banned)
}

func (r *ProfileRepository) TouchActivity(ctx context.Context, userID string) error {
	return r.setField(ctx, userID, "last_activity_at", time.Now().UTC())
}

func (r *ProfileRepository) setField(ctx context.Context, userID, field string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{field: value}})
	if err != nil {
		return fmt.Errorf("update %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Profile
	for cur.Next(ctx) {
		var doc profileDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

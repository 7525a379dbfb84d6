package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/shop-api/internal/core/domain"
)

const cartsCollection = "carts"

// CartRepository stores one document per user in the carts collection.
// Writes are guarded by a version field so concurrent read-modify-write
// cycles cannot silently overwrite each other.
type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(cartsCollection)}
}

type mongoLineItem struct {
	ProductID string  `bson:"product_id"`
	Name      string  `bson:"name"`
	Price     float64 `bson:"price"`
	ImageURL  string  `bson:"image_url,omitempty"`
	Quantity  int     `bson:"quantity"`
}

type mongoCart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []mongoLineItem    `bson:"items"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func toMongoCart(c *domain.Cart) mongoCart {
	items := make([]mongoLineItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, mongoLineItem(it))
	}
	doc := mongoCart{
		UserID:    c.UserID,
		Items:     items,
		Version:   c.Version,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
	if oid, err := primitive.ObjectIDFromHex(c.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (mc *mongoCart) toDomain() *domain.Cart {
	items := make([]domain.LineItem, 0, len(mc.Items))
	for _, it := range mc.Items {
		items = append(items, domain.LineItem(it))
	}
	return &domain.Cart{
		ID:        mc.ID.Hex(),
		UserID:    mc.UserID,
		Items:     items,
		Version:   mc.Version,
		CreatedAt: mc.CreatedAt,
		UpdatedAt: mc.UpdatedAt,
	}
}

func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mc mongoCart
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("find cart: %w: %w", domain.ErrPersistence, err)
	}
	return mc.toDomain(), nil
}

// Save inserts a new cart (Version 0) or replaces the stored one when its
// version still matches. The unique user_id index turns a racing insert into
// a conflict as well.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoCart(cart)
	doc.Version = cart.Version + 1

	if cart.Version == 0 {
		res, err := r.col.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.ErrCartConflict
			}
			return fmt.Errorf("insert cart: %w: %w", domain.ErrPersistence, err)
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			cart.ID = oid.Hex()
		}
		cart.Version = doc.Version
		return nil
	}

	filter := bson.M{"user_id": cart.UserID, "version": cart.Version}
	res, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return fmt.Errorf("replace cart: %w: %w", domain.ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCartConflict
	}
	cart.Version = doc.Version
	return nil
}

func (r *CartRepository) DeleteByUserID(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("delete cart: %w: %w", domain.ErrPersistence, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}

// EnsureIndexes creates the unique per-user index the conflict detection relies on.
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

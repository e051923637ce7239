package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productsCollection = "products"

type mongoMediaItem struct {
	Type string `bson:"type"`
	URL  string `bson:"url"`
	Path string `bson:"path"`
}

type mongoProduct struct {
	ID          string           `bson:"_id"`
	Name        string           `bson:"name"`
	Description string           `bson:"description"`
	Image       string           `bson:"image"`
	Link        string           `bson:"shopee_link"`
	Category    string           `bson:"category,omitempty"`
	Price       string           `bson:"price,omitempty"`
	Media       []mongoMediaItem `bson:"media"`
	CreatedBy   string           `bson:"created_by,omitempty"`
	UpdatedBy   string           `bson:"updated_by,omitempty"`
	CreatedAt   time.Time        `bson:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at"`
}

func toMongoMedia(media []models.MediaItem) []mongoMediaItem {
	out := make([]mongoMediaItem, 0, len(media))
	for _, m := range media {
		out = append(out, mongoMediaItem{Type: string(m.Type), URL: m.URL, Path: m.Path})
	}
	return out
}

func (mp mongoProduct) toModel() models.Product {
	p := models.Product{
		ID:          models.ID(mp.ID),
		Name:        mp.Name,
		Description: mp.Description,
		Image:       mp.Image,
		Link:        mp.Link,
		Category:    mp.Category,
		CreatedBy:   mp.CreatedBy,
		UpdatedBy:   mp.UpdatedBy,
	}
	if mp.Price != "" {
		if d, err := decimal.NewFromString(mp.Price); err == nil {
			p.Price = &d
		}
	}
	for _, m := range mp.Media {
		p.Media = append(p.Media, models.MediaItem{Type: models.MediaKind(m.Type), URL: m.URL, Path: m.Path})
	}
	if !mp.CreatedAt.IsZero() {
		t := mp.CreatedAt
		p.CreatedAt = &t
	}
	if !mp.UpdatedAt.IsZero() {
		t := mp.UpdatedAt
		p.UpdatedAt = &t
	}
	return p
}

// MongoAdapter is the MongoDB-backed remote product store.
type MongoAdapter struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoAdapter(db *mongo.Database) *MongoAdapter {
	return &MongoAdapter{collection: db.Collection(productsCollection), now: time.Now}
}

func (r *MongoAdapter) FindByID(ctx context.Context, id models.ID) (*models.Product, error) {
	var mp mongoProduct
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&mp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, apperrors.Store("mongo FindOne failed", err)
	}
	p := mp.toModel()
	return &p, nil
}

func (r *MongoAdapter) FindAll(ctx context.Context) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperrors.Store("mongo Find failed", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoProduct
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.Store("mongo cursor decode failed", err)
	}
	products := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toModel())
	}
	return products, nil
}

func (r *MongoAdapter) Create(ctx context.Context, product *models.Product) (models.ID, error) {
	session, err := requireSession(ctx)
	if err != nil {
		return "", err
	}

	now := r.now().UTC()
	product.ID = models.ID(primitive.NewObjectID().Hex())
	product.CreatedBy = session.UserID
	product.CreatedAt = &now
	product.UpdatedAt = &now

	doc := mongoProduct{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Image:       product.Image,
		Link:        product.Link,
		Category:    product.Category,
		Media:       toMongoMedia(product.Media),
		CreatedBy:   product.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if product.Price != nil {
		doc.Price = product.Price.String()
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", apperrors.Store("mongo InsertOne failed", err)
	}
	return product.ID, nil
}

func (r *MongoAdapter) Update(ctx context.Context, id models.ID, patch ProductPatch) error {
	session, err := requireSession(ctx)
	if err != nil {
		return err
	}
	if patch.empty() {
		return nil
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id.String()}, updateDocument(patch, session.UserID, r.now().UTC()))
	if err != nil {
		return apperrors.Store("mongo UpdateOne failed", err)
	}
	if res.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

// updateDocument builds the $set/$unset document for patch. An input
// without a price clears the stored one.
func updateDocument(patch ProductPatch, userID string, at time.Time) bson.M {
	set := bson.M{
		"updated_at": at,
		"updated_by": userID,
	}
	unset := bson.M{}
	if in := patch.Input; in != nil {
		set["name"] = in.Name
		set["description"] = in.Description
		set["image"] = in.Image
		set["shopee_link"] = in.Link
		set["category"] = in.Category
		if in.Price != nil {
			set["price"] = in.Price.String()
		} else {
			unset["price"] = ""
		}
	}
	if patch.Media != nil {
		set["media"] = toMongoMedia(*patch.Media)
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// Delete removes the document. Deleting a missing id is not an error.
func (r *MongoAdapter) Delete(ctx context.Context, id models.ID) error {
	if _, err := requireSession(ctx); err != nil {
		return err
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return apperrors.Store("mongo DeleteOne failed", err)
	}
	return nil
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/dfryer1193/portfolio/shared/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var _ domain.PostRepository = (*MongoPostRepository)(nil)

// DefaultCollection is the collection posts live in unless configured otherwise
const DefaultCollection = "blogs"

// MongoPostRepository implements domain.PostRepository on a MongoDB collection
type MongoPostRepository struct {
	connector  db.Connector
	collection string
}

// NewPostRepository creates a new MongoPostRepository. Every call acquires its database handle
// through connector, so connection lifetime is the connector's decision.
func NewPostRepository(connector db.Connector, collection string) *MongoPostRepository {
	if collection == "" {
		collection = DefaultCollection
	}

	return &MongoPostRepository{
		connector:  connector,
		collection: collection,
	}
}

var newestFirst = bson.D{
	{Key: "uploadDate", Value: -1},
	{Key: "_id", Value: -1},
}

// ListPosts retrieves one page of posts ordered by upload date descending, plus the total
// post count. The find and the count share one session.
func (r *MongoPostRepository) ListPosts(ctx context.Context, page int, pageSize int) ([]*domain.Post, int64, error) {
	if pageSize <= 0 {
		return nil, 0, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	if page < 1 {
		page = 1
	}

	posts := make([]*domain.Post, 0)
	var total int64

	err := db.RunInSession(ctx, r.connector, func(ctx context.Context, database *mongo.Database) error {
		opts := options.Find().
			SetSort(newestFirst).
			SetSkip(int64(page-1) * int64(pageSize)).
			SetLimit(int64(pageSize))

		cursor, err := database.Collection(r.collection).Find(ctx, bson.D{}, opts)
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}

		var docs []postDocument
		if err := cursor.All(ctx, &docs); err != nil {
			return fmt.Errorf("failed to decode post documents: %w", err)
		}

		for i := range docs {
			posts = append(posts, docs[i].toDomain())
		}

		total, err = r.CountPosts(ctx)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// CountPosts returns the number of posts in the collection
func (r *MongoPostRepository) CountPosts(ctx context.Context) (int64, error) {
	var total int64
	err := db.RunInSession(ctx, r.connector, func(ctx context.Context, database *mongo.Database) error {
		n, err := database.Collection(r.collection).CountDocuments(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("failed to count posts: %w", err)
		}
		total = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

// GetPost retrieves a single post by its hex ObjectID.
// Malformed ids are rejected before any connection is made.
func (r *MongoPostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidPostID, id)
	}

	var doc postDocument
	err = db.RunInSession(ctx, r.connector, func(ctx context.Context, database *mongo.Database) error {
		err := database.Collection(r.collection).FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: %s", domain.ErrPostNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc.toDomain(), nil
}

// InsertPost stores a new post and returns it with the id the store generated
func (r *MongoPostRepository) InsertPost(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	if p == nil {
		return nil, fmt.Errorf("post cannot be nil")
	}

	doc := fromDomain(p)
	err := db.RunInSession(ctx, r.connector, func(ctx context.Context, database *mongo.Database) error {
		res, err := database.Collection(r.collection).InsertOne(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}

		oid, ok := res.InsertedID.(primitive.ObjectID)
		if !ok {
			return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
		}
		doc.ID = oid
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc.toDomain(), nil
}

// Ping checks that the store can be reached with the configured credentials
func (r *MongoPostRepository) Ping(ctx context.Context) error {
	return db.RunInSession(ctx, r.connector, func(ctx context.Context, database *mongo.Database) error {
		if err := database.Client().Ping(ctx, readpref.Primary()); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}
		return nil
	})
}

// postDocument is the stored shape of a post
type postDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Tags        []string           `bson:"tags"`
	Content     string             `bson:"content"`
	ImageURL    string             `bson:"imageUrl"`
	UploadDate  time.Time          `bson:"uploadDate"`
}

func fromDomain(p *domain.Post) *postDocument {
	return &postDocument{
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		Content:     p.Content,
		ImageURL:    p.ImageURL,
		// BSON dates carry millisecond precision
		UploadDate: p.UploadDate.UTC().Truncate(time.Millisecond),
	}
}

func (d *postDocument) toDomain() *domain.Post {
	post := &domain.Post{
		Title:       d.Title,
		Description: d.Description,
		Tags:        d.Tags,
		Content:     d.Content,
		ImageURL:    d.ImageURL,
		UploadDate:  d.UploadDate.UTC(),
	}

	if !d.ID.IsZero() {
		post.ID = d.ID.Hex()
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	return post
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportdesk/ticket-service/internal/domain"
	"github.com/supportdesk/ticket-service/internal/observability"
)

const usersCollection = "users"

type mongoUserRepository struct {
	db      *mongo.Database
	metrics *observability.Metrics
}

// NewMongoUserRepository creates a MongoDB-backed user directory.
func NewMongoUserRepository(db *mongo.Database, metrics *observability.Metrics) UserRepository {
	return &mongoUserRepository{db: db, metrics: metrics}
}

type userDocument struct {
	ID                 string            `bson:"_id"`
	Name               domain.PersonName `bson:"name"`
	Email              string            `bson:"email"`
	PasswordHash       string            `bson:"password_hash"`
	Info               domain.UserInfo   `bson:"info"`
	IsAdmin            bool              `bson:"is_admin"`
	IsTicketsModerator bool              `bson:"is_tickets_moderator"`
	CreatedAt          time.Time         `bson:"created_at"`
	UpdatedAt          time.Time         `bson:"updated_at"`
}

func (r *mongoUserRepository) collection() *mongo.Collection {
	return r.db.Collection(usersCollection)
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (err error) {
	defer r.metrics.ObserveStore(storeMongo, "create_user")(&err)

	_, err = r.collection().InsertOne(ctx, toUserDocument(user))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) (err error) {
	defer r.metrics.ObserveStore(storeMongo, "update_user")(&err)

	res, err := r.collection().ReplaceOne(ctx, bson.M{"_id": user.ID}, toUserDocument(user))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (user *domain.User, err error) {
	defer r.metrics.ObserveStore(storeMongo, "get_user")(&err)
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (user *domain.User, err error) {
	defer r.metrics.ObserveStore(storeMongo, "get_user_by_email")(&err)
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) ListNonAdmin(ctx context.Context) (users []domain.User, err error) {
	defer r.metrics.ObserveStore(storeMongo, "list_users")(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{"is_admin": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	var docs []userDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	users = make([]domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toDomain())
	}
	return users, nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	err := r.collection().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return doc.toDomain(), nil
}

func toUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Info:               u.Info,
		IsAdmin:            u.IsAdmin,
		IsTicketsModerator: u.IsTicketsModerator,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                 d.ID,
		Name:               d.Name,
		Email:              d.Email,
		PasswordHash:       d.PasswordHash,
		Info:               d.Info,
		IsAdmin:            d.IsAdmin,
		IsTicketsModerator: d.IsTicketsModerator,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// EnsureMongoIndexes creates the unique indexes the repositories rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(ticketsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("error creating ticket number index: %w", err)
	}
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("error creating user email index: %w", err)
	}
	return nil
}

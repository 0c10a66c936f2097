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

const (
	ticketsCollection  = "tickets"
	countersCollection = "counters"
	ticketNumberKey    = "ticket_number"
)

type mongoTicketRepository struct {
	db      *mongo.Database
	metrics *observability.Metrics
}

// NewMongoTicketRepository creates a MongoDB-backed ticket repository.
func NewMongoTicketRepository(db *mongo.Database, metrics *observability.Metrics) TicketRepository {
	return &mongoTicketRepository{db: db, metrics: metrics}
}

type commentDocument struct {
	ID        string                 `bson:"id"`
	Content   string                 `bson:"content"`
	CreatedBy domain.CreatorSnapshot `bson:"created_by"`
	UpVotes   []string               `bson:"up_votes"`
	DownVotes []string               `bson:"down_votes"`
	CreatedAt time.Time              `bson:"created_at"`
	UpdatedAt time.Time              `bson:"updated_at"`
}

type ticketDocument struct {
	ID               string                 `bson:"_id"`
	Number           int64                  `bson:"number"`
	Title            string                 `bson:"title"`
	ShortDescription string                 `bson:"short_description"`
	Content          string                 `bson:"content"`
	Status           domain.Status          `bson:"status"`
	CreatedBy        domain.CreatorSnapshot `bson:"created_by"`
	Tags             []string               `bson:"tags"`
	History          []domain.HistoryItem   `bson:"history"`
	Comments         []commentDocument      `bson:"comments"`
	Version          int64                  `bson:"version"`
	CreatedAt        time.Time              `bson:"created_at"`
	UpdatedAt        time.Time              `bson:"updated_at"`
}

func (r *mongoTicketRepository) collection() *mongo.Collection {
	return r.db.Collection(ticketsCollection)
}

func (r *mongoTicketRepository) NextNumber(ctx context.Context) (n int64, err error) {
	defer r.metrics.ObserveStore(storeMongo, "next_ticket_number")(&err)

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err = r.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": ticketNumberKey},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("error incrementing ticket counter: %w", err)
	}
	return counter.Seq, nil
}

func (r *mongoTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (err error) {
	defer r.metrics.ObserveStore(storeMongo, "create_ticket")(&err)

	doc := toTicketDocument(ticket)
	doc.Version = 1
	if _, err = r.collection().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting ticket: %w", err)
	}
	ticket.Version = 1
	return nil
}

func (r *mongoTicketRepository) GetByID(ctx context.Context, id string) (ticket *domain.Ticket, err error) {
	defer r.metrics.ObserveStore(storeMongo, "get_ticket")(&err)

	var doc ticketDocument
	err = r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *mongoTicketRepository) List(ctx context.Context) (tickets []domain.Ticket, err error) {
	defer r.metrics.ObserveStore(storeMongo, "list_tickets")(&err)

	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	cursor, err := r.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	var docs []ticketDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding tickets: %w", err)
	}
	tickets = make([]domain.Ticket, 0, len(docs))
	for i := range docs {
		tickets = append(tickets, *docs[i].toDomain())
	}
	return tickets, nil
}

func (r *mongoTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (err error) {
	defer r.metrics.ObserveStore(storeMongo, "update_ticket")(&err)

	doc := toTicketDocument(ticket)
	doc.Version = ticket.Version + 1
	res, err := r.collection().ReplaceOne(ctx, bson.M{"_id": ticket.ID, "version": ticket.Version}, doc)
	if err != nil {
		return fmt.Errorf("error updating ticket: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.collection().CountDocuments(ctx, bson.M{"_id": ticket.ID})
		if err != nil {
			return fmt.Errorf("error checking ticket: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	ticket.Version = doc.Version
	return nil
}

func (r *mongoTicketRepository) Delete(ctx context.Context, id string) (err error) {
	defer r.metrics.ObserveStore(storeMongo, "delete_ticket")(&err)

	res, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting ticket: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func toTicketDocument(t *domain.Ticket) ticketDocument {
	comments := make([]commentDocument, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, commentDocument{
			ID:        c.ID,
			Content:   c.Content,
			CreatedBy: c.CreatedBy,
			UpVotes:   c.Votes.UpVotes.User.Values(),
			DownVotes: c.Votes.DownVotes.User.Values(),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	history := t.History
	if history == nil {
		history = []domain.HistoryItem{}
	}
	return ticketDocument{
		ID:               t.ID,
		Number:           t.Number,
		Title:            t.Title,
		ShortDescription: t.ShortDescription,
		Content:          t.Content,
		Status:           t.Status,
		CreatedBy:        t.CreatedBy,
		Tags:             t.Tags.Values(),
		History:          history,
		Comments:         comments,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (d *ticketDocument) toDomain() *domain.Ticket {
	comments := make([]domain.Comment, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, domain.Comment{
			ID:        c.ID,
			Content:   c.Content,
			CreatedBy: c.CreatedBy,
			Votes: domain.Votes{
				UpVotes:   domain.VoteBucket{User: domain.NewStringSet(c.UpVotes...)},
				DownVotes: domain.VoteBucket{User: domain.NewStringSet(c.DownVotes...)},
			},
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	history := d.History
	if history == nil {
		history = []domain.HistoryItem{}
	}
	return &domain.Ticket{
		ID:               d.ID,
		Number:           d.Number,
		Title:            d.Title,
		ShortDescription: d.ShortDescription,
		Content:          d.Content,
		Status:           d.Status,
		CreatedBy:        d.CreatedBy,
		Tags:             domain.NewStringSet(d.Tags...),
		History:          history,
		Comments:         comments,
		Version:          d.Version,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

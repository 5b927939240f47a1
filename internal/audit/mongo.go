package audit

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/photo-platform/internal/model"
)

// Collection is the MongoDB collection holding audit documents.
const Collection = "audit_logs"

// MongoStore is the MongoDB sink and query side of the audit log.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(Collection)}
}

// EnsureIndexes creates the indexes the admin queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	})
	return err
}

func (s *MongoStore) Insert(ctx context.Context, e *model.AuditLogEntry) error {
	if e.ID.IsZero() {
		e.ID = bson.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, e)
	return err
}

// Query filters the audit list. Category is the event type prefix
// ("auth", "submission", "admin", "security").
type Query struct {
	Category string
	UserID   string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 100
)

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultAuditPageSize
	}
	if q.PageSize > maxAuditPageSize {
		q.PageSize = maxAuditPageSize
	}
	return q
}

func (q Query) filter() bson.D {
	f := bson.D{}
	if q.Category != "" {
		f = append(f, bson.E{Key: "event_type", Value: categoryRegex(q.Category)})
	}
	if q.UserID != "" {
		f = append(f, bson.E{Key: "user_id", Value: q.UserID})
	}
	if q.From != nil || q.To != nil {
		r := bson.D{}
		if q.From != nil {
			r = append(r, bson.E{Key: "$gte", Value: q.From.UTC()})
		}
		if q.To != nil {
			r = append(r, bson.E{Key: "$lte", Value: q.To.UTC()})
		}
		f = append(f, bson.E{Key: "timestamp", Value: r})
	}
	return f
}

func categoryRegex(category string) bson.Regex {
	return bson.Regex{Pattern: "^" + regexp.QuoteMeta(category) + `\.`}
}

// List returns a page of entries, newest first, and the total match count.
func (s *MongoStore) List(ctx context.Context, q Query) ([]model.AuditLogEntry, int64, Query, error) {
	q = q.normalized()
	f := q.filter()
	total, err := s.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, q, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.PageSize)).
		SetLimit(int64(q.PageSize))
	out, err := s.find(ctx, f, opts)
	return out, total, q, err
}

// UserActivity returns the user's most recent entries and their total count.
func (s *MongoStore) UserActivity(ctx context.Context, userID string, limit int) ([]model.AuditLogEntry, int64, error) {
	f := bson.D{{Key: "user_id", Value: userID}}
	total, err := s.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	out, err := s.find(ctx, f, opts)
	return out, total, err
}

// SecuritySummary is the admin security overview.
type SecuritySummary struct {
	RecentEvents            []model.AuditLogEntry `json:"recent_events"`
	FailedLoginAttempts     int64                 `json:"failed_login_attempts"`
	RateLimitViolations     int64                 `json:"rate_limit_violations"`
	InvalidTokenAttempts    int64                 `json:"invalid_token_attempts"`
	SuspiciousActivityCount int64                 `json:"suspicious_activity_count"`
	Since                   time.Time             `json:"since"`
}

// SecurityEvents returns recent security.* events and per-type counts of
// entries newer than since.
func (s *MongoStore) SecurityEvents(ctx context.Context, limit int, since time.Time) (SecuritySummary, error) {
	sum := SecuritySummary{Since: since.UTC()}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	recent, err := s.find(ctx, bson.D{{Key: "event_type", Value: categoryRegex("security")}}, opts)
	if err != nil {
		return sum, err
	}
	sum.RecentEvents = recent

	counts := []struct {
		eventType string
		dst       *int64
	}{
		{model.EventAuthFailedLogin, &sum.FailedLoginAttempts},
		{model.EventSecurityRateLimit, &sum.RateLimitViolations},
		{model.EventSecurityInvalidToken, &sum.InvalidTokenAttempts},
		{model.EventSecuritySuspicious, &sum.SuspiciousActivityCount},
	}
	for _, c := range counts {
		n, err := s.coll.CountDocuments(ctx, sinceFilter(c.eventType, since))
		if err != nil {
			return sum, err
		}
		*c.dst = n
	}
	return sum, nil
}

func sinceFilter(eventType string, since time.Time) bson.D {
	return bson.D{
		{Key: "event_type", Value: eventType},
		{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: since.UTC()}}},
	}
}

func (s *MongoStore) find(ctx context.Context, f bson.D, opts *options.FindOptionsBuilder) ([]model.AuditLogEntry, error) {
	cur, err := s.coll.Find(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	out := []model.AuditLogEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

const collectionUsers = "users"

type userDocument struct {
	ID          int64     `bson:"_id"`
	Firstname   string    `bson:"firstname"`
	Lastname    string    `bson:"lastname"`
	Email       string    `bson:"email"`
	Profession  string    `bson:"profession"`
	DateCreated time.Time `bson:"dateCreated"`
	Country     string    `bson:"country"`
	City        string    `bson:"city"`
}

func toDocument(u *domain.User) userDocument {
	return userDocument{
		ID:          u.ID,
		Firstname:   u.Firstname,
		Lastname:    u.Lastname,
		Email:       u.Email,
		Profession:  u.Profession,
		DateCreated: u.DateCreated.UTC(),
		Country:     u.Country,
		City:        u.City,
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:          d.ID,
		Firstname:   d.Firstname,
		Lastname:    d.Lastname,
		Email:       d.Email,
		Profession:  d.Profession,
		DateCreated: d.DateCreated.UTC(),
		Country:     d.Country,
		City:        d.City,
	}
}

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

// EnsureIndexes creates the secondary indexes used by List.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "profession", Value: 1}}},
		{Keys: bson.D{{Key: "dateCreated", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func listFilter(f ports.ListUsersFilter) bson.M {
	filter := bson.M{}
	dates := bson.M{}
	if !f.StartDate.IsZero() {
		dates["$gte"] = f.StartDate.UTC()
	}
	if !f.EndDate.IsZero() {
		dates["$lte"] = f.EndDate.UTC()
	}
	if len(dates) > 0 {
		filter["dateCreated"] = dates
	}
	if f.Profession != "" {
		filter["profession"] = f.Profession
	}
	return filter
}

func listSort(f ports.ListUsersFilter) bson.D {
	dir := 1
	if f.Descending {
		dir = -1
	}
	key := f.SortBy
	if key == "" || key == domain.FieldID {
		return bson.D{{Key: "_id", Value: dir}}
	}
	return bson.D{{Key: key, Value: dir}, {Key: "_id", Value: 1}}
}

func (r *UserRepository) List(ctx context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(listSort(f)).
		SetSkip(int64(f.Offset)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, total, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d userDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toDocument(u))
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrUserExists
	}
	return err
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": u.ID}, toDocument(u))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// WithinTx drives the transaction by hand instead of using
// Session.WithTransaction, whose retries would re-run fn against an input
// stream that has already been consumed.
func (r *UserRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, w ports.UserWriter) error) error {
	sess, err := r.col.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc, txWriter{col: r.col}); err != nil {
			_ = sess.AbortTransaction(context.WithoutCancel(sc))
			return err
		}
		return sess.CommitTransaction(sc)
	})
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

type txWriter struct {
	col *mongo.Collection
}

// Save must be called with the session context handed to the WithinTx callback.
func (w txWriter) Save(ctx context.Context, u *domain.User) error {
	_, err := w.col.ReplaceOne(ctx, bson.M{"_id": u.ID}, toDocument(u), options.Replace().SetUpsert(true))
	return err
}

// internal/app/store/logincodes/logincodestore.go
package logincodes

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PendingLoginCode is the single live code record for an email address.
//
// The email is the document key: Upsert replaces any prior record wholesale,
// so at most one code is valid per address at any time. ExpiresAt is checked
// only at verification; expired records stay in place until overwritten by a
// new request or reaped by the TTL index.
type PendingLoginCode struct {
	Email             string       `bson:"_id"`
	Code              string       `bson:"code"`
	ExpiresAt         time.Time    `bson:"expires_at"`
	AllowRegistration bool         `bson:"allow_registration"`
	ExtraFields       []ExtraField `bson:"extra_fields,omitempty"`
	CreatedAt         time.Time    `bson:"created_at"`
}

// ExtraField is one (key, value) registration attribute captured with a code
// request. The record keeps them as a slice so they round-trip in the order
// the caller supplied them.
type ExtraField struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

// Store provides access to the login_codes collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new login code store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("login_codes")}
}

// Upsert stores the pending code for an email, replacing any existing record.
// The replace-with-upsert on the _id key is atomic per email, which is the
// serialization point for concurrent code requests: last writer wins and the
// prior code ceases to match.
func (s *Store) Upsert(ctx context.Context, rec PendingLoginCode) (*PendingLoginCode, error) {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": rec.Email}, rec, opts); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByEmail returns the pending code for an email, or mongo.ErrNoDocuments.
func (s *Store) GetByEmail(ctx context.Context, email string) (*PendingLoginCode, error) {
	var rec PendingLoginCode
	if err := s.c.FindOne(ctx, bson.M{"_id": email}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetByEmailAndCode returns the pending record matching both the email and the
// submitted code, or mongo.ErrNoDocuments. The lookup matches the pair so a
// wrong code and a missing record are indistinguishable to the caller.
func (s *Store) GetByEmailAndCode(ctx context.Context, email, code string) (*PendingLoginCode, error) {
	var rec PendingLoginCode
	filter := bson.M{
		"_id":  email,
		"code": code,
	}
	if err := s.c.FindOne(ctx, filter).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the pending code for an email. Used only when single-use
// codes are enabled; the normal flow leaves records to be overwritten or
// reaped by TTL.
func (s *Store) Delete(ctx context.Context, email string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": email})
	return err
}

// DeleteExpiredBefore removes records whose expiry is older than the cutoff.
// The background cleanup job uses this as a belt alongside the TTL index.
func (s *Store) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

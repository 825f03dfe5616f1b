// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Index definitions live here, next to each
other, so the whole schema is visible in one place and startup can fail
fast when any of them cannot be created. Every CreateMany call is
idempotent.

codeTTL sets the TTL window on the login_codes collection; Mongo reaps
records that have been expired longer than that on its own schedule.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, codeTTL time.Duration) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureLoginCodes(ctx, db, codeTTL); err != nil {
		problems = append(problems, "login_codes: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := db.Collection("users").Indexes().CreateMany(ctx, models)
	return err
}

// ensureLoginCodes creates the TTL index on the login_codes collection.
//
// The TTL keeps a generous margin past the code lifetime so that a verify
// attempt on a freshly expired code still finds the record and can report
// "expired" rather than "invalid".
func ensureLoginCodes(ctx context.Context, db *mongo.Database, codeTTL time.Duration) error {
	margin := codeTTL * 2
	if margin < time.Hour {
		margin = time.Hour
	}
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(margin.Seconds())),
		},
	}
	_, err := db.Collection("login_codes").Indexes().CreateMany(ctx, models)
	return err
}

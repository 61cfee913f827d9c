package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ellavondegurechaff/godaily/godaily/database/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrUserNotFound is returned when no record exists for a Discord ID.
var ErrUserNotFound = errors.New("user not found")

// UserCursor streams user records without loading the whole set into memory.
// *mongo.Cursor satisfies it directly; tests substitute slice-backed fakes.
type UserCursor interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

// ClaimUpdate is the post-claim partial update applied to one platform
// sub-document.
type ClaimUpdate struct {
	Timestamp     time.Time
	ResultSummary string
}

type UserRepository interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	UpsertHoyolab(ctx context.Context, discordID, username string, account *models.HoyolabAccount) error
	UpsertEndfield(ctx context.Context, discordID, username string, account *models.EndfieldAccount) error
	SetHoyolabGames(ctx context.Context, discordID string, games map[string]bool) error
	UpdateHoyolabClaim(ctx context.Context, discordID string, update ClaimUpdate) error
	UpdateEndfieldClaim(ctx context.Context, discordID string, update ClaimUpdate) error
	SetNotifyOnClaim(ctx context.Context, discordID string, enabled bool) error
	RemovePlatform(ctx context.Context, discordID string, platform string) error
	FindAccountsWithCredentials(ctx context.Context) (UserCursor, error)
	Counts(ctx context.Context) (UserCounts, error)
}

// UserCounts aggregates registration numbers for /statistic.
type UserCounts struct {
	Total    int64
	Hoyolab  int64
	Endfield int64
}

type userRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(coll *mongo.Collection) UserRepository {
	return &userRepository{coll: coll}
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	user := new(models.User)
	err := r.coll.FindOne(ctx, bson.M{"discord_id": discordID}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		slog.Error("Database error when getting user",
			slog.String("type", "db"),
			slog.String("operation", "GetByDiscordID"),
			slog.String("discord_id", discordID),
			slog.String("error", err.Error()))
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpsertHoyolab(ctx context.Context, discordID, username string, account *models.HoyolabAccount) error {
	return r.upsertPlatform(ctx, discordID, username, "hoyolab", account)
}

func (r *userRepository) UpsertEndfield(ctx context.Context, discordID, username string, account *models.EndfieldAccount) error {
	return r.upsertPlatform(ctx, discordID, username, "endfield", account)
}

func (r *userRepository) upsertPlatform(ctx context.Context, discordID, username, field string, account interface{}) error {
	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{
			"$set": bson.M{
				"username":   username,
				field:        account,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"created_at": now,
				"settings":   models.Settings{NotifyOnClaim: true},
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s account: %w", field, err)
	}
	return nil
}

func (r *userRepository) SetHoyolabGames(ctx context.Context, discordID string, games map[string]bool) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$set": bson.M{"hoyolab.games": games, "updated_at": time.Now()}},
	)
	return err
}

func (r *userRepository) UpdateHoyolabClaim(ctx context.Context, discordID string, update ClaimUpdate) error {
	return r.updateClaim(ctx, discordID, "hoyolab", update)
}

func (r *userRepository) UpdateEndfieldClaim(ctx context.Context, discordID string, update ClaimUpdate) error {
	return r.updateClaim(ctx, discordID, "endfield", update)
}

func (r *userRepository) updateClaim(ctx context.Context, discordID, field string, update ClaimUpdate) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$set": bson.M{
			field + ".last_claim":        update.Timestamp,
			field + ".last_claim_result": update.ResultSummary,
			"updated_at":                 time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update %s claim result: %w", field, err)
	}
	return nil
}

func (r *userRepository) SetNotifyOnClaim(ctx context.Context, discordID string, enabled bool) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$set": bson.M{"settings.notify_on_claim": enabled, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) RemovePlatform(ctx context.Context, discordID string, platform string) error {
	var unset bson.M
	switch platform {
	case "hoyolab", "endfield":
		unset = bson.M{platform: ""}
	case "all":
		unset = bson.M{"hoyolab": "", "endfield": ""}
	default:
		return fmt.Errorf("unknown platform %q", platform)
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$unset": unset, "$set": bson.M{"updated_at": time.Now()}},
	)
	return err
}

// FindAccountsWithCredentials streams every user with at least one configured
// platform credential. Cursor semantics keep the daily run's memory flat no
// matter how many users are registered.
func (r *userRepository) FindAccountsWithCredentials(ctx context.Context) (UserCursor, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"hoyolab.token": bson.M{"$exists": true, "$ne": ""}},
		bson.M{"endfield.account_token": bson.M{"$exists": true, "$ne": ""}},
	}}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open account cursor: %w", err)
	}
	return cursor, nil
}

func (r *userRepository) Counts(ctx context.Context) (UserCounts, error) {
	var counts UserCounts
	var err error

	if counts.Total, err = r.coll.CountDocuments(ctx, bson.M{}); err != nil {
		return counts, err
	}
	if counts.Hoyolab, err = r.coll.CountDocuments(ctx, bson.M{"hoyolab.token": bson.M{"$exists": true, "$ne": ""}}); err != nil {
		return counts, err
	}
	if counts.Endfield, err = r.coll.CountDocuments(ctx, bson.M{"endfield.account_token": bson.M{"$exists": true, "$ne": ""}}); err != nil {
		return counts, err
	}
	return counts, nil
}

package repository

import (
	"context"
	"net/url"
	"strconv"

	"gosembako/internal/models"
	"gosembako/internal/sheetdb"
)

const SheetUsers = "users"

type UserRepository struct {
	store *sheetdb.Client
}

func NewUserRepository(store *sheetdb.Client) *UserRepository {
	return &UserRepository{store: store}
}

// FindByPhone looks up a user by the sheet's phone key (local "08…" form).
func (r *UserRepository) FindByPhone(ctx context.Context, storePhone string) (*models.User, error) {
	return r.findOne(ctx, url.Values{"whatsapp_no": {storePhone}})
}

// FindByReferralCode resolves a referral code to its owner.
func (r *UserRepository) FindByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.findOne(ctx, url.Values{"referral_code": {code}})
}

// FindByID looks up a user by user_id.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	return r.findOne(ctx, url.Values{"user_id": {userID}})
}

func (r *UserRepository) findOne(ctx context.Context, filters url.Values) (*models.User, error) {
	rows, err := r.store.Search(ctx, SheetUsers, filters)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return userFromRow(rows[0]), nil
}

func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	return r.store.Insert(ctx, SheetUsers, userToRow(u))
}

// SetPoints overwrites the user's point balance. The users sheet is the
// single authoritative points location; any balance column elsewhere is
// derived and never written here.
func (r *UserRepository) SetPoints(ctx context.Context, userID string, points int64) error {
	return r.store.Update(ctx, SheetUsers, "user_id", userID,
		sheetdb.Row{"total_points": strconv.FormatInt(points, 10)})
}

func (r *UserRepository) SetPINHash(ctx context.Context, userID, pinHash string) error {
	return r.store.Update(ctx, SheetUsers, "user_id", userID, sheetdb.Row{"pin_hash": pinHash})
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID, at string) error {
	return r.store.Update(ctx, SheetUsers, "user_id", userID, sheetdb.Row{"last_login": at})
}

func userFromRow(row sheetdb.Row) *models.User {
	return &models.User{
		UserID:       row.String("user_id"),
		Name:         row.String("name"),
		Phone:        row.String("whatsapp_no"),
		PINHash:      row.String("pin_hash"),
		ReferralCode: row.String("referral_code"),
		ReferrerCode: row.String("referrer_code"),
		TotalPoints:  row.Int64("total_points"),
		CreatedAt:    row.String("created_at"),
		LastLogin:    row.String("last_login"),
	}
}

func userToRow(u *models.User) sheetdb.Row {
	return sheetdb.Row{
		"user_id":       u.UserID,
		"name":          u.Name,
		"whatsapp_no":   u.Phone,
		"pin_hash":      u.PINHash,
		"referral_code": u.ReferralCode,
		"referrer_code": u.ReferrerCode,
		"total_points":  strconv.FormatInt(u.TotalPoints, 10),
		"created_at":    u.CreatedAt,
		"last_login":    u.LastLogin,
	}
}

package repository

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"gosembako/internal/logging"
	"gosembako/internal/models"
	"gosembako/internal/sheetdb"
)

const SheetReferrals = "referrals"

type ReferralRepository struct {
	store *sheetdb.Client
	log   logging.Logger
}

func NewReferralRepository(store *sheetdb.Client, log logging.Logger) *ReferralRepository {
	return &ReferralRepository{store: store, log: log}
}

func (r *ReferralRepository) Insert(ctx context.Context, rec *models.ReferralRecord) error {
	return r.store.Insert(ctx, SheetReferrals, referralToRow(rec))
}

// FindByPair returns the record for (referrerCode, referredUserID) regardless
// of status, so the caller can distinguish "already completed" from "pending".
func (r *ReferralRepository) FindByPair(ctx context.Context, referrerCode, referredUserID string) (*models.ReferralRecord, error) {
	rows, err := r.store.Search(ctx, SheetReferrals, url.Values{
		"referrer_code":    {referrerCode},
		"referred_user_id": {referredUserID},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	// If both a pending and a completed copy exist (possible after an
	// interrupted delete-then-insert fallback), the completed one wins.
	rec := referralFromRow(rows[0])
	for _, row := range rows[1:] {
		if row.String("status") == models.ReferralCompleted {
			rec = referralFromRow(row)
		}
	}
	return rec, nil
}

func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerCode string) ([]models.ReferralRecord, error) {
	rows, err := r.store.Read(ctx, SheetReferrals, url.Values{"referrer_code": {referrerCode}})
	if err != nil {
		return nil, err
	}
	out := make([]models.ReferralRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, *referralFromRow(row))
	}
	return out, nil
}

func (r *ReferralRepository) ListPending(ctx context.Context) ([]models.ReferralRecord, error) {
	rows, err := r.store.Read(ctx, SheetReferrals, url.Values{"status": {models.ReferralPending}})
	if err != nil {
		return nil, err
	}
	out := make([]models.ReferralRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, *referralFromRow(row))
	}
	return out, nil
}

// MarkCompleted transitions the record pending → completed. The store's PATCH
// is known to fail for some keys; when it does, fall back to deleting the
// pending row and inserting a completed copy. The record briefly not existing
// during the fallback is covered by the caller's in-process guard.
func (r *ReferralRepository) MarkCompleted(ctx context.Context, rec *models.ReferralRecord, completedAt string) error {
	patch := sheetdb.Row{
		"status":       models.ReferralCompleted,
		"completed_at": completedAt,
	}
	err := r.store.Update(ctx, SheetReferrals, "referral_id", rec.ReferralID, patch)
	if err == nil {
		rec.Status = models.ReferralCompleted
		rec.CompletedAt = completedAt
		return nil
	}
	if errors.Is(err, sheetdb.ErrStoreUnavailable) {
		return err
	}
	r.log.Warn(ctx, "referral patch rejected, falling back to delete+insert",
		"referral_id", rec.ReferralID, "err", err)

	if err := r.store.Delete(ctx, SheetReferrals, "referral_id", rec.ReferralID); err != nil {
		return err
	}
	completed := *rec
	completed.Status = models.ReferralCompleted
	completed.CompletedAt = completedAt
	if err := r.store.Insert(ctx, SheetReferrals, referralToRow(&completed)); err != nil {
		return err
	}
	*rec = completed
	return nil
}

func referralFromRow(row sheetdb.Row) *models.ReferralRecord {
	return &models.ReferralRecord{
		ReferralID:     row.String("referral_id"),
		ReferrerCode:   row.String("referrer_code"),
		ReferredUserID: row.String("referred_user_id"),
		ReferredName:   row.String("referred_name"),
		Status:         row.String("status"),
		RewardPoints:   row.Int64("reward_points"),
		CreatedAt:      row.String("created_at"),
		CompletedAt:    row.String("completed_at"),
	}
}

func referralToRow(rec *models.ReferralRecord) sheetdb.Row {
	return sheetdb.Row{
		"referral_id":      rec.ReferralID,
		"referrer_code":    rec.ReferrerCode,
		"referred_user_id": rec.ReferredUserID,
		"referred_name":    rec.ReferredName,
		"status":           rec.Status,
		"reward_points":    strconv.FormatInt(rec.RewardPoints, 10),
		"created_at":       rec.CreatedAt,
		"completed_at":     rec.CompletedAt,
	}
}

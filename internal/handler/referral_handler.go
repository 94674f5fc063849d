package handler

import (
	"errors"
	"fmt"
	"net/http"

	"gosembako/config"
	"gosembako/internal/attribution"
	"gosembako/internal/gas"
	"gosembako/internal/logging"
	"gosembako/internal/middleware"
	"gosembako/internal/models"
	"gosembako/internal/repository"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	users     *repository.UserRepository
	referrals *repository.ReferralRepository
	gas       *gas.Client
	tracker   *attribution.Tracker
	cfg       *config.ReferralConfig
	log       logging.Logger
}

func NewReferralHandler(
	users *repository.UserRepository,
	referrals *repository.ReferralRepository,
	gasClient *gas.Client,
	tracker *attribution.Tracker,
	cfg *config.ReferralConfig,
	log logging.Logger,
) *ReferralHandler {
	return &ReferralHandler{users: users, referrals: referrals, gas: gasClient, tracker: tracker, cfg: cfg, log: log}
}

// Capture records the referral code from a share link and forwards the visitor
// to the storefront.
// GET /r/:code
func (h *ReferralHandler) Capture(c *gin.Context) {
	code := c.Param("code")
	h.tracker.CaptureCode(code, c.Request.URL.String())
	c.Redirect(http.StatusFound, h.cfg.ShareBaseURL+"?ref="+code)
}

// GetMyReferral returns the authenticated user's referral code, share link and
// the referrals recorded against it.
// GET /me/referral
func (h *ReferralHandler) GetMyReferral(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	records, err := h.referrals.ListByReferrer(c.Request.Context(), user.ReferralCode)
	if err != nil {
		h.log.Error(c.Request.Context(), "list referrals failed", "user_id", user.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list referrals"})
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		out = append(out, gin.H{
			"referred_name": rec.ReferredName,
			"status":        rec.Status,
			"reward_points": rec.RewardPoints,
			"created_at":    rec.CreatedAt,
			"completed_at":  rec.CompletedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"referral_code": user.ReferralCode,
		"share_link":    fmt.Sprintf("%s/r/%s", h.cfg.ShareBaseURL, user.ReferralCode),
		"total_points":  user.TotalPoints,
		"referrals":     out,
	})
}

// GetMyReferralStats returns aggregate counters. The RPC backend is preferred
// when configured; otherwise the counters are derived from the referrals sheet.
// GET /me/referral/stats
func (h *ReferralHandler) GetMyReferralStats(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if h.gas.Enabled() {
		stats, err := h.gas.ReferralStats(ctx, user.ReferralCode)
		if err == nil {
			c.JSON(http.StatusOK, stats)
			return
		}
		h.log.Warn(ctx, "stats rpc failed, falling back to sheet", "err", err)
	}

	records, err := h.referrals.ListByReferrer(ctx, user.ReferralCode)
	if err != nil {
		h.log.Error(ctx, "stats fallback failed", "user_id", user.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute stats"})
		return
	}
	stats := gas.Stats{TotalPoints: user.TotalPoints}
	for _, rec := range records {
		stats.TotalReferred++
		if rec.Status == models.ReferralCompleted {
			stats.TotalCompleted++
		} else {
			stats.TotalPending++
		}
	}
	c.JSON(http.StatusOK, stats)
}

// GetMyPointsHistory returns the points ledger from the RPC backend.
// GET /me/referral/history
func (h *ReferralHandler) GetMyPointsHistory(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	history, err := h.gas.UserPointsHistory(c.Request.Context(), user.ReferralCode)
	if err != nil {
		if errors.Is(err, gas.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "points history backend not configured"})
			return
		}
		h.log.Error(c.Request.Context(), "points history failed", "user_id", user.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch points history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *ReferralHandler) currentUser(c *gin.Context) (*models.User, bool) {
	userID := middleware.GetUserID(c)
	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return nil, false
		}
		h.log.Error(c.Request.Context(), "user lookup failed", "user_id", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return nil, false
	}
	return user, true
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
	"github.com/dmitrijs2005/sparkdrive/internal/logging"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metadata"
	"github.com/dmitrijs2005/sparkdrive/internal/server/metrics"
	"github.com/dmitrijs2005/sparkdrive/internal/server/models"
	"github.com/dmitrijs2005/sparkdrive/internal/server/notify"
	"github.com/dmitrijs2005/sparkdrive/internal/server/objectstore"
	"github.com/google/uuid"
)

const (
	tokenBytes       = 8
	tokenMintTries   = 3
	ShareRoutePrefix = "/api/v1/shares/"
)

type ShareConfig struct {
	UITokenTTL     time.Duration
	EmailTokenTTL  time.Duration
	DownloadURLTTL time.Duration
	// PublicBaseURL prefixes redemption links sent by email.
	PublicBaseURL string
}

type IssuedShare struct {
	Token       string    `json:"token"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ShareService struct {
	meta     metadata.Store
	blobs    objectstore.Store
	notifier notify.Notifier
	cfg      ShareConfig
	log      logging.Logger
	metrics  *metrics.Metrics

	now      func() time.Time
	newToken func() (string, error)
	newID    func() string
}

func NewShareService(meta metadata.Store, blobs objectstore.Store, n notify.Notifier, cfg ShareConfig, log logging.Logger, m *metrics.Metrics) *ShareService {
	return &ShareService{
		meta:     meta,
		blobs:    blobs,
		notifier: n,
		cfg:      cfg,
		log:      log.With("module", "share"),
		metrics:  m,
		now:      time.Now,
		newToken: func() (string, error) { return common.MakeRandHexString(tokenBytes) },
		newID:    uuid.NewString,
	}
}

// Link is the public redemption URL of token.
func (s *ShareService) Link(token string) string {
	return s.cfg.PublicBaseURL + ShareRoutePrefix + token
}

// Issue mints a token for a file the user owns. With an email the token
// lives EmailTokenTTL and the link is mailed; a mail failure is logged
// and the token stays valid.
func (s *ShareService) Issue(ctx context.Context, userID, fileID, email string) (*IssuedShare, error) {
	if userID == "" || fileID == "" {
		return nil, common.NewError(common.KindInvalidArgument, "missing user id or file id")
	}
	f, ok, err := s.meta.GetFile(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.KindUnauthorized, "file %s is not accessible", fileID)
	}

	ttl, channel := s.cfg.UITokenTTL, "ui"
	if email != "" {
		ttl, channel = s.cfg.EmailTokenTTL, "email"
	}

	now := s.now().UTC()
	share := &models.ShareToken{
		ID:        s.newID(),
		UserID:    userID,
		FileID:    f.ID,
		Email:     email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.persist(ctx, share); err != nil {
		return nil, err
	}
	s.metrics.ShareIssued(channel)

	link := s.Link(share.Token)
	if email != "" {
		if err := s.notifier.SendShareLink(ctx, email, link, ttl); err != nil {
			s.log.Error(ctx, "share email failed", "file_id", f.ID, "email", email, "error", err)
		}
	}
	s.log.Info(ctx, "share issued", "user_id", userID, "file_id", f.ID, "channel", channel, "expires_at", share.ExpiresAt)

	return &IssuedShare{Token: share.Token, DownloadURL: link, ExpiresAt: share.ExpiresAt}, nil
}

// persist stores share under a fresh token, retrying on the rare collision.
func (s *ShareService) persist(ctx context.Context, share *models.ShareToken) error {
	var err error
	for range tokenMintTries {
		share.Token, err = s.newToken()
		if err != nil {
			return common.WrapError(common.KindInternal, err, "token generation failed")
		}
		err = s.meta.CreateShare(ctx, share)
		if !errors.Is(err, common.ErrorConflict) {
			return err
		}
	}
	return err
}

// Redeem exchanges a live token for a short-lived download URL.
func (s *ShareService) Redeem(ctx context.Context, token string) (string, error) {
	url, err := s.redeem(ctx, token)
	if err != nil {
		s.metrics.ShareRedeemed(string(common.KindOf(err)))
		return "", err
	}
	s.metrics.ShareRedeemed("ok")
	return url, nil
}

func (s *ShareService) redeem(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.NewError(common.KindInvalidToken, "empty token")
	}
	share, ok, err := s.meta.FindShare(ctx, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.NewError(common.KindInvalidToken, "unknown token")
	}
	if share.ExpiredAt(s.now()) {
		return "", common.NewError(common.KindTokenExpired, "token expired at %s", share.ExpiresAt.UTC().Format(time.RFC3339))
	}

	f, ok, err := s.meta.GetFile(ctx, share.UserID, share.FileID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.NewError(common.KindNotFound, "shared file %s no longer exists", share.FileID)
	}
	return s.blobs.PresignGet(ctx, f.StorageKey, s.cfg.DownloadURLTTL)
}

// Download is the direct UI flow: mint a UI token and redeem it at once.
func (s *ShareService) Download(ctx context.Context, userID, fileID string) (string, error) {
	issued, err := s.Issue(ctx, userID, fileID, "")
	if err != nil {
		return "", err
	}
	return s.Redeem(ctx, issued.Token)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/idtoken"

	"github.com/Nick-ui911/Nova-AI/pkg/config"
)

// ErrGoogleTokenInvalid is returned when a posted ID token fails
// verification or does not carry a usable email claim. Handlers map it
// to a 400 without leaking the underlying verification detail.
var ErrGoogleTokenInvalid = errors.New("invalid google token")

// GoogleIdentity is the subset of a verified Google ID token the
// application uses to find or create an account.
type GoogleIdentity struct {
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier verifies Google ID tokens posted by the frontend after
// the browser-side Google sign-in flow. Implemented by *GoogleService
// and mocked in handler tests.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (*GoogleIdentity, error)
}

// GoogleService verifies ID tokens against the configured OAuth client
// ID using Google's public keys.
//
// The underlying validator fetches Google's certificates on first use,
// so it is constructed lazily exactly once and shared by all requests.
type GoogleService struct {
	audience string

	once      sync.Once
	validator *idtoken.Validator
	initErr   error
}

// NewGoogleService creates a Google ID token verifier. The audience is
// the OAuth client ID the frontend obtained the token for; tokens minted
// for any other client are rejected.
//
// Example:
//
//	googleSvc := services.NewGoogleService(&cfg.Google)
func NewGoogleService(cfg *config.GoogleConfig) *GoogleService {
	return &GoogleService{
		audience: cfg.ClientID,
	}
}

// VerifyIDToken verifies a Google ID token and extracts the identity
// claims. The signature, expiry, issuer, and audience are all checked by
// the validator; a token without an email claim is rejected because the
// email is the account join key.
//
// Example:
//
//	identity, err := googleSvc.VerifyIDToken(ctx, req.Token)
//	if errors.Is(err, services.ErrGoogleTokenInvalid) {
//	    utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid token")
//	    return
//	}
func (s *GoogleService) VerifyIDToken(ctx context.Context, token string) (*GoogleIdentity, error) {
	validator, err := s.getValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize google token validator: %w", err)
	}

	payload, err := validator.Validate(ctx, token, s.audience)
	if err != nil {
		log.Debug().Err(err).Msg("Google ID token failed verification")
		return nil, fmt.Errorf("%w: %v", ErrGoogleTokenInvalid, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrGoogleTokenInvalid)
	}

	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &GoogleIdentity{
		Email:   email,
		Name:    name,
		Picture: picture,
	}, nil
}

// getValidator constructs the shared validator on first use. A failed
// construction is sticky for the process; restarting is the recovery
// path since it only fails on misconfiguration or no network.
func (s *GoogleService) getValidator(ctx context.Context) (*idtoken.Validator, error) {
	s.once.Do(func() {
		s.validator, s.initErr = idtoken.NewValidator(ctx)
		if s.initErr == nil {
			log.Info().Msg("Google ID token validator initialized")
		}
	})
	return s.validator, s.initErr
}

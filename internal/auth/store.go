package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/outlook-bridge/internal/config"
	"github.com/custodia-labs/outlook-bridge/internal/graph"
)

// testModeToken is handed out instead of real credentials when test mode
// is enabled, so the tool surface can be exercised without an Azure app.
const testModeToken = "test-mode-token"

// Store owns the account registry and is the single source of truth for
// "the current valid bearer token". It hides refresh and exchange
// mechanics from callers.
//
// The store is safe for concurrent use. Refreshes and the initial load are
// coalesced: callers that arrive while an operation is in flight await its
// result instead of issuing duplicates. This matters because the identity
// provider may rotate refresh tokens, and duplicate concurrent refreshes
// could invalidate the session.
type Store struct {
	path     string
	testMode bool
	endpoint *TokenEndpoint
	graph    *graph.Client
	log      zerolog.Logger
	buffer   time.Duration

	mu     sync.Mutex
	reg    *registry
	loaded bool

	flight singleflight.Group
}

// NewStore creates a credential store. The graph client is used for the
// identity lookup that keys new accounts by email address.
func NewStore(cfg *config.Config, graphClient *graph.Client, log zerolog.Logger) *Store {
	return &Store{
		path:     cfg.TokenStorePath,
		testMode: cfg.TestMode,
		endpoint: NewTokenEndpoint(cfg),
		graph:    graphClient,
		log:      log,
		buffer:   RefreshBuffer,
	}
}

// GetValidAccessToken resolves the active account's access token,
// refreshing it first when it expires within the buffer. It returns
// ErrAuthenticationRequired when no account is registered, the active
// reference dangles, or refresh fails — callers must treat that as
// "re-authenticate", not as a transient failure to retry.
func (s *Store) GetValidAccessToken(ctx context.Context) (string, error) {
	if s.testMode {
		return testModeToken, nil
	}

	if err := s.load(); err != nil {
		// Read failures degrade to "no tokens available".
		s.log.Warn().Err(err).Msg("token store unreadable")
		return "", ErrAuthenticationRequired
	}

	s.mu.Lock()
	accountID, ts := s.reg.activeTokenSet()
	var accessToken string
	var needsRefresh bool
	if ts != nil {
		accessToken = ts.AccessToken
		needsRefresh = ts.NeedsRefresh(s.buffer)
	}
	s.mu.Unlock()

	if ts == nil {
		return "", ErrAuthenticationRequired
	}
	if !needsRefresh {
		return accessToken, nil
	}

	refreshed, err := s.refreshAccount(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationRequired, err)
	}
	return refreshed.AccessToken, nil
}

// refreshAccount refreshes one account's tokens. Concurrent calls for the
// same account collapse into a single token-endpoint request.
func (s *Store) refreshAccount(ctx context.Context, accountID string) (*TokenSet, error) {
	v, err, _ := s.flight.Do("refresh:"+accountID, func() (any, error) {
		s.mu.Lock()
		ts, ok := s.reg.Accounts[accountID]
		var refreshToken string
		if ok {
			refreshToken = ts.RefreshToken
		}
		s.mu.Unlock()

		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
		}
		if refreshToken == "" {
			return nil, fmt.Errorf("%w: no refresh token for %s", ErrRefreshFailed, accountID)
		}

		updated, err := s.endpoint.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.reg.Accounts[accountID] = updated
		werr := s.persistLocked()
		s.mu.Unlock()

		if werr != nil {
			// The in-memory token stays usable for the rest of the
			// process even though persistence failed.
			s.log.Error().Err(werr).Str("account", accountID).
				Msg("refreshed token could not be persisted")
		}
		return updated.clone(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TokenSet), nil
}

// ExchangeCode exchanges an authorization code, looks up the account's
// email via Graph, and stores the new token set as the active account.
// When the identity lookup fails the token is kept under a synthetic
// timestamp key rather than lost.
func (s *Store) ExchangeCode(ctx context.Context, code string) (string, *TokenSet, error) {
	ts, err := s.endpoint.Exchange(ctx, code)
	if err != nil {
		return "", nil, err
	}

	var accountID string
	if s.graph != nil {
		info, err := s.graph.GetUserInfo(ctx, ts.AccessToken)
		if err != nil {
			s.log.Warn().Err(err).Msg("identity lookup failed, using synthetic account key")
		} else {
			accountID = info.GetUserEmail()
		}
	}
	if accountID == "" {
		accountID = fmt.Sprintf("account-%d", time.Now().Unix())
	}

	if err := s.load(); err != nil {
		// A fresh registry replaces an unreadable store; the new login
		// should not be blocked by a corrupt document.
		s.log.Warn().Err(err).Msg("replacing unreadable token store")
		s.setRegistry(newRegistry())
	}

	s.mu.Lock()
	s.reg.Accounts[accountID] = ts
	s.reg.ActiveAccount = accountID
	werr := s.persistLocked()
	s.mu.Unlock()

	if werr != nil {
		return accountID, ts.clone(), werr
	}

	s.log.Info().Str("account", accountID).Msg("account authenticated")
	return accountID, ts.clone(), nil
}

// SetActiveAccount switches the default account. The registry is left
// unmodified when the identifier is unknown or persistence fails.
func (s *Store) SetActiveAccount(accountID string) error {
	if err := s.load(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reg.Accounts[accountID]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	prev := s.reg.ActiveAccount
	s.reg.ActiveAccount = accountID
	if err := s.persistLocked(); err != nil {
		s.reg.ActiveAccount = prev
		return err
	}
	return nil
}

// Accounts returns the registered account identifiers in sorted order.
func (s *Store) Accounts() ([]string, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.accountIDs(), nil
}

// ActiveAccount returns the identifier of the active account, or empty
// when none is set.
func (s *Store) ActiveAccount() (string, error) {
	if err := s.load(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.reg.activeTokenSet()
	return id, nil
}

// ClearTokens deletes the persisted store entirely, forcing
// re-authentication.
func (s *Store) ClearTokens() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reg = newRegistry()
	s.loaded = true

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

// load reads the registry from disk once, lazily. Concurrent first-time
// callers share a single read.
func (s *Store) load() error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}

	_, err, _ := s.flight.Do("load", func() (any, error) {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				s.setRegistry(newRegistry())
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
		}

		reg, err := decodeRegistry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageRead, err)
		}
		s.setRegistry(reg)
		return nil, nil
	})
	return err
}

func (s *Store) setRegistry(reg *registry) {
	s.mu.Lock()
	s.reg = reg
	s.loaded = true
	s.mu.Unlock()
}

// persistLocked writes the whole registry document. Callers hold s.mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.reg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

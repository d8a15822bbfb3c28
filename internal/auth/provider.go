package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"smartbiz.ai/advisor/internal/store"
)

// Sign-in attempts allowed per email before throttling kicks in.
const (
	signInBurst    = 5
	signInInterval = 30 * time.Second
)

// An attempt bucket idle this long has refilled and is dropped.
const signInIdle = signInBurst * signInInterval

type attemptLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Identity is a signed-in user together with its session token.
type Identity struct {
	User   *store.User
	Token  string
	Claims Claims
}

// Provider is the account boundary used by the HTTP surface and the CLI.
type Provider interface {
	SignUp(ctx context.Context, req SignUpRequest) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context, token string) error
	Verify(token string) (Claims, error)
	Profile(ctx context.Context, userID string) (*store.User, error)
	UpdateProfile(ctx context.Context, userID string, fields store.UserFields) (*store.User, error)
}

type LocalProvider struct {
	store     store.Store
	issuer    *TokenIssuer
	validator *Validator
	log       zerolog.Logger

	mu       sync.Mutex
	revoked  map[string]time.Time
	attempts map[string]*attemptLimiter
}

var _ Provider = (*LocalProvider)(nil)

func NewLocalProvider(db store.Store, issuer *TokenIssuer, log zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		store:     db,
		issuer:    issuer,
		validator: NewValidator(),
		log:       log.With().Str("component", "auth").Logger(),
		revoked:   make(map[string]time.Time),
		attempts:  make(map[string]*attemptLimiter),
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, req SignUpRequest) (Identity, error) {
	if err := p.validator.SignUp(req); err != nil {
		return Identity{}, err
	}

	existing, err := p.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return Identity{}, newAuthError(CodeEmailInUse, nil)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &store.User{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.Name),
		Phone:        NormalizePhone(req.Phone),
		Pincode:      req.Pincode,
	}
	if err := p.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return Identity{}, newAuthError(CodeEmailInUse, err)
		}
		return Identity{}, fmt.Errorf("failed to create user: %w", err)
	}
	p.log.Info().Str("user_id", user.ID).Msg("user registered")
	return p.issue(user)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	if err := p.validator.SignIn(SignInRequest{Email: email, Password: password}); err != nil {
		return Identity{}, err
	}
	if !p.allowAttempt(email) {
		return Identity{}, newAuthError(CodeTooManyRequests, nil)
	}

	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return Identity{}, newAuthError(CodeUserNotFound, nil)
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return Identity{}, newAuthError(CodeWrongPassword, nil)
	}
	return p.issue(user)
}

// SignOut revokes the token's session. Signing out twice is not an error.
func (p *LocalProvider) SignOut(_ context.Context, token string) error {
	claims, err := p.issuer.Parse(token)
	if err != nil {
		return newAuthError(CodeInvalidToken, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneRevokedLocked()
	expiry := p.issuer.now().Add(p.issuer.ttl)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	p.revoked[claims.SessionID] = expiry
	return nil
}

func (p *LocalProvider) Verify(token string) (Claims, error) {
	claims, err := p.issuer.Parse(token)
	if err != nil {
		return Claims{}, newAuthError(CodeInvalidToken, err)
	}
	p.mu.Lock()
	_, revoked := p.revoked[claims.SessionID]
	p.mu.Unlock()
	if revoked {
		return Claims{}, newAuthError(CodeInvalidToken, nil)
	}
	return claims, nil
}

func (p *LocalProvider) Profile(ctx context.Context, userID string) (*store.User, error) {
	user, err := p.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if user == nil {
		return nil, newAuthError(CodeProfileMissing, nil)
	}
	return user, nil
}

func (p *LocalProvider) UpdateProfile(ctx context.Context, userID string, fields store.UserFields) (*store.User, error) {
	if err := p.validator.ProfileUpdate(fields); err != nil {
		return nil, err
	}
	if fields.DisplayName != nil {
		name := strings.TrimSpace(*fields.DisplayName)
		fields.DisplayName = &name
	}
	if fields.Phone != nil {
		phone := NormalizePhone(*fields.Phone)
		fields.Phone = &phone
	}
	if err := p.store.UpdateUser(ctx, userID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newAuthError(CodeProfileMissing, err)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p.Profile(ctx, userID)
}

func (p *LocalProvider) issue(user *store.User) (Identity, error) {
	token, claims, err := p.issuer.Issue(user.ID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{User: user, Token: token, Claims: claims}, nil
}

func (p *LocalProvider) allowAttempt(email string) bool {
	key := strings.ToLower(strings.TrimSpace(email))
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.issuer.now()
	p.pruneAttemptsLocked(now)
	entry, ok := p.attempts[key]
	if !ok {
		entry = &attemptLimiter{limiter: rate.NewLimiter(rate.Every(signInInterval), signInBurst)}
		p.attempts[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (p *LocalProvider) pruneAttemptsLocked(now time.Time) {
	for key, entry := range p.attempts {
		if now.Sub(entry.lastSeen) >= signInIdle {
			delete(p.attempts, key)
		}
	}
}

func (p *LocalProvider) pruneRevokedLocked() {
	now := p.issuer.now()
	for sid, exp := range p.revoked {
		if exp.Before(now) {
			delete(p.revoked, sid)
		}
	}
}

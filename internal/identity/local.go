package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalProvider is a self-contained identity provider for development and
// tests: credentials live in process memory and access tokens are HS256 JWTs
// signed with a shared secret. It satisfies the same contract as the external
// provider, including re-verification on every request.
type LocalProvider struct {
	secret []byte

	mu    sync.RWMutex
	users map[string]localUser // email -> user
}

type localUser struct {
	id           string
	passwordHash []byte
}

func NewLocalProvider(secret string) *LocalProvider {
	return &LocalProvider{
		secret: []byte(secret),
		users:  make(map[string]localUser),
	}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.users[email]; exists {
		return "", ErrUserExists
	}
	p.users[email] = localUser{id: uuid.NewString(), passwordHash: hash}
	return "Account created successfully", nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	p.mu.RLock()
	user, ok := p.users[email]
	p.mu.RUnlock()

	if !ok {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return "", ErrBadCredentials
	}

	claims := jwt.MapClaims{
		"sub": user.id,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (p *LocalProvider) Verify(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			return sub, nil
		}
	}
	return "", ErrInvalidToken
}

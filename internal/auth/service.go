package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yusufwdn/reimverse/internal"
	tokenDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/token"
	userDatamodel "github.com/yusufwdn/reimverse/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
)

type RepositoryAPI interface {
	GetUserByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *userDatamodel.User) error
	RevokeToken(ctx context.Context, token *tokenDatamodel.RevokedToken) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*userDatamodel.User, error)
	Authenticate(ctx context.Context, dto LoginDTO) (*userDatamodel.User, IssuedToken, error)
	Logout(ctx context.Context, actor Actor) error
	ResolveActor(ctx context.Context, token string) (Actor, error)
}

// Service is the main auth service with dependencies
type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	bcryptCost     int
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
		now:            time.Now,
	}
}

// Register creates an employee account.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*userDatamodel.User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, dto.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, internal.ErrEmailTaken
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &userDatamodel.User{
		Name:         dto.Name,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         string(RoleEmployee),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Authenticate validates credentials and returns a fresh access token
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*userDatamodel.User, IssuedToken, error) {
	if err := dto.Validate(); err != nil {
		return nil, IssuedToken{}, err
	}

	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(dto.Email)))
	if err != nil {
		return nil, IssuedToken{}, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, IssuedToken{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(u.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login rejected", "user_id", u.ID)
		return nil, IssuedToken{}, internal.ErrInvalidCredentials
	}

	role, err := ParseRole(u.Role)
	if err != nil {
		s.logger.Error("user has unknown role", "user_id", u.ID, "role", u.Role)
		return nil, IssuedToken{}, internal.ErrInvalidCredentials
	}

	issued, err := s.tokenGenerator.GenerateAccessToken(u.ID, role)
	if err != nil {
		return nil, IssuedToken{}, err
	}

	return u, issued, nil
}

// Logout revokes the token the actor authenticated with.
func (s *Service) Logout(ctx context.Context, actor Actor) error {
	if actor.TokenID == "" {
		return internal.ErrInvalidToken
	}
	return s.repo.RevokeToken(ctx, &tokenDatamodel.RevokedToken{
		JTI:       actor.TokenID,
		UserID:    actor.ID,
		ExpiresAt: actor.TokenExpiresAt,
		RevokedAt: s.now(),
	})
}

// ResolveActor turns a bearer token into the caller. The role is always read
// from the user row, never trusted from the token.
func (s *Service) ResolveActor(ctx context.Context, token string) (Actor, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return Actor{}, err
	}

	revoked, err := s.repo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Actor{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Actor{}, internal.ErrTokenRevoked
	}

	userID, _ := claims.UserID()
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return Actor{}, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return Actor{}, internal.ErrInvalidToken
	}

	role, err := ParseRole(u.Role)
	if err != nil {
		return Actor{}, internal.ErrInsufficientRole
	}

	actor := Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: role, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		actor.TokenExpiresAt = claims.ExpiresAt.Time
	}
	return actor, nil
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

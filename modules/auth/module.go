package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"

	"github.com/example/task-manager/config"
	"github.com/example/task-manager/database"
	"github.com/example/task-manager/domain/apperror"
)

// AuthModule is the credential service: it owns the users table and issues
// and validates bearer tokens.
type AuthModule struct {
	cfg     *config.Config
	db      *gorm.DB
	service *AuthService
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(cfg *config.Config, logger types.Logger) *AuthModule {
	return &AuthModule{
		cfg:    cfg,
		logger: logger.WithModule("auth"),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the database and wires the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.cfg)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewUserRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewAuthService(repo, NewPasswordHasher(), NewJWTManager(JWTConfigFrom(m.cfg)))

	if m.cfg.UsesDefaultSecret() {
		m.logger.Warn("JWT_SECRET_KEY is not set; tokens are signed with the development key")
	}
	m.logger.Info("Module started", "database", database.Describe(m.cfg))
	return nil
}

// Stop closes the database.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.Error("Failed to close database", "error", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health reports whether the users database answers.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": database.Describe(m.cfg),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh-token", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	m.logger.Info("Registered services", "services", "register, login, refresh-token, validate-token, get-user")
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (TokenResponse, error) {
	user, tokens, err := m.service.Register(ctx, req.UserName, req.Email, req.Password)
	if err != nil {
		m.logFailure("register", err)
		return TokenResponse{Fault: apperror.Public(err)}, nil
	}
	profile := user.Profile()
	m.logger.Info("User registered", "user_id", user.ID)
	return TokenResponse{Tokens: tokens, Profile: &profile}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		m.logFailure("login", err)
		return TokenResponse{Fault: apperror.Public(err)}, nil
	}
	return TokenResponse{Tokens: tokens}, nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		m.logFailure("refresh-token", err)
		return TokenResponse{Fault: apperror.Public(err)}, nil
	}
	return TokenResponse{Tokens: tokens}, nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		return ValidateTokenResponse{Valid: false, Fault: apperror.Public(err)}, nil
	}
	return ValidateTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		m.logFailure("get-user", err)
		return GetUserResponse{Fault: apperror.Public(err)}, nil
	}
	profile := user.Profile()
	return GetUserResponse{Profile: &profile}, nil
}

// logFailure logs server-side faults; caller mistakes are not logged.
func (m *AuthModule) logFailure(op string, err error) {
	switch apperror.KindOf(err) {
	case apperror.Internal, apperror.Unavailable:
		m.logger.Error("Auth operation failed", "operation", op, "error", err)
	}
}

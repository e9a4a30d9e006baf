package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/sales-tracker/internal/apperr"
	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	customjwt "github.com/magabrotheeeer/sales-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/password"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
	services "github.com/magabrotheeeer/sales-tracker/internal/services/auth"
)

func init() {
	password.Cost = bcrypt.MinCost
}

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func notFound() error {
	return apperr.NotFound("User not found")
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		req        models.RegisterRequest
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantRole   string
		wantErr    error
		errMsg     string
	}{
		{
			name: "successful registration with default role",
			req:  models.RegisterRequest{Name: " Alice ", Email: "Alice@Example.com", Password: "secret1"},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, notFound()).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Name == "Alice" &&
						u.Email == "alice@example.com" &&
						u.Role == models.RoleUser &&
						password.CompareHash(u.PasswordHash, "secret1") == nil
				})).Return(&models.User{ID: "u-1", Name: "Alice", Email: "alice@example.com",
					PasswordHash: "hash", Role: models.RoleUser}, nil).Once()
				j.On("GenerateToken", "u-1", models.RoleUser).Return("token-1", nil).Once()
			},
			wantRole: models.RoleUser,
		},
		{
			name: "role is lowercased",
			req:  models.RegisterRequest{Name: "Boss", Email: "boss@example.com", Password: "secret1", Role: "Admin"},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "boss@example.com").Return(nil, notFound()).Once()
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Role == models.RoleAdmin
				})).Return(&models.User{ID: "u-2", Role: models.RoleAdmin}, nil).Once()
				j.On("GenerateToken", "u-2", models.RoleAdmin).Return("token-2", nil).Once()
			},
			wantRole: models.RoleAdmin,
		},
		{
			name:       "unknown role",
			req:        models.RegisterRequest{Name: "X", Email: "x@example.com", Password: "secret1", Role: "root"},
			setupMocks: func(_ *UserRepoMock, _ *JwtMakerMock) {},
			wantErr:    apperr.ErrValidation,
		},
		{
			name: "duplicate email",
			req:  models.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").
					Return(&models.User{ID: "u-1"}, nil).Once()
			},
			wantErr: apperr.ErrValidation,
			errMsg:  services.MsgEmailTaken,
		},
		{
			name:       "password longer than 72 bytes",
			req:        models.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: strings.Repeat("x", 80)},
			setupMocks: func(_ *UserRepoMock, _ *JwtMakerMock) {},
			wantErr:    apperr.ErrValidation,
			errMsg:     services.MsgPasswordTooLong,
		},
		{
			name: "repository error",
			req:  models.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, notFound()).Once()
				r.On("CreateUser", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()
			},
			errMsg: "db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo, jwtMock)
			svc := services.NewAuthService(repo, jwtMock, newNoopLogger())

			got, err := svc.Register(context.Background(), tt.req)
			if tt.wantErr != nil || tt.errMsg != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, got.Token)
				assert.Equal(t, tt.wantRole, got.User.Role)
				assert.Empty(t, got.User.PasswordHash)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := password.GetHash("correctpassword")
	require.NoError(t, err)

	testUser := &models.User{
		ID:           "u-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}

	tests := []struct {
		name       string
		req        models.LoginRequest
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name: "successful login",
			req:  models.LoginRequest{Email: "ALICE@example.com", Password: "correctpassword"},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "u-1", models.RoleUser).Return("valid-token", nil).Once()
			},
			wantToken: "valid-token",
		},
		{
			name: "unknown email",
			req:  models.LoginRequest{Email: "ghost@example.com", Password: "correctpassword"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, notFound()).Once()
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "wrong password",
			req:  models.LoginRequest{Email: "alice@example.com", Password: "wrongpassword"},
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(testUser, nil).Once()
			},
			wantErr: apperr.ErrUnauthorized,
		},
		{
			name: "token generation error",
			req:  models.LoginRequest{Email: "alice@example.com", Password: "correctpassword"},
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "u-1", models.RoleUser).Return("", errors.New("sign failed")).Once()
			},
			wantErr: errors.New("sign failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo, jwtMock)
			svc := services.NewAuthService(repo, jwtMock, newNoopLogger())

			got, err := svc.Login(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, apperr.ErrUnauthorized) {
					assert.ErrorIs(t, err, apperr.ErrUnauthorized)
					assert.Equal(t, services.MsgInvalidCredentials, err.Error())
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, got.Token)
				assert.Equal(t, "u-1", got.User.ID)
				assert.Empty(t, got.User.PasswordHash)
				assert.NotEmpty(t, testUser.PasswordHash, "исходный пользователь не меняется")
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    bool
		errMsg     string
	}{
		{
			name: "valid token",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(&customjwt.CustomClaims{UserID: "u-1", Role: "user"}, nil).Once()
				r.On("GetUserByID", mock.Anything, "u-1").
					Return(&models.User{ID: "u-1", PasswordHash: "hash", Role: "admin"}, nil).Once()
			},
		},
		{
			name: "bad token",
			setupMocks: func(_ *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(nil, errors.New("token is expired")).Once()
			},
			wantErr: true,
			errMsg:  services.MsgTokenFailed,
		},
		{
			name: "user deleted",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				j.On("ParseToken", "tok").Return(&customjwt.CustomClaims{UserID: "u-1"}, nil).Once()
				r.On("GetUserByID", mock.Anything, "u-1").Return(nil, notFound()).Once()
			},
			wantErr: true,
			errMsg:  services.MsgUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			tt.setupMocks(repo, jwtMock)
			svc := services.NewAuthService(repo, jwtMock, newNoopLogger())

			user, err := svc.Authenticate(context.Background(), "tok")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrUnauthorized)
				assert.Equal(t, tt.errMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", user.ID)
			// роль берётся из хранилища, а не из токена
			assert.Equal(t, "admin", user.Role)
			assert.Empty(t, user.PasswordHash)
		})
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	current := func() *models.User {
		return &models.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", PasswordHash: "old", Role: "user"}
	}

	t.Run("меняются только заданные поля", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u-1").Return(current(), nil).Once()
		repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Name == "Alice Cooper" && u.Email == "alice@example.com" && u.PasswordHash == "old"
		})).Return(&models.User{ID: "u-1", Name: "Alice Cooper", Email: "alice@example.com", PasswordHash: "old"}, nil).Once()

		svc := services.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		got, err := svc.UpdateProfile(context.Background(), "u-1", models.UpdateProfileRequest{Name: "Alice Cooper"})
		require.NoError(t, err)
		assert.Equal(t, "Alice Cooper", got.Name)
		assert.Empty(t, got.PasswordHash)
		repo.AssertExpectations(t)
	})

	t.Run("новый пароль хэшируется", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u-1").Return(current(), nil).Once()
		repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return password.CompareHash(u.PasswordHash, "newsecret") == nil
		})).Return(current(), nil).Once()

		svc := services.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		_, err := svc.UpdateProfile(context.Background(), "u-1", models.UpdateProfileRequest{Password: "newsecret"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("слишком длинный пароль", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u-1").Return(current(), nil).Once()

		svc := services.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		_, err := svc.UpdateProfile(context.Background(), "u-1", models.UpdateProfileRequest{Password: strings.Repeat("я", 40)})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrValidation)

		status, msg := response.FromError(err)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, services.MsgPasswordTooLong, msg)
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("email занят другим пользователем", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u-1").Return(current(), nil).Once()
		repo.On("GetUserByEmail", mock.Anything, "bob@example.com").Return(&models.User{ID: "u-2"}, nil).Once()

		svc := services.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		_, err := svc.UpdateProfile(context.Background(), "u-1", models.UpdateProfileRequest{Email: "Bob@example.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
	})

	t.Run("user not found", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByID", mock.Anything, "u-9").Return(nil, notFound()).Once()

		svc := services.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
		_, err := svc.UpdateProfile(context.Background(), "u-9", models.UpdateProfileRequest{Name: "X"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestAuthService_Profile(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUserByID", mock.Anything, "u-1").
		Return(&models.User{ID: "u-1", Email: "alice@example.com", PasswordHash: "hash"}, nil).Once()

	svc := services.NewAuthService(repo, new(JwtMakerMock), newNoopLogger())
	got, err := svc.Profile(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Empty(t, got.PasswordHash)
}

package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"go-expensio/internal/auth"
	autherrors "go-expensio/internal/auth/errors"
	"go-expensio/internal/company"
	companyMock "go-expensio/internal/company/mock"
	"go-expensio/internal/domain"
	"go-expensio/internal/user"
	userMock "go-expensio/internal/user/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// rbacStub satisfies rbac.Service without a casbin enforcer behind it.
type rbacStub struct {
	loadedCompanies []string
	loadErr         error
}

func (s *rbacStub) LoadCompanyPolicy(companyID string) error {
	s.loadedCompanies = append(s.loadedCompanies, companyID)
	return s.loadErr
}

func (s *rbacStub) Enforce(req domain.EnforceRequest) (bool, error) {
	return true, nil
}

type serviceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   auth.Service
	users     *userMock.MockRepository
	companies *companyMock.MockRepository
	rbac      *rbacStub
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)

	db, sqlMock, _ := sqlmock.New()
	users := userMock.NewMockRepository(ctrl)
	companies := companyMock.NewMockRepository(ctrl)
	stub := &rbacStub{}

	svc := auth.NewService(db, users, companies, stub)

	return &serviceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		users:     users,
		companies: companies,
		rbac:      stub,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hashed)
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates company and admin in one transaction", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		req := auth.SignupRequest{
			CompanyName: "Acme",
			Currency:    "usd",
			Email:       "admin@acme.test",
			Name:        "Root",
			Password:    "secret123",
		}

		expectTx(t, deps.sqlMock, true)
		deps.companies.EXPECT().WithTx(gomock.Any()).Return(deps.companies)
		deps.users.EXPECT().WithTx(gomock.Any()).Return(deps.users)

		var companyID uuid.UUID
		deps.companies.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, c *company.Company) error {
				assert.Equal(t, "Acme", c.Name)
				assert.Equal(t, "USD", c.Currency)
				companyID = c.ID
				return nil
			})
		deps.users.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, u *user.User) error {
				assert.Equal(t, companyID, u.CompanyID)
				assert.Equal(t, user.RoleAdmin, u.Role)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)))
				return nil
			})
		deps.companies.EXPECT().
			Update(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, c *company.Company) error {
				assert.NotNil(t, c.AdminID)
				return nil
			})

		resp, err := deps.service.Signup(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, resp.Role)
		assert.Equal(t, companyID.String(), resp.CompanyID)
		assert.Equal(t, []string{companyID.String()}, deps.rbac.loadedCompanies)
	})

	t.Run("duplicate admin email rolls everything back", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		req := auth.SignupRequest{
			CompanyName: "Acme",
			Currency:    "USD",
			Email:       "admin@acme.test",
			Name:        "Root",
			Password:    "secret123",
		}

		expectTx(t, deps.sqlMock, false)
		deps.companies.EXPECT().WithTx(gomock.Any()).Return(deps.companies)
		deps.users.EXPECT().WithTx(gomock.Any()).Return(deps.users)
		deps.companies.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.users.EXPECT().Create(ctx, gomock.Any()).Return(gorm.ErrDuplicatedKey)

		_, err := deps.service.Signup(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrEmailAlreadyRegistered)
		assert.Empty(t, deps.rbac.loadedCompanies)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.users.EXPECT().
			FindByEmail(ctx, "ghost@acme.test").
			Return(nil, gorm.ErrRecordNotFound)

		_, _, _, err := deps.service.Login(ctx, "ghost@acme.test", "whatever")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		u := &user.User{
			ID:        uuid.New(),
			CompanyID: uuid.New(),
			Email:     "admin@acme.test",
			Password:  hashPassword(t, "secret123"),
			Role:      user.RoleAdmin,
		}

		deps.users.EXPECT().
			FindByEmail(ctx, u.Email).
			Return(u, nil)

		_, _, _, err := deps.service.Login(ctx, u.Email, "not-the-password")

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("success issues signed token pair", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		deps := setupServiceTest(t)
		defer deps.db.Close()

		u := &user.User{
			ID:        uuid.New(),
			CompanyID: uuid.New(),
			Email:     "admin@acme.test",
			Name:      "Root",
			Password:  hashPassword(t, "secret123"),
			Role:      user.RoleAdmin,
		}

		deps.users.EXPECT().
			FindByEmail(ctx, u.Email).
			Return(u, nil)

		access, refresh, resp, err := deps.service.Login(ctx, u.Email, "secret123")

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, u.ID.String(), resp.ID)
		assert.Equal(t, []string{u.CompanyID.String()}, deps.rbac.loadedCompanies)

		token, err := jwt.Parse(access, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		assert.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, u.ID.String(), claims["user_id"])
		assert.Equal(t, u.CompanyID.String(), claims["company_id"])
		assert.Equal(t, user.RoleAdmin, claims["role"])
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("garbage token is refused", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, _, _, err := deps.service.RefreshToken(ctx, "not-a-jwt")

		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})

	t.Run("expired token is refused", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		deps := setupServiceTest(t)
		defer deps.db.Close()

		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": uuid.New().String(),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		signed, _ := expired.SignedString([]byte("test-secret"))

		_, _, _, err := deps.service.RefreshToken(ctx, signed)

		assert.ErrorIs(t, err, autherrors.ErrInvalidRefreshToken)
	})

	t.Run("valid token rotates the pair", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")

		deps := setupServiceTest(t)
		defer deps.db.Close()

		u := &user.User{
			ID:        uuid.New(),
			CompanyID: uuid.New(),
			Email:     "admin@acme.test",
			Role:      user.RoleAdmin,
		}
		valid := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": u.ID.String(),
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, _ := valid.SignedString([]byte("test-secret"))

		deps.users.EXPECT().
			FindByID(ctx, u.ID.String()).
			Return(u, nil)

		access, refresh, resp, err := deps.service.RefreshToken(ctx, signed)

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.Equal(t, u.ID.String(), resp.ID)
	})
}

func TestAuthService_GetMe(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed id", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetMe(ctx, "not-a-uuid")

		assert.ErrorIs(t, err, autherrors.ErrInvalidUserID)
	})

	t.Run("unknown user", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New().String()

		deps.users.EXPECT().
			FindByID(ctx, id).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetMe(ctx, id)

		assert.ErrorIs(t, err, autherrors.ErrUserNotFound)
	})
}

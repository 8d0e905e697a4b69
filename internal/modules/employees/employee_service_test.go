package employees

import (
	"context"
	"testing"

	"fleet-ops/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmployeeRepo struct {
	byEmail map[string]*models.Employee
	byID    map[string]*models.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{
		byEmail: make(map[string]*models.Employee),
		byID:    make(map[string]*models.Employee),
	}
}

func (f *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*models.Employee, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) FindByEmail(_ context.Context, email string) (*models.Employee, error) {
	e, ok := f.byEmail[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployeeRepo) Create(_ context.Context, e *models.Employee) (*models.Employee, error) {
	e.IsActive = true
	f.byEmail[e.Email] = e
	f.byID[e.ID] = e
	cp := *e
	return &cp, nil
}

func (f *fakeEmployeeRepo) List(_ context.Context, _, _ int) ([]*models.Employee, int, error) {
	var out []*models.Employee
	for _, e := range f.byID {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeEmployeeRepo) ListDrivers(_ context.Context) ([]*models.Employee, error) {
	var out []*models.Employee
	for _, e := range f.byID {
		if e.IsActive && (e.Role == models.RoleDriver || e.Role == models.RoleAdmin) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) Update(_ context.Context, id string, req models.UpdateEmployeeRequest) (*models.Employee, error) {
	e, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if req.Role != nil {
		e.Role = *req.Role
	}
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEmployeeRepo) Deactivate(_ context.Context, id string) error {
	e, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	e.IsActive = false
	return nil
}

const testSecret = "test-secret"

func newAuthService(repo RepositoryInterface) ServiceInterface {
	return NewService(repo, nil, nil, testSecret, "http://localhost:3000", nil)
}

func TestSignupAndLogin(t *testing.T) {
	repo := newFakeEmployeeRepo()
	svc := newAuthService(repo)

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName: "Ravi",
		LastName:  "Kumar",
		Email:     "ravi@example.com",
		Password:  "correct-horse",
		Role:      models.RoleDriver,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RoleDriver, resp.Employee.Role)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ravi@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Empty(t, login.Employee.PasswordHash, "hash never leaves the service")

	// Token must parse back into our claims with the role intact.
	parsed, err := jwt.ParseWithClaims(login.AccessToken, &models.JwtCustomClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(*models.JwtCustomClaims)
	assert.Equal(t, models.RoleDriver, claims.Role)
	assert.Equal(t, resp.Employee.ID, claims.UserID)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newAuthService(newFakeEmployeeRepo())

	req := models.SignupRequest{
		FirstName: "Ravi", LastName: "Kumar",
		Email: "ravi@example.com", Password: "correct-horse", Role: models.RoleDriver,
	}
	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestLoginFailures(t *testing.T) {
	repo := newFakeEmployeeRepo()
	svc := newAuthService(repo)

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName: "Ravi", LastName: "Kumar",
		Email: "ravi@example.com", Password: "correct-horse", Role: models.RoleDriver,
	})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email: "ravi@example.com", Password: "wrong",
		})
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email: "ghost@example.com", Password: "correct-horse",
		})
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		repo.byEmail["ravi@example.com"].IsActive = false
		_, err := svc.Login(context.Background(), models.LoginRequest{
			Email: "ravi@example.com", Password: "correct-horse",
		})
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}

func TestUpdateProfileRoleEscalationBlocked(t *testing.T) {
	repo := newFakeEmployeeRepo()
	svc := newAuthService(repo)

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		FirstName: "Ravi", LastName: "Kumar",
		Email: "ravi@example.com", Password: "correct-horse", Role: models.RoleEmployee,
	})
	require.NoError(t, err)
	id := resp.Employee.ID

	admin := models.RoleAdmin
	_, err = svc.UpdateProfile(context.Background(), id, models.RoleEmployee, models.UpdateEmployeeRequest{Role: &admin})
	assert.ErrorIs(t, err, models.ErrForbidden, "a non-admin cannot change their own role")

	updated, err := svc.UpdateProfile(context.Background(), id, models.RoleAdmin, models.UpdateEmployeeRequest{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
}

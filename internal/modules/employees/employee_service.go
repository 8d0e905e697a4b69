package employees

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"fleet-ops/internal/models"
	emailSvc "fleet-ops/pkg/email"
	"fleet-ops/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// ServiceInterface defines methods for employee business logic.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	HandleGoogleLogin() (url string, state string, err error)
	HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error)

	GetProfile(ctx context.Context, userID string) (*models.Employee, error)
	UpdateProfile(ctx context.Context, userID, callerRole string, req models.UpdateEmployeeRequest) (*models.Employee, error)

	ListEmployees(ctx context.Context, page, limit int) ([]*models.Employee, int, error)
	ListDrivers(ctx context.Context) ([]*models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, req models.UpdateEmployeeRequest) (*models.Employee, error)
	DeactivateEmployee(ctx context.Context, id string) error
}

type Service struct {
	repo              RepositoryInterface
	emailer           emailSvc.ServiceInterface
	templateManager   *emailSvc.TemplateManager
	jwtSecret         string
	clientOrigin      string
	googleOAuthConfig *oauth2.Config
}

func NewService(
	repo RepositoryInterface,
	emailer emailSvc.ServiceInterface,
	tm *emailSvc.TemplateManager,
	jwtSecret string,
	clientOrigin string,
	googleOAuthConfig *oauth2.Config,
) ServiceInterface {
	return &Service{
		repo:              repo,
		emailer:           emailer,
		templateManager:   tm,
		jwtSecret:         jwtSecret,
		clientOrigin:      clientOrigin,
		googleOAuthConfig: googleOAuthConfig,
	}
}

// googleUserInfo unmarshals the Google user info response.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (s *Service) signToken(e *models.Employee) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID: e.ID,
		Email:  e.Email,
		Role:   e.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(72 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Signup registers a new employee account. The admin-only route guard
// keeps self-service registration off; accounts are provisioned.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	_, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup.FindByEmail: %w", err)
	}
	if err == nil {
		return nil, models.ErrConflict
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.HashPassword: %w", err)
	}

	e := &models.Employee{
		ID:           uuid.New().String(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
		AuthProvider: "local",
	}
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("service.Signup.Create: %w", err)
	}

	// Welcome email is best-effort; account creation already succeeded.
	if s.emailer != nil && s.templateManager != nil {
		html, tmplErr := s.templateManager.GenerateWelcomeEmailHTML(emailSvc.WelcomeData{
			Name: created.FirstName,
			Link: s.clientOrigin,
		})
		if tmplErr == nil {
			if sendErr := s.emailer.SendEmail(ctx, created.Email, "Welcome to Fleet Ops",
				"Your account has been created. Sign in at "+s.clientOrigin, html); sendErr != nil {
				log.Printf("service.Signup: welcome email to %s failed: %v", created.Email, sendErr)
			}
		}
	}

	token, err := s.signToken(created)
	if err != nil {
		return nil, fmt.Errorf("service.Signup: %w", err)
	}
	return &models.AuthResponse{AccessToken: token, Employee: created}, nil
}

// Login verifies credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	e, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login: %w", err)
	}
	if !e.IsActive {
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.signToken(e)
	if err != nil {
		return nil, fmt.Errorf("service.Login: %w", err)
	}
	e.PasswordHash = ""
	return &models.AuthResponse{AccessToken: token, Employee: e}, nil
}

// HandleGoogleLogin returns the Google consent URL plus the CSRF state
// the handler stores in a cookie.
func (s *Service) HandleGoogleLogin() (string, string, error) {
	if s.googleOAuthConfig == nil {
		return "", "", errors.New("google oauth is not configured")
	}
	state, err := utils.GenerateSecureToken(16)
	if err != nil {
		return "", "", fmt.Errorf("service.HandleGoogleLogin: %w", err)
	}
	return s.googleOAuthConfig.AuthCodeURL(state), state, nil
}

// HandleGoogleCallback exchanges the code, loads the Google profile, and
// signs in the matching provisioned account. Unknown emails are rejected;
// this is a staff dashboard, not open registration.
func (s *Service) HandleGoogleCallback(ctx context.Context, code string) (*models.AuthResponse, error) {
	if s.googleOAuthConfig == nil {
		return nil, errors.New("google oauth is not configured")
	}

	token, err := s.googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback.Exchange: %w", err)
	}

	client := s.googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback.UserInfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service.HandleGoogleCallback: userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback.Decode: %w", err)
	}
	if !info.VerifiedEmail {
		return nil, models.ErrInvalidCredentials
	}

	e, err := s.repo.FindByEmail(ctx, info.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.HandleGoogleCallback: %w", err)
	}
	if !e.IsActive {
		return nil, models.ErrInvalidCredentials
	}

	jwtToken, err := s.signToken(e)
	if err != nil {
		return nil, fmt.Errorf("service.HandleGoogleCallback: %w", err)
	}
	e.PasswordHash = ""
	return &models.AuthResponse{AccessToken: jwtToken, Employee: e}, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Employee, error) {
	return s.repo.FindByID(ctx, userID)
}

// UpdateProfile lets an employee edit their own profile. Role and
// activation changes stay admin-only.
func (s *Service) UpdateProfile(ctx context.Context, userID, callerRole string, req models.UpdateEmployeeRequest) (*models.Employee, error) {
	if callerRole != models.RoleAdmin && (req.Role != nil || req.IsActive != nil) {
		return nil, models.ErrForbidden
	}
	return s.repo.Update(ctx, userID, req)
}

func (s *Service) ListEmployees(ctx context.Context, page, limit int) ([]*models.Employee, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, page, limit)
}

func (s *Service) ListDrivers(ctx context.Context) ([]*models.Employee, error) {
	return s.repo.ListDrivers(ctx)
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, req models.UpdateEmployeeRequest) (*models.Employee, error) {
	return s.repo.Update(ctx, id, req)
}

func (s *Service) DeactivateEmployee(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}

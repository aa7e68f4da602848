package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/recipebook/api/internal/models"
	"github.com/recipebook/api/internal/repository"
	"github.com/recipebook/api/internal/storage"
	appErr "github.com/recipebook/api/pkg/errors"
	"github.com/recipebook/api/pkg/logger"
	"github.com/recipebook/api/pkg/utils"
)

// MinPasswordLength is enforced on account creation and password change.
const MinPasswordLength = 5

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// badCredentials is the message of every failed authentication.
const badCredentials = "Unable to authenticate with provided credentials."

type AuthService interface {
	CreateUser(ctx context.Context, in NewUser) (*models.User, error)
	CreateSuperuser(ctx context.Context, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	IssueToken(ctx context.Context, email, password string) (string, *models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, patch models.ProfilePatch) (*models.User, error)
	SetActive(ctx context.Context, email string, active bool) (*models.User, error)
	DeleteUser(ctx context.Context, email string) error
}

// NewUser carries account attributes. Accounts are inactive unless IsActive is set.
type NewUser struct {
	Email       string
	Password    string
	Name        string
	IsActive    bool
	IsStaff     bool
	IsSuperuser bool
}

type authService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	images storage.ImageStore
	cost   int
}

// NewAuthService wires the identity operations. images receives the files of
// recipes removed together with a deleted user.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, images storage.ImageStore) AuthService {
	return &authService{users: users, tokens: tokens, images: images, cost: bcrypt.DefaultCost}
}

var _ AuthService = (*authService)(nil)

func (s *authService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	email := utils.NormalizeEmail(in.Email)
	if email == "" {
		return nil, appErr.Invalid("email", "Users must have an email address.")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, emailTaken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "hash password failed")
	}

	u := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		IsActive:     in.IsActive,
		IsStaff:      in.IsStaff,
		IsSuperuser:  in.IsSuperuser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if appErr.IsCode(err, appErr.CodeConflict) {
			return nil, emailTaken()
		}
		return nil, err
	}

	logger.L().Info("user created", zap.Uint("user_id", u.ID), zap.Bool("active", u.IsActive), zap.Bool("superuser", u.IsSuperuser))
	return u, nil
}

func (s *authService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.CreateUser(ctx, NewUser{
		Email:       email,
		Password:    password,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	if err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email), &u); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.Invalid("non_field_errors", badCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, appErr.Invalid("non_field_errors", badCredentials)
	}
	if !u.IsActive {
		logger.L().Info("login refused for inactive user", zap.Uint("user_id", u.ID))
		return nil, appErr.Invalid("non_field_errors", badCredentials)
	}
	return &u, nil
}

func (s *authService) IssueToken(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *authService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.users.GetByID(ctx, id, &u); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			return nil, appErr.New(appErr.CodeNotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (s *authService) UpdateProfile(ctx context.Context, id uint, patch models.ProfilePatch) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := utils.NormalizeEmail(*patch.Email)
		if email == "" {
			return nil, appErr.Invalid("email", "This field may not be blank.")
		}
		taken, err := s.users.EmailTaken(ctx, email, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, emailTaken()
		}
		u.Email = email
	}
	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Password != nil {
		if err := checkPassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.cost)
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInternal, "hash password failed")
		}
		u.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, u); err != nil {
		if appErr.IsCode(err, appErr.CodeConflict) {
			return nil, emailTaken()
		}
		return nil, err
	}
	logger.L().Info("profile updated", zap.Uint("user_id", u.ID), zap.Bool("password_changed", patch.Password != nil))
	return u, nil
}

func (s *authService) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	var u models.User
	if err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email), &u); err != nil {
		return nil, err
	}
	u.IsActive = active
	if err := s.users.Update(ctx, &u); err != nil {
		return nil, err
	}
	logger.L().Info("user activation changed", zap.Uint("user_id", u.ID), zap.Bool("active", active))
	return &u, nil
}

func (s *authService) DeleteUser(ctx context.Context, email string) error {
	var u models.User
	if err := s.users.GetByEmail(ctx, utils.NormalizeEmail(email), &u); err != nil {
		return err
	}
	images, err := s.users.DeleteCascade(ctx, u.ID)
	if err != nil {
		return err
	}
	dropImages(ctx, s.images, images...)
	logger.L().Info("user deleted", zap.Uint("user_id", u.ID), zap.Int("images", len(images)))
	return nil
}

func checkPassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return appErr.Invalid("password", "Ensure this field has at least 5 characters.")
	}
	if len(pw) > MaxPasswordBytes {
		return appErr.Invalid("password", "Ensure this field has no more than 72 bytes.")
	}
	return nil
}

func emailTaken() error {
	return appErr.Invalid("email", "user with this email already exists.")
}

package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "flux/internal/errors"
	"flux/internal/logger"
	"flux/internal/models"
	"flux/internal/pagination"
	"flux/internal/validator"
)

const minPasswordLength = 6

// userSort is the sort allow-list for the user directory.
var userSort = pagination.SortSpec{
	Columns: map[string]string{
		"name":        "name",
		"lastName":    "last_name",
		"email":       "email",
		"dateOfBirth": "date_of_birth",
	},
	DefaultField:     "name",
	DefaultDirection: pagination.Asc,
	Tiebreak:         "id ASC",
}

// userService handles user-related business logic.
type userService struct {
	db   *gorm.DB
	cost int
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db, cost: bcrypt.DefaultCost}
}

// newUserServiceWithCost lets tests hash with bcrypt.MinCost.
func newUserServiceWithCost(db *gorm.DB, cost int) *userService {
	return &userService{db: db, cost: cost}
}

// Register creates a new account.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	name := titleCase(input.Name)
	lastName := titleCase(input.LastName)

	if name == "" || lastName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name and last name are required")
	}
	if !validator.IsEmail(email) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid email format")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 6 characters")
	}
	if input.DateOfBirth.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date of birth is required")
	}

	taken, err := s.emailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Name:            name,
		LastName:        lastName,
		DateOfBirth:     input.DateOfBirth.UTC(),
		Email:           email,
		Password:        string(hashedPassword),
		ProfileImageURL: input.ProfileImageURL,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID retrieves a user by id.
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case and surrounding spaces.
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetOwnProfile returns the user with the given id if it is the acting user.
func (s *userService) GetOwnProfile(ctx context.Context, actorID, id string) (*models.User, error) {
	if err := ensureSelf(actorID, id, "access your own profile"); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

// ListUsers returns a page of public profiles.
func (s *userService) ListUsers(ctx context.Context, page pagination.PageRequest) (*pagination.Page[models.UserProfile], error) {
	page.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Order(page.OrderClause(userSort)).
		Scopes(pagination.Paginate(page)).
		Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	profiles := make([]models.UserProfile, len(users))
	for i := range users {
		profiles[i] = users[i].Profile()
	}
	result := pagination.NewPage(profiles, page, total)
	return &result, nil
}

// UpdateUser applies a partial profile update to the acting user's account.
func (s *userService) UpdateUser(ctx context.Context, actorID, id string, update UserUpdate) (*models.User, error) {
	if err := ensureSelf(actorID, id, "update your own account"); err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := titleCase(update.Name); name != "" {
		updates["name"] = name
	}
	if lastName := titleCase(update.LastName); lastName != "" {
		updates["last_name"] = lastName
	}
	if update.DateOfBirth != nil && !update.DateOfBirth.IsZero() {
		updates["date_of_birth"] = update.DateOfBirth.UTC()
	}
	if update.ProfileImageURL != nil {
		updates["profile_image_url"] = strings.TrimSpace(*update.ProfileImageURL)
	}

	if strings.TrimSpace(update.Email) != "" {
		email := normalizeEmail(update.Email)
		if !validator.IsEmail(email) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid email format")
		}
		if email == user.Email {
			return nil, apperrors.WithMessage(apperrors.ErrConflict, "new email must be different from the current email")
		}
		taken, err := s.emailTaken(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.WithMessage(apperrors.ErrConflict, "email is already in use")
		}
		updates["email"] = email
	}

	if update.Password != "" {
		if len(update.Password) < minPasswordLength {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 6 characters")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(update.Password)) == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "new password must be different from the current password")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(update.Password), s.cost)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["password"] = string(hashed)
	}

	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("user updated", "user_id", id)
	return s.GetUserByID(ctx, id)
}

// DeleteUser removes the acting user's account together with their ledger,
// balance history and assistant conversation.
func (s *userService) DeleteUser(ctx context.Context, actorID, id string) error {
	if err := ensureSelf(actorID, id, "delete your own account"); err != nil {
		return err
	}
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owned := range []interface{}{&models.Expense{}, &models.Income{}, &models.Balance{}, &models.Conversation{}} {
			if err := tx.Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&models.User{}).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("user deleted", "user_id", id)
	return nil
}

func (s *userService) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// ensureSelf rejects operations on another user's account.
func ensureSelf(actorID, id, action string) error {
	if actorID != id {
		return apperrors.WithMessage(apperrors.ErrForbidden, "You can only "+action)
	}
	return nil
}

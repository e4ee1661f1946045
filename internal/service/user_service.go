package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"kirshify/admin/internal/config"
	"kirshify/admin/internal/ids"
	"kirshify/admin/internal/models"
	"kirshify/admin/internal/repository"
	"kirshify/admin/internal/security"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = config.MaxPerPage
	maxImportUsers = 1000
)

type UserService struct {
	users   UserStore
	archive ImportArchive
	log     zerolog.Logger
	now     func() time.Time
}

// NewUserService builds the user-management service. archive may be nil, in
// which case imports are neither archived nor readable by object key.
func NewUserService(users UserStore, archive ImportArchive, log zerolog.Logger) *UserService {
	return &UserService{
		users:   users,
		archive: archive,
		log:     log,
		now:     time.Now,
	}
}

type ListInput struct {
	Page    int
	PerPage int
	Query   string
}

type UserPage struct {
	Items   []models.User
	Total   int
	Page    int
	PerPage int
}

func (s *UserService) List(ctx context.Context, input ListInput) (UserPage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	items, total, err := s.users.List(ctx, repository.UserFilter{
		Query:  input.Query,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return UserPage{}, fmt.Errorf("list users: %w", err)
	}
	return UserPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *UserService) Delete(ctx context.Context, actorID string, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	if id == actorID {
		return ErrSelfDelete
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("actor_id", actorID).Str("user_id", id).Msg("user deleted")
	return nil
}

type ImportUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
}

type ImportInput struct {
	Users     []ImportUser
	ObjectKey string
}

type ImportResult struct {
	Imported  int
	Skipped   int
	ObjectKey string
}

// Import adds users in bulk, either from the request or from a JSON file in
// the import bucket. The whole batch is validated before anything is written;
// emails that already exist are skipped.
func (s *UserService) Import(ctx context.Context, input ImportInput) (ImportResult, error) {
	batch := input.Users
	key := strings.TrimSpace(input.ObjectKey)

	if key != "" {
		if s.archive == nil {
			return ImportResult{}, fmt.Errorf("%w: object imports are not configured", ErrInvalidInput)
		}
		data, err := s.archive.GetImport(ctx, key)
		if err != nil {
			return ImportResult{}, err
		}
		if batch, err = decodeImport(data); err != nil {
			return ImportResult{}, err
		}
	}

	if len(batch) == 0 {
		return ImportResult{}, fmt.Errorf("%w: no users to import", ErrInvalidInput)
	}
	if len(batch) > maxImportUsers {
		return ImportResult{}, fmt.Errorf("%w: at most %d users per import", ErrInvalidInput, maxImportUsers)
	}

	records := make([]models.User, 0, len(batch))
	for i, in := range batch {
		user, err := s.importRecord(in)
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: user %d: %v", ErrInvalidInput, i+1, err)
		}
		records = append(records, user)
	}

	if key == "" {
		key = s.archiveBatch(ctx, batch)
	}

	result := ImportResult{ObjectKey: key}
	for _, user := range records {
		created, err := s.users.CreateIfAbsent(ctx, user)
		if err != nil {
			return result, fmt.Errorf("import %s: %w", user.Email, err)
		}
		if created {
			result.Imported++
		} else {
			result.Skipped++
		}
	}

	s.log.Info().
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Str("object_key", result.ObjectKey).
		Msg("users imported")
	return result, nil
}

func (s *UserService) importRecord(in ImportUser) (models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" {
		return models.User{}, fmt.Errorf("name and email are required")
	}
	if !strings.Contains(email, "@") {
		return models.User{}, fmt.Errorf("invalid email %q", in.Email)
	}

	role := models.UserRole(strings.ToLower(strings.TrimSpace(in.Role)))
	if role == "" {
		role = models.UserRoleViewer
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("unknown role %q", in.Role)
	}

	// Users imported without a password cannot sign in until one is set.
	hash := []byte{}
	if in.Password != "" {
		var err error
		if hash, err = security.HashPassword(in.Password); err != nil {
			return models.User{}, err
		}
	}

	return models.User{
		ID:           ids.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}, nil
}

// archiveBatch stores the posted batch without passwords. Failures are logged
// and do not block the import.
func (s *UserService) archiveBatch(ctx context.Context, batch []ImportUser) string {
	if s.archive == nil {
		return ""
	}

	clean := make([]ImportUser, len(batch))
	for i, u := range batch {
		u.Password = ""
		clean[i] = u
	}
	data, err := json.Marshal(clean)
	if err != nil {
		s.log.Warn().Err(err).Msg("encode import archive failed")
		return ""
	}

	key := fmt.Sprintf("imports/%s/%s.json", s.now().UTC().Format("2006-01-02"), ids.New())
	if err := s.archive.PutImport(ctx, key, data); err != nil {
		s.log.Warn().Err(err).Str("object_key", key).Msg("archive import failed")
		return ""
	}
	return key
}

// decodeImport accepts either a bare JSON array of users or {"users": [...]}.
func decodeImport(data []byte) ([]ImportUser, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var users []ImportUser
		if err := json.Unmarshal(data, &users); err != nil {
			return nil, fmt.Errorf("%w: import file: %v", ErrInvalidInput, err)
		}
		return users, nil
	}

	var wrapped struct {
		Users []ImportUser `json:"users"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: import file: %v", ErrInvalidInput, err)
	}
	return wrapped.Users, nil
}

func (s *UserService) Stats(ctx context.Context) (models.Stats, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("count users: %w", err)
	}
	return models.StatsFor(n), nil
}

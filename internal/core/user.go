package core

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/meetgrid/backend/internal/status"
)

const (
	pbkdf2Iterations  = 100000
	passwordHashBytes = 32
	saltBytes         = 32
	minPasswordLength = 8
)

// UserManager implements registration, login and profile lookup on top of a
// UserRepository.
type UserManager struct {
	repo UserRepository
}

func NewUserManager(repo UserRepository) *UserManager {
	return &UserManager{repo: repo}
}

// RegisterUser validates the command, hashes the password and stores the new
// user. The returned record carries the storage-assigned numeric id.
func (m *UserManager) RegisterUser(ctx context.Context, cmd RegisterCommand) (UserData, error) {
	if cmd.UserName == "" || cmd.Password == "" || cmd.Email == "" {
		return UserData{}, status.InvalidArgument("User name, password, and email cannot be empty.").Err()
	}
	if len(cmd.Password) < minPasswordLength {
		return UserData{}, status.InvalidArgument("Password must be at least 8 characters long.").Err()
	}

	data := UserData{
		UserID:      generateUserID(),
		UserName:    cmd.UserName,
		DisplayName: cmd.DisplayName,
		Email:       cmd.Email,
		Salt:        randomSalt(saltBytes),
		CreatedAt:   time.Now().Unix(),
	}
	if data.DisplayName == "" {
		data.DisplayName = cmd.UserName
	}
	data.PasswordHash = hashPassword(cmd.Password, data.Salt)

	if err := m.repo.CreateUser(ctx, data); err != nil {
		return UserData{}, err
	}

	stored, err := m.repo.FindByUserName(ctx, data.UserName)
	if err != nil {
		// The create succeeded; hand back what we wrote.
		return data, nil
	}
	return stored, nil
}

// LoginUser verifies the credentials and stamps last_login. The login itself
// succeeds even if the stamp cannot be persisted.
func (m *UserManager) LoginUser(ctx context.Context, cmd LoginCommand) (UserData, error) {
	data, err := m.repo.FindByUserName(ctx, cmd.UserName)
	if err != nil {
		return UserData{}, err
	}

	hashed := hashPassword(cmd.Password, data.Salt)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(data.PasswordHash)) != 1 {
		return UserData{}, status.Unauthenticated("Invalid password.").Err()
	}

	now := time.Now().Unix()
	if err := m.repo.UpdateLastLogin(ctx, data.UserID, now); err != nil {
		slog.Warn("last login update failed", "user", data.UserName, "err", err)
	}
	data.LastLogin = now
	return data, nil
}

// LogoutUser only confirms the user exists; session teardown is the session
// manager's job.
func (m *UserManager) LogoutUser(ctx context.Context, userName string) error {
	_, err := m.repo.FindByUserName(ctx, userName)
	return err
}

func (m *UserManager) GetUserByUserName(ctx context.Context, userName string) (UserData, error) {
	return m.repo.FindByUserName(ctx, userName)
}

func (m *UserManager) GetUserByID(ctx context.Context, userID string) (UserData, error) {
	return m.repo.FindByID(ctx, userID)
}

func generateUserID() string {
	return "user_" + randomHex(16)
}

// hashPassword derives a hex-encoded PBKDF2-HMAC-SHA256 digest of the
// password under the given salt.
func hashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, passwordHashBytes, sha256.New)
	return hex.EncodeToString(key)
}

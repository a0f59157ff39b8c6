package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"carburapp/internal/mail"
	"carburapp/internal/models"
	"carburapp/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	user.CreatedAt = time.Now().UTC()
	f.nextID++
	clone := *user
	f.byID[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) SetVerified(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.Verified = true
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

// plainHasher avoids bcrypt cost in tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeCodeStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]string)}
}

func (f *fakeCodeStore) Save(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[email] = code
	return nil
}

func (f *fakeCodeStore) Consume(_ context.Context, email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.codes[email]
	if !ok || stored != code {
		return mail.ErrCodeMismatch
	}
	delete(f.codes, email)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMailer) SendVerificationCode(email, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, fmt.Sprintf("%s:%s", email, code))
	return nil
}

func newAuthService(repo UserRepository) (*AuthService, *fakeCodeStore, *fakeMailer) {
	codes := newFakeCodeStore()
	mailer := &fakeMailer{}
	tokenizer := NewTokenService("test-secret", time.Hour)
	counter := 0
	newCode := func() (string, error) {
		counter++
		return fmt.Sprintf("%04d", counter), nil
	}
	return NewAuthService(repo, plainHasher{}, tokenizer, codes, mailer, newCode, zap.NewNop()), codes, mailer
}

func TestSignupRequiresPrivacyAcceptance(t *testing.T) {
	svc, _, _ := newAuthService(newFakeUserRepo())

	if _, err := svc.Signup(context.Background(), "a@example.com", "secret", false); !errors.Is(err, ErrPrivacyNotAccepted) {
		t.Fatalf("got %v, want ErrPrivacyNotAccepted", err)
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _, _ := newAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "a@example.com", "secret", true); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(ctx, "A@Example.com", "other", true); !errors.Is(err, ErrEmailInUse) {
		t.Fatalf("got %v, want ErrEmailInUse", err)
	}
}

func TestSignupStartsFresh(t *testing.T) {
	svc, _, _ := newAuthService(newFakeUserRepo())

	user, err := svc.Signup(context.Background(), "  A@Example.com ", "secret", true)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.Email != "a@example.com" {
		t.Errorf("email = %q, want normalized", user.Email)
	}
	if user.Points != 0 || user.ReportCount != 0 {
		t.Errorf("new user has points=%d report_count=%d, want zeroes", user.Points, user.ReportCount)
	}
	if user.Verified {
		t.Error("new user should not be verified")
	}
}

func TestLoginRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _, _ := newAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "a@example.com", "secret", true); err != nil {
		t.Fatalf("signup: %v", err)
	}

	token, user, err := svc.Login(ctx, "a@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	claims, err := svc.tokenizer.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user id = %d, want %d", claims.UserID, user.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _, _ := newAuthService(repo)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "a@example.com", "secret", true); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
}

func TestVerificationFlow(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _, mailer := newAuthService(repo)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "a@example.com", "secret", true)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.SendVerification(ctx, user.ID); err != nil {
		t.Fatalf("send verification: %v", err)
	}
	if len(mailer.sent) != 1 || !strings.HasPrefix(mailer.sent[0], "a@example.com:") {
		t.Fatalf("unexpected mail log: %v", mailer.sent)
	}
	code := strings.TrimPrefix(mailer.sent[0], "a@example.com:")

	if err := svc.ConfirmVerification(ctx, user.ID, "0000"); !errors.Is(err, mail.ErrCodeMismatch) {
		t.Fatalf("wrong code: got %v, want ErrCodeMismatch", err)
	}
	if err := svc.ConfirmVerification(ctx, user.ID, code); err != nil {
		t.Fatalf("confirm verification: %v", err)
	}

	stored, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !stored.Verified {
		t.Error("user not marked verified")
	}

	// Codes are single use.
	if err := svc.ConfirmVerification(ctx, user.ID, code); !errors.Is(err, mail.ErrCodeMismatch) {
		t.Fatalf("reused code: got %v, want ErrCodeMismatch", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _, _ := newAuthService(repo)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "a@example.com", "secret", true)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if err := svc.DeleteAccount(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("profile still present: %v", err)
	}
	if err := svc.DeleteAccount(ctx, user.ID); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("second delete: got %v, want ErrUserNotFound", err)
	}
}

func TestProfileIncludesLevel(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _, _ := newAuthService(repo)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "a@example.com", "secret", true)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	repo.mu.Lock()
	repo.byID[user.ID].Points = 200
	repo.mu.Unlock()

	_, level, err := svc.Profile(ctx, user.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if level.Title != "Refueling Expert" {
		t.Errorf("level = %q, want Refueling Expert", level.Title)
	}
}

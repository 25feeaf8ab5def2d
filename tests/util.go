package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/notification"
	"github.com/trezcool/coaching/core/student"
)

// Day returns the calendar date of the given YYYY-MM-DD string; it panics on malformed input.
func Day(s string) time.Time {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// SetToday mocks core.NowFunc until the test ends.
func SetToday(t *testing.T, today time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return today.Add(10 * time.Hour) }
	t.Cleanup(func() { core.NowFunc = orig })
}

// NewValidator returns a validator with all custom validations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	fee.InitValidators(validate, translator)
	return validate, translator
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	userID, name, batchID string,
	joinDate time.Time,
	email ...string,
) student.Student {
	t.Helper()
	now := time.Now().UTC()
	std := student.Student{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		BatchID:   batchID,
		JoinDate:  core.Date(joinDate),
		FeeStatus: student.FeeStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(email) > 0 {
		std.Email = email[0]
	}
	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreatePayment(t *testing.T, repo fee.Repository, std student.Student, amount fee.Amount, date time.Time) fee.Payment {
	t.Helper()
	p, err := repo.CreatePayment(context.Background(), fee.Payment{
		ID:        uuid.New().String(),
		StudentID: std.ID,
		Amount:    amount,
		Date:      core.Date(date),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return p
}

func CreateToken(t *testing.T, repo notification.Repository, userID, token string, lastUsedAt ...time.Time) notification.DeviceToken {
	t.Helper()
	now := time.Now().UTC()
	used := now
	if len(lastUsedAt) > 0 {
		used = lastUsedAt[0].UTC()
	}
	tok, _, err := repo.UpsertToken(context.Background(), notification.DeviceToken{
		ID:         uuid.New().String(),
		UserID:     userID,
		Token:      token,
		DeviceType: notification.DeviceWeb,
		IsActive:   true,
		LastUsedAt: used,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateToken() failed: %v", err)
	}
	return tok
}

// FakeProvider is a scriptable notification.Provider.
type FakeProvider struct {
	mu sync.Mutex

	// Results maps tokens to their delivery error; unknown tokens succeed.
	Results map[string]error
	// Err, when set, fails every batch.
	Err error

	Batches [][]string
	Message notification.Message
}

var _ notification.Provider = (*FakeProvider)(nil)

func (p *FakeProvider) Send(_ context.Context, msg notification.Message, tokens []string) ([]error, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Message = msg
	p.Batches = append(p.Batches, append([]string(nil), tokens...))
	if p.Err != nil {
		return nil, p.Err
	}
	results := make([]error, len(tokens))
	for i, tok := range tokens {
		results[i] = p.Results[tok]
	}
	return results, nil
}

// Sent returns every token the provider was asked to deliver to, in order.
func (p *FakeProvider) Sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var tokens []string
	for _, b := range p.Batches {
		tokens = append(tokens, b...)
	}
	return tokens
}

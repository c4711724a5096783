package otp

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/storefront/internal/events"
)

type fakeRegistry map[string]bool

func (f fakeRegistry) EmailTaken(_ context.Context, email string) (bool, error) {
	return f[email], nil
}

type capturePublisher struct {
	mu   sync.Mutex
	sent []events.OTPRequested
}

func (p *capturePublisher) PublishJSON(_ context.Context, _ string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := v.(events.OTPRequested); ok {
		p.sent = append(p.sent, ev)
	}
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) last() events.OTPRequested {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent[len(p.sent)-1]
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(taken fakeRegistry) (*Service, *capturePublisher, *clock) {
	pub := &capturePublisher{}
	clk := &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := NewService(NewInMemoryRepository(), taken, pub, 5*time.Minute, 3)
	s.now = clk.now
	return s, pub, clk
}

func TestSend_RejectsExistingUser(t *testing.T) {
	s, pub, _ := newTestService(fakeRegistry{"taken@example.com": true})
	err := s.Send(context.Background(), " Taken@Example.com ")
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Empty(t, pub.sent)
}

func TestVerify_Flow(t *testing.T) {
	ctx := context.Background()
	s, pub, _ := newTestService(fakeRegistry{})

	require.NoError(t, s.Send(ctx, "new@example.com"))
	code := pub.last().Code
	require.Len(t, code, 6)

	_, err := s.Verify(ctx, "new@example.com", wrong(code))
	assert.ErrorIs(t, err, ErrInvalidCode)

	status, err := s.Verify(ctx, "NEW@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)

	require.NoError(t, s.Consume(ctx, "new@example.com"))
	assert.ErrorIs(t, s.Consume(ctx, "new@example.com"), ErrNotVerified, "consume must not replay")
}

func TestVerify_NotFound(t *testing.T) {
	s, _, _ := newTestService(fakeRegistry{})
	_, err := s.Verify(context.Background(), "nobody@example.com", "123456")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVerify_ExpiredAllowsResend(t *testing.T) {
	ctx := context.Background()
	s, pub, clk := newTestService(fakeRegistry{})

	require.NoError(t, s.Send(ctx, "late@example.com"))
	clk.t = clk.t.Add(6 * time.Minute)

	status, err := s.Verify(ctx, "late@example.com", pub.last().Code)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, status)

	require.NoError(t, s.Send(ctx, "late@example.com"))
	status, err = s.Verify(ctx, "late@example.com", pub.last().Code)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
}

func TestVerify_TooManyAttempts(t *testing.T) {
	ctx := context.Background()
	s, pub, _ := newTestService(fakeRegistry{})

	require.NoError(t, s.Send(ctx, "brute@example.com"))
	code := pub.last().Code
	for i := 0; i < 3; i++ {
		_, err := s.Verify(ctx, "brute@example.com", wrong(code))
		require.ErrorIs(t, err, ErrInvalidCode)
	}
	_, err := s.Verify(ctx, "brute@example.com", code)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestVerify_ParallelGuessesBounded(t *testing.T) {
	ctx := context.Background()
	s, pub, _ := newTestService(fakeRegistry{})
	require.NoError(t, s.Send(ctx, "race@example.com"))
	code := pub.last().Code

	var compared atomic.Int32
	s.compare = func(hash, c []byte) error {
		compared.Add(1)
		return bcrypt.CompareHashAndPassword(hash, c)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Verify(ctx, "race@example.com", wrong(code))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, compared.Load())
	_, err := s.Verify(ctx, "race@example.com", code)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestConsume_RequiresVerification(t *testing.T) {
	ctx := context.Background()
	s, _, clk := newTestService(fakeRegistry{})

	assert.ErrorIs(t, s.Consume(ctx, "x@example.com"), ErrNotVerified)

	require.NoError(t, s.Send(ctx, "x@example.com"))
	assert.ErrorIs(t, s.Consume(ctx, "x@example.com"), ErrNotVerified)

	require.NoError(t, s.repo.MarkVerified(ctx, "x@example.com", clk.t))
	clk.t = clk.t.Add(10 * time.Minute)
	assert.ErrorIs(t, s.Consume(ctx, "x@example.com"), ErrNotVerified)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}

func wrong(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

package quota

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsage struct {
	used       int64
	err        error
	start, end time.Time
}

func (f *fakeUsage) GetTokenUsage(_ context.Context, start, end time.Time) (int64, error) {
	f.start, f.end = start, end
	return f.used, f.err
}

func TestTokenBudgetCheck(t *testing.T) {
	now := time.Date(2024, 12, 3, 22, 15, 0, 0, time.FixedZone("CST", 8*3600))

	tests := []struct {
		name    string
		used    int64
		max     int64
		wantErr bool
	}{
		{"disabled", 5000, 0, false},
		{"under budget", 999, 1000, false},
		{"at budget", 1000, 1000, true},
		{"over budget", 1500, 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := &fakeUsage{used: tt.used}
			b := NewTokenBudget(usage, tt.max)
			b.now = func() time.Time { return now }

			_, max, err := b.Check(context.Background())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var exceeded BudgetExceededError
			require.ErrorAs(t, err, &exceeded)
			assert.Equal(t, tt.used, exceeded.Used)
			assert.Equal(t, tt.max, max)
		})
	}
}

func TestTokenBudgetUsesUTCDay(t *testing.T) {
	usage := &fakeUsage{}
	b := NewTokenBudget(usage, 10)
	b.now = func() time.Time { return time.Date(2024, 12, 4, 6, 0, 0, 0, time.FixedZone("CST", 8*3600)) }

	_, _, err := b.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC), usage.start)
	assert.Equal(t, time.Date(2024, 12, 4, 0, 0, 0, 0, time.UTC), usage.end)
}

func TestTokenBudgetReaderError(t *testing.T) {
	b := NewTokenBudget(&fakeUsage{err: stderrors.New("db down")}, 10)
	_, _, err := b.Check(context.Background())
	require.Error(t, err)
	var exceeded BudgetExceededError
	assert.False(t, stderrors.As(err, &exceeded))

	var nilBudget *TokenBudget
	_, _, err = nilBudget.Check(context.Background())
	assert.NoError(t, err)
}

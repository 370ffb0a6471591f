package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func TestNewExpirationDate(t *testing.T) {
	tests := []struct {
		name    string
		value   time.Time
		wantErr error
	}{
		{
			name:    "past instant",
			value:   testNow.Add(-time.Minute),
			wantErr: ErrExpirationNotFuture,
		},
		{
			name:    "instant equal to now",
			value:   testNow,
			wantErr: ErrExpirationNotFuture,
		},
		{
			name:  "future instant",
			value: testNow.Add(time.Minute),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := NewExpirationDate(tt.value, testNow)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
			assert.True(t, exp.Time().Equal(tt.value))
		})
	}
}

func TestParseExpirationDate(t *testing.T) {
	t.Run("unparsable input", func(t *testing.T) {
		_, err := ParseExpirationDate("not a timestamp", testNow)

		assert.ErrorIs(t, err, ErrInvalidExpiration)
	})

	t.Run("past instant", func(t *testing.T) {
		_, err := ParseExpirationDate(testNow.Add(-time.Hour).Format(time.RFC3339), testNow)

		assert.ErrorIs(t, err, ErrExpirationNotFuture)
	})

	t.Run("future instant", func(t *testing.T) {
		want := testNow.Add(2 * time.Hour)
		exp, err := ParseExpirationDate(want.Format(time.RFC3339), testNow)

		assert.NoError(t, err)
		assert.True(t, exp.Time().Equal(want))
	})
}

func TestDefaultExpirationDate(t *testing.T) {
	exp := DefaultExpirationDate(testNow)

	assert.True(t, exp.Time().Equal(testNow.Add(DefaultExpirationTTL)))
}

func TestExpirationDate_IsPast(t *testing.T) {
	exp, err := NewExpirationDate(testNow.Add(time.Hour), testNow)
	assert.NoError(t, err)

	assert.False(t, exp.IsPast(testNow))
	assert.False(t, exp.IsPast(testNow.Add(59*time.Minute)))
	assert.True(t, exp.IsPast(testNow.Add(time.Hour)))
	assert.True(t, exp.IsPast(testNow.Add(2*time.Hour)))
}

func TestExpirationDate_IsNearExpiration(t *testing.T) {
	exp, err := NewExpirationDate(testNow.Add(2*time.Hour), testNow)
	assert.NoError(t, err)

	assert.False(t, exp.IsNearExpiration(testNow))
	// exactly one hour remaining is not yet near expiration
	assert.False(t, exp.IsNearExpiration(testNow.Add(time.Hour)))
	assert.True(t, exp.IsNearExpiration(testNow.Add(time.Hour+time.Second)))
	assert.True(t, exp.IsNearExpiration(testNow.Add(90*time.Minute)))
}

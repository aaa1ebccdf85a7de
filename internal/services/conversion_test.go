package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nurlanv/cbar-rates/internal/models"
)

type MockRateReader struct {
	mock.Mock
}

func (m *MockRateReader) GetRate(ctx context.Context, date time.Time, code string) (*models.Currency, error) {
	args := m.Called(ctx, date, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Currency), args.Error(1)
}

type MockConversionHistoryWriter struct {
	mock.Mock
}

func (m *MockConversionHistoryWriter) Save(ctx context.Context, h models.ConversionHistory) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func eurRecord(rate string) *models.Currency {
	return &models.Currency{
		Code: "EUR",
		Name: "1 Avro",
		Rate: decimal.RequireFromString(rate),
	}
}

func TestToManat_MultipliesAndRounds(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	svc := NewConversionService(rates, history, nil)

	rates.On("GetRate", mock.Anything, testDate, "EUR").Return(eurRecord("1.9829"), nil)
	history.On("Save", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.ToManat(context.Background(), testDate, "EUR", decimal.RequireFromString("100"))
	assert.NoError(t, err)
	assert.True(t, decimal.RequireFromString("198.29").Equal(got), "got %s", got)

	history.AssertCalled(t, "Save", mock.Anything, mock.MatchedBy(func(h models.ConversionHistory) bool {
		return h.Type == models.ConversionToManat && h.Currency == "EUR"
	}))
}

func TestToManat_RoundsHalfUpToFourPlaces(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	svc := NewConversionService(rates, history, nil)

	rates.On("GetRate", mock.Anything, testDate, "EUR").Return(eurRecord("0.333333"), nil)
	history.On("Save", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.ToManat(context.Background(), testDate, "EUR", decimal.RequireFromString("1"))
	assert.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.3333").Equal(got), "got %s", got)
}

func TestFromManat_DividesAndRounds(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	svc := NewConversionService(rates, history, nil)

	rates.On("GetRate", mock.Anything, testDate, "EUR").Return(eurRecord("1.9829"), nil)
	history.On("Save", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.FromManat(context.Background(), testDate, "EUR", decimal.RequireFromString("198.29"))
	assert.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100").Equal(got), "got %s", got)

	history.AssertCalled(t, "Save", mock.Anything, mock.MatchedBy(func(h models.ConversionHistory) bool {
		return h.Type == models.ConversionFromManat
	}))
}

func TestFromManat_ZeroRateFails(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	svc := NewConversionService(rates, history, nil)

	rates.On("GetRate", mock.Anything, testDate, "XPT").Return(eurRecord("0"), nil)

	_, err := svc.FromManat(context.Background(), testDate, "XPT", decimal.RequireFromString("10"))
	assert.ErrorIs(t, err, ErrZeroRate)

	history.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestToManat_ZeroRateYieldsZeroResult(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	svc := NewConversionService(rates, history, nil)

	rates.On("GetRate", mock.Anything, testDate, "XPT").Return(eurRecord("0"), nil)
	history.On("Save", mock.Anything, mock.Anything).Return(nil)

	got, err := svc.ToManat(context.Background(), testDate, "XPT", decimal.RequireFromString("10"))
	assert.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestConversion_RateLookupErrorPropagates(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	svc := NewConversionService(rates, history, nil)

	rates.On("GetRate", mock.Anything, testDate, "XXX").Return(nil, ErrCurrencyNotFound)

	_, err := svc.ToManat(context.Background(), testDate, "XXX", decimal.RequireFromString("1"))
	assert.ErrorIs(t, err, ErrCurrencyNotFound)

	_, err = svc.FromManat(context.Background(), testDate, "XXX", decimal.RequireFromString("1"))
	assert.ErrorIs(t, err, ErrCurrencyNotFound)

	history.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestConversion_HistorySaveFailureDoesNotFailConversion(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	svc := NewConversionService(rates, history, nil)

	rates.On("GetRate", mock.Anything, testDate, "EUR").Return(eurRecord("1.9829"), nil)
	history.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	got, err := svc.ToManat(context.Background(), testDate, "EUR", decimal.RequireFromString("100"))
	assert.NoError(t, err)
	assert.True(t, decimal.RequireFromString("198.29").Equal(got))
}

func TestConversion_PublishesEventToKafka(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	writer := new(MockKafkaWriter)
	svc := NewConversionService(rates, history, writer)

	rates.On("GetRate", mock.Anything, testDate, "EUR").Return(eurRecord("1.9829"), nil)
	history.On("Save", mock.Anything, mock.Anything).Return(nil)
	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && string(msgs[0].Key) == "EUR"
	})).Return(nil)

	_, err := svc.ToManat(context.Background(), testDate, "EUR", decimal.RequireFromString("100"))
	assert.NoError(t, err)

	writer.AssertExpectations(t)
}

func TestConversion_PublishFailureDoesNotFailConversion(t *testing.T) {
	rates := new(MockRateReader)
	history := new(MockConversionHistoryWriter)
	writer := new(MockKafkaWriter)
	svc := NewConversionService(rates, history, writer)

	rates.On("GetRate", mock.Anything, testDate, "EUR").Return(eurRecord("1.9829"), nil)
	history.On("Save", mock.Anything, mock.Anything).Return(nil)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker unreachable"))

	got, err := svc.ToManat(context.Background(), testDate, "EUR", decimal.RequireFromString("100"))
	assert.NoError(t, err)
	assert.True(t, decimal.RequireFromString("198.29").Equal(got))
}

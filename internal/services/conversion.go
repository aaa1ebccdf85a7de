package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/nurlanv/cbar-rates/internal/logger"
	"github.com/nurlanv/cbar-rates/internal/models"
)

// ErrZeroRate is returned when a conversion from manat hits a degraded
// zero-rate record, division would be undefined.
var ErrZeroRate = errors.New("exchange rate is zero")

// conversionScale is the fractional precision of conversion results.
const conversionScale = 4

// RateReader resolves the single exchange rate a conversion is based on.
type RateReader interface {
	GetRate(ctx context.Context, date time.Time, code string) (*models.Currency, error)
}

// ConversionHistoryWriter records performed conversions.
type ConversionHistoryWriter interface {
	Save(ctx context.Context, h models.ConversionHistory) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// ConversionService converts between manat and a quoted currency using the
// day's cached rate, and records every conversion.
type ConversionService struct {
	rates       RateReader
	history     ConversionHistoryWriter
	kafkaWriter KafkaWriter
}

// NewConversionService creates a new ConversionService.
func NewConversionService(rates RateReader, history ConversionHistoryWriter, kafkaWriter KafkaWriter) *ConversionService {
	return &ConversionService{
		rates:       rates,
		history:     history,
		kafkaWriter: kafkaWriter,
	}
}

// ToManat converts an amount of the quoted currency into manat:
// amount × rate, rounded half-up to 4 places.
func (s *ConversionService) ToManat(ctx context.Context, date time.Time, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	record, err := s.rates.GetRate(ctx, date, code)
	if err != nil {
		return decimal.Zero, err
	}

	result := amount.Mul(record.Rate).Round(conversionScale)
	s.record(ctx, models.ConversionToManat, date, record.Code, amount, record.Rate, result)
	return result, nil
}

// FromManat converts a manat amount into the quoted currency:
// amount ÷ rate, rounded half-up to 4 places. A zero rate fails.
func (s *ConversionService) FromManat(ctx context.Context, date time.Time, code string, amount decimal.Decimal) (decimal.Decimal, error) {
	record, err := s.rates.GetRate(ctx, date, code)
	if err != nil {
		return decimal.Zero, err
	}
	if record.Rate.IsZero() {
		return decimal.Zero, ErrZeroRate
	}

	result := amount.DivRound(record.Rate, conversionScale)
	s.record(ctx, models.ConversionFromManat, date, record.Code, amount, record.Rate, result)
	return result, nil
}

// record persists the conversion and publishes it to Kafka. Both are
// best-effort: a failure is logged and the conversion result still stands.
func (s *ConversionService) record(ctx context.Context, convType string, date time.Time, code string, amount, rate, result decimal.Decimal) {
	h := models.ConversionHistory{
		ID:       uuid.New(),
		Type:     convType,
		Date:     date,
		Currency: code,
		Amount:   amount,
		Rate:     rate,
		Result:   result,
	}

	if err := s.history.Save(ctx, h); err != nil {
		logger.Log.Errorw("conversion history save failed", "conversion_id", h.ID, "error", err)
	}

	s.publishConversion(ctx, h)
}

// publishConversion publishes a conversion event to Kafka.
func (s *ConversionService) publishConversion(ctx context.Context, h models.ConversionHistory) {
	if s.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "conversion_id", h.ID)
		return
	}

	payload, err := json.Marshal(h)
	if err != nil {
		logger.Log.Errorw("conversion event marshal failed", "conversion_id", h.ID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(h.Currency),
		Value: payload,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("conversion event publish failed", "conversion_id", h.ID, "error", err)
		return
	}

	logger.Log.Infow("conversion event published", "conversion_id", h.ID, "type", h.Type)
}

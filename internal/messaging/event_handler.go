package messaging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
	"github.com/ledgerwatch/btc-sanctions/internal/screener"
)

// EventHandler drives the Transaction Screener from TransactionSubmitted
// events and publishes the resulting ScreeningCompleted / SanctionsHit
// events.
type EventHandler struct {
	transactions *screener.TransactionScreener
	producer     *KafkaProducer
	topics       KafkaTopicsConfig
	logger       *zap.Logger
}

// NewEventHandler builds an EventHandler.
func NewEventHandler(transactions *screener.TransactionScreener, producer *KafkaProducer, topics KafkaTopicsConfig, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		transactions: transactions,
		producer:     producer,
		topics:       topics,
		logger:       logger,
	}
}

// HandleTransaction screens a submitted transaction and publishes the
// outcome.
func (h *EventHandler) HandleTransaction(ctx context.Context, event TransactionSubmittedEvent) error {
	if event.TxHash == "" {
		return fmt.Errorf("transaction-submitted event missing txHash")
	}
	direction := event.Direction
	if direction == "" {
		direction = domain.DirectionBoth
	}

	h.logger.Info("processing transaction-submitted event",
		zap.String("txHash", event.TxHash), zap.String("correlationId", event.CorrelationID))

	result, err := h.transactions.Screen(ctx, event.TxHash, direction, false, event.CorrelationID)
	if err != nil {
		return fmt.Errorf("screen transaction %s: %w", event.TxHash, err)
	}

	h.logger.Info("screening completed",
		zap.String("txHash", event.TxHash),
		zap.Int("overallRiskScore", result.OverallRiskScore),
		zap.String("overallRiskLevel", string(result.OverallRiskLevel)),
		zap.Int("matches", len(result.SanctionMatches)))

	if h.producer != nil {
		if perr := h.producer.Send(ctx, h.topics.ScreeningCompleted, result.TxHash, h.completedEvent(result)); perr != nil {
			h.logger.Error("publish screening-completed failed", zap.Error(perr))
		}
		if len(result.SanctionMatches) > 0 {
			if perr := h.producer.Send(ctx, h.topics.SanctionsHit, result.TxHash, h.hitEvent(result)); perr != nil {
				h.logger.Error("publish sanctions-hit failed", zap.Error(perr))
			}
		}
	}

	return nil
}

// ScreeningCompletedEvent is published after every transaction screen.
type ScreeningCompletedEvent struct {
	TxHash           string           `json:"txHash"`
	OverallRiskScore int              `json:"overallRiskScore"`
	OverallRiskLevel domain.RiskLevel `json:"overallRiskLevel"`
	Confidence       int              `json:"confidence"`
	MatchCount       int              `json:"matchCount"`
}

func (h *EventHandler) completedEvent(result domain.TxScreeningResult) ScreeningCompletedEvent {
	return ScreeningCompletedEvent{
		TxHash:           result.TxHash,
		OverallRiskScore: result.OverallRiskScore,
		OverallRiskLevel: result.OverallRiskLevel,
		Confidence:       result.Confidence,
		MatchCount:       len(result.SanctionMatches),
	}
}

// SanctionsHitEvent is published whenever a transaction screen surfaces
// at least one direct or indirect sanction match.
type SanctionsHitEvent struct {
	TxHash  string                 `json:"txHash"`
	Matches []domain.SanctionMatch `json:"matches"`
}

func (h *EventHandler) hitEvent(result domain.TxScreeningResult) SanctionsHitEvent {
	return SanctionsHitEvent{TxHash: result.TxHash, Matches: result.SanctionMatches}
}

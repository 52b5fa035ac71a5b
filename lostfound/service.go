// Package lostfound files lost/found reports and, for every found report,
// looks up the lost reports it resembles and tells their reporters.
package lostfound

import (
	"context"
	"fmt"
	"time"

	"campuslink/matching"
	"campuslink/metrics"
	"campuslink/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemStore is the part of the repository the service needs.
type ItemStore interface {
	CreateItem(ctx context.Context, it *models.LostFoundItem) error
	ListItemsByType(ctx context.Context, t models.ItemType) ([]models.LostFoundItem, error)
}

// MatchResult is what a submission returns. It is never stored.
type MatchResult struct {
	Item         *models.LostFoundItem  `json:"item"`
	MatchedItems []models.LostFoundItem `json:"matchedItems"`
}

type Service struct {
	store      ItemStore
	policy     matching.Policy
	dispatcher *Dispatcher
	log        *zap.Logger
}

func NewService(store ItemStore, policy matching.Policy, dispatcher *Dispatcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, policy: policy, dispatcher: dispatcher, log: log}
}

// NewReport is a validated submission.
type NewReport struct {
	Type           models.ItemType
	Item           string
	Category       string
	Description    string
	Location       string
	ImageURL       string
	GeminiAnalysis string
	ReporterID     string
}

// Report saves the submission and, for a found item, scans for matching lost
// items. Only a failed save is returned as an error.
func (s *Service) Report(ctx context.Context, in NewReport) (*MatchResult, error) {
	it := &models.LostFoundItem{
		ID:             uuid.NewString(),
		Type:           in.Type,
		Item:           in.Item,
		Category:       in.Category,
		Description:    in.Description,
		Location:       in.Location,
		ImageURL:       in.ImageURL,
		GeminiAnalysis: in.GeminiAnalysis,
		ReporterID:     in.ReporterID,
	}
	if err := s.store.CreateItem(ctx, it); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}
	return &MatchResult{Item: it, MatchedItems: s.ScanForMatches(ctx, it)}, nil
}

// ScanForMatches evaluates every stored lost item against found, in
// repository order, then notifies the reporter of each match. A lost-type
// argument returns an empty slice without touching the store.
func (s *Service) ScanForMatches(ctx context.Context, found *models.LostFoundItem) []models.LostFoundItem {
	matched := []models.LostFoundItem{}
	if found.Type != models.ItemFound {
		return matched
	}
	start := time.Now()
	defer func() { metrics.ScanDurationSeconds.Observe(time.Since(start).Seconds()) }()

	lostItems, err := s.store.ListItemsByType(ctx, models.ItemLost)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("read_error").Inc()
		s.log.Error("lost item scan aborted",
			zap.String("found_item_id", found.ID),
			zap.Error(err))
		return matched
	}

	matched = s.evaluate(found, lostItems)
	metrics.ScansTotal.WithLabelValues("ok").Inc()
	metrics.CandidatesTotal.Add(float64(len(lostItems)))
	metrics.MatchesTotal.Add(float64(len(matched)))
	s.log.Info("lost item scan finished",
		zap.String("found_item_id", found.ID),
		zap.Int("candidates", len(lostItems)),
		zap.Int("matches", len(matched)))

	if s.dispatcher != nil && len(matched) > 0 {
		s.dispatcher.DispatchAll(ctx, matched, found)
	}
	return matched
}

// evaluate is the pure decision phase.
func (s *Service) evaluate(found *models.LostFoundItem, candidates []models.LostFoundItem) []models.LostFoundItem {
	matched := []models.LostFoundItem{}
	for i := range candidates {
		lost := &candidates[i]
		d := s.policy.Evaluate(found, lost)
		s.log.Debug("candidate scored",
			zap.String("found_item_id", found.ID),
			zap.String("lost_item_id", lost.ID),
			zap.Float64("text_score", d.TextScore),
			zap.Float64("ai_score", d.AIScore),
			zap.Bool("ai_used", d.AIUsed),
			zap.Bool("match", d.Match))
		if d.Match {
			matched = append(matched, *lost)
		}
	}
	return matched
}

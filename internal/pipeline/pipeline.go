// Package pipeline runs one classification request end to end: classify the
// image, apply the confidence threshold and, above it, fetch species facts.
package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Brownie44l1/ecovision/internal/enrich"
	"github.com/Brownie44l1/ecovision/internal/model"
)

const DefaultThreshold = 50.0

type Classifier interface {
	Predict(img image.Image) (*model.Classification, error)
}

type Enricher interface {
	Fetch(ctx context.Context, label string) enrich.Result
}

type Analysis struct {
	RequestID      string                `json:"request_id"`
	Classification *model.Classification `json:"classification"`
	Threshold      float64               `json:"threshold"`
	// Enriched is true when confidence exceeded the threshold and facts were requested.
	Enriched      bool               `json:"enriched"`
	Facts         *enrich.FactRecord `json:"facts,omitempty"`
	FactsFallback bool               `json:"facts_fallback,omitempty"`
	Warning       string             `json:"warning,omitempty"`
}

type Pipeline struct {
	classifier Classifier
	enricher   Enricher
	threshold  float64
	logger     *zap.Logger
}

func New(classifier Classifier, enricher Enricher, threshold float64, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		classifier: classifier,
		enricher:   enricher,
		threshold:  threshold,
		logger:     logger,
	}
}

func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// Analyze classifies img and enriches the result only when the confidence is
// strictly greater than the threshold.
func (p *Pipeline) Analyze(ctx context.Context, img image.Image) (*Analysis, error) {
	requestID := uuid.NewString()
	logger := p.logger.With(zap.String("request_id", requestID))

	classification, err := p.classifier.Predict(img)
	if err != nil {
		logger.Error("classification failed", zap.Error(err))
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	analysis := &Analysis{
		RequestID:      requestID,
		Classification: classification,
		Threshold:      p.threshold,
	}

	if classification.Confidence <= p.threshold {
		analysis.Warning = LowConfidenceWarning(classification.Confidence)
		logger.Info("low confidence, skipping enrichment",
			zap.String("label", classification.Label),
			zap.Float64("confidence", classification.Confidence))
		return analysis, nil
	}

	result := p.enricher.Fetch(ctx, classification.Label)
	analysis.Enriched = true
	analysis.Facts = &result.Record
	analysis.FactsFallback = result.Fallback()

	logger.Info("analyzed image",
		zap.String("label", classification.Label),
		zap.Float64("confidence", classification.Confidence),
		zap.Bool("facts_fallback", analysis.FactsFallback))

	return analysis, nil
}

func LowConfidenceWarning(confidence float64) string {
	return fmt.Sprintf("Low Confidence (%.1f%%). I am not sure what this is. Please try a clearer image.", confidence)
}

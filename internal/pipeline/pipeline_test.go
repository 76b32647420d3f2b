package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Brownie44l1/ecovision/internal/enrich"
	"github.com/Brownie44l1/ecovision/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type stubClassifier struct {
	result *model.Classification
	err    error
}

func (c *stubClassifier) Predict(image.Image) (*model.Classification, error) {
	return c.result, c.err
}

type stubEnricher struct {
	result enrich.Result
	labels []string
}

func (e *stubEnricher) Fetch(_ context.Context, label string) enrich.Result {
	e.labels = append(e.labels, label)
	return e.result
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestAnalyzeThreshold(t *testing.T) {
	facts := enrich.FactRecord{
		CommonName:     "Dog",
		ScientificName: "Canis familiaris",
		FunFacts:       []string{"Dogs can smell fear."},
		GenusMembers:   []string{"Wolf"},
	}

	tests := []struct {
		name       string
		confidence float64
		enriched   bool
	}{
		{"well above", 97.3, true},
		{"just above", 51, true},
		{"fractionally above", 50.0001, true},
		{"exactly at threshold", 50, false},
		{"below", 12.5, false},
		{"zero", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &stubClassifier{result: &model.Classification{Label: "dog", Confidence: tt.confidence}}
			enricher := &stubEnricher{result: enrich.Result{Record: facts}}
			p := New(classifier, enricher, DefaultThreshold, nil)

			analysis, err := p.Analyze(context.Background(), testImage())

			require.NoError(t, err)
			assert.NotEmpty(t, analysis.RequestID)
			assert.Equal(t, "dog", analysis.Classification.Label)
			assert.Equal(t, tt.enriched, analysis.Enriched)
			if tt.enriched {
				assert.Equal(t, []string{"dog"}, enricher.labels)
				require.NotNil(t, analysis.Facts)
				assert.Equal(t, facts, *analysis.Facts)
				assert.Empty(t, analysis.Warning)
			} else {
				assert.Empty(t, enricher.labels)
				assert.Nil(t, analysis.Facts)
				assert.Equal(t, LowConfidenceWarning(tt.confidence), analysis.Warning)
			}
		})
	}
}

func TestAnalyzeShowsFallbackFacts(t *testing.T) {
	classifier := &stubClassifier{result: &model.Classification{Label: "owl", Confidence: 51}}
	enricher := &stubEnricher{result: enrich.Result{
		Record:  enrich.FallbackRecord("owl"),
		Failure: enrich.FailureRequest,
		Err:     errors.New("unavailable"),
	}}

	analysis, err := New(classifier, enricher, DefaultThreshold, nil).Analyze(context.Background(), testImage())

	require.NoError(t, err)
	assert.True(t, analysis.Enriched)
	assert.True(t, analysis.FactsFallback)
	assert.Equal(t, "Unknown", analysis.Facts.ScientificName)
}

func TestAnalyzeClassifierError(t *testing.T) {
	classifier := &stubClassifier{err: model.ErrUnknownClassIndex}
	enricher := &stubEnricher{}

	_, err := New(classifier, enricher, DefaultThreshold, nil).Analyze(context.Background(), testImage())

	assert.ErrorIs(t, err, model.ErrUnknownClassIndex)
	assert.Empty(t, enricher.labels)
}

func TestAnalyzeUniqueRequestIDs(t *testing.T) {
	classifier := &stubClassifier{result: &model.Classification{Label: "cat", Confidence: 10}}
	p := New(classifier, &stubEnricher{}, DefaultThreshold, nil)

	first, err := p.Analyze(context.Background(), testImage())
	require.NoError(t, err)
	second, err := p.Analyze(context.Background(), testImage())
	require.NoError(t, err)

	assert.NotEqual(t, first.RequestID, second.RequestID)
}

func TestLowConfidenceWarning(t *testing.T) {
	assert.Equal(t,
		"Low Confidence (42.4%). I am not sure what this is. Please try a clearer image.",
		LowConfidenceWarning(42.38))
}

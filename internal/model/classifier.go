package model

import (
	"fmt"
	"image"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/Brownie44l1/ecovision/internal/config"
	"github.com/Brownie44l1/ecovision/internal/preprocess"
)

// Classifier pairs a loaded model with its label table. It is built once at
// startup and shared read-only by every request.
type Classifier struct {
	model  Model
	labels *LabelTable
	logger *zap.Logger
}

func NewClassifier(m Model, labels *LabelTable, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{model: m, labels: labels, logger: logger}
}

// Load reads the label table and opens the ONNX model named in cfg. Any
// failure means the process cannot serve requests.
func Load(cfg config.ModelConfig, logger *zap.Logger) (*Classifier, error) {
	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("model artifact unavailable: %w", err)
	}

	m, err := NewONNXModel(ONNXConfig{
		Path:       cfg.Path,
		Library:    cfg.ORTLibrary,
		InputName:  cfg.InputName,
		OutputName: cfg.OutputName,
		NumClasses: labels.Len(),
	})
	if err != nil {
		return nil, err
	}
	return NewClassifier(m, labels, logger), nil
}

func (c *Classifier) Labels() *LabelTable {
	return c.labels
}

// Predict preprocesses img, runs the model and returns the top class.
// Ties go to the lowest index.
func (c *Classifier) Predict(img image.Image) (*Classification, error) {
	input := preprocess.Image(img)

	scores, err := c.model.Forward(input)
	if err != nil {
		return nil, err
	}
	if len(scores) != c.labels.Len() {
		return nil, fmt.Errorf("%w: %d scores for %d labels", ErrClassCountMismatch, len(scores), c.labels.Len())
	}

	maxIdx := 0
	maxVal := scores[0]
	for i, val := range scores {
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	label, err := c.labels.Lookup(maxIdx)
	if err != nil {
		return nil, err
	}

	predictions := make([]ClassScore, len(scores))
	for i, val := range scores {
		name, err := c.labels.Lookup(i)
		if err != nil {
			return nil, err
		}
		predictions[i] = ClassScore{Index: i, Label: name, Score: val}
	}

	result := &Classification{
		Label:      label,
		Confidence: confidence(maxVal),
		Scores:     predictions,
	}

	c.logger.Debug("classified image",
		zap.String("label", result.Label),
		zap.Float64("confidence", result.Confidence),
		zap.Int("class_index", maxIdx))

	return result, nil
}

func (c *Classifier) Close() error {
	return c.model.Close()
}

// confidence scales a score to a percentage within [0, 100]. The product is
// taken in float32 so 0.8 maps to exactly 80.
func confidence(score float32) float64 {
	pct := float64(100 * score)
	switch {
	case math.IsNaN(pct):
		return 0
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

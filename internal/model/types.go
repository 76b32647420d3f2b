package model

import "github.com/Brownie44l1/ecovision/internal/preprocess"

// Model is a pretrained classifier's forward pass. Forward returns one score
// per known class for the single image in the batch.
type Model interface {
	Forward(input preprocess.Tensor) ([]float32, error)
	Close() error
}

type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	// Scores holds the raw model output in class index order.
	Scores []ClassScore `json:"scores,omitempty"`
}

type ClassScore struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Package client defines the transport-neutral contract for vision-model
// backends and the parsing of their face-location answers.
package client

import (
	"context"

	"github.com/menta2k/idphoto/pkg/types"
)

// VisionClient sends an image plus prompt to a vision model.
type VisionClient interface {
	// SimpleQuery returns the model's free-text answer.
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	// LocateFaces asks for JSON face boxes and parses the answer.
	LocateFaces(ctx context.Context, model, prompt, imgB64 string) (*types.FaceAnalysis, error)
}

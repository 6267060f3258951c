package reasoner

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrDisabled is returned by Disabled for every call.
var ErrDisabled = errors.New("reasoner disabled: no API key configured")

// Disabled is a Source for deployments without a reasoning collaborator.
// Every analysis fails immediately, which routes the advisor straight to the
// deterministic fallback.
type Disabled struct{}

func (Disabled) Analyze(context.Context, Request) (json.RawMessage, error) {
	return nil, ErrDisabled
}

package dialog

import (
	"context"
	"errors"

	"github.com/m-mizutani/chronicle/pkg/decoder"
	"github.com/m-mizutani/chronicle/pkg/interfaces"
	"github.com/m-mizutani/chronicle/pkg/model"
	"github.com/m-mizutani/chronicle/pkg/repository"
	"github.com/m-mizutani/chronicle/pkg/utils/logging"
)

const (
	untitledDialog = "Untitled"
	unknownDialog  = "unknown"
)

// UseCase lists dialogs and assembles their transcripts
type UseCase struct {
	repo    repository.Repository
	decoder interfaces.MessageDecoder
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithDecoder replaces the message decoder
func WithDecoder(d interfaces.MessageDecoder) Option {
	return func(uc *UseCase) {
		uc.decoder = d
	}
}

// New creates a new dialog UseCase instance
func New(repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:    repo,
		decoder: decoder.New(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Decoder returns the decoder used for message records
func (uc *UseCase) Decoder() interfaces.MessageDecoder {
	return uc.decoder
}

// unavailable reports whether err means the store cannot be read at all. Such
// errors become empty results.
func unavailable(ctx context.Context, err error) bool {
	if errors.Is(err, model.ErrStoreUnavailable) {
		logging.From(ctx).Debug("store unavailable", "error", err)
		return true
	}
	return false
}

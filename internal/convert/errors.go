package convert

import (
	"errors"

	"github.com/hyperjump/kertas/internal/extract"
	"github.com/hyperjump/kertas/internal/layout"
	"github.com/hyperjump/kertas/internal/models"
)

// FailureKindOf classifies err by the pipeline stage that produced it.
func FailureKindOf(err error) models.FailureKind {
	if err == nil {
		return models.FailureNone
	}
	var (
		containerErr   *extract.ContainerFormatError
		markupErr      *extract.MarkupParseError
		unsupportedErr *extract.UnsupportedFormatError
		renderErr      *layout.RenderError
	)
	switch {
	case errors.As(err, &containerErr):
		return models.FailureContainer
	case errors.As(err, &markupErr):
		return models.FailureMarkup
	case errors.As(err, &unsupportedErr):
		return models.FailureUnsupported
	case errors.As(err, &renderErr):
		return models.FailureLayout
	default:
		return models.FailureInternal
	}
}

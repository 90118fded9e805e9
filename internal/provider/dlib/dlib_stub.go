//go:build !dlib

package dlib

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/imaging"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/provider"
)

const Available = false

var ErrUnavailable = errors.New("binary built without dlib support (rebuild with -tags dlib)")

type Provider struct{}

func New(string) (*Provider, error) {
	return nil, ErrUnavailable
}

func (p *Provider) Name() string { return "dlib" }

func (p *Provider) Extract(context.Context, *imaging.Image) ([]provider.Detection, error) {
	return nil, ErrUnavailable
}

func (p *Provider) CountFaces(context.Context, *imaging.Image) (int, error) {
	return 0, ErrUnavailable
}

func (p *Provider) Close() error { return nil }

var _ provider.Extractor = (*Provider)(nil)

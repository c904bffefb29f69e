package clouds

import (
	"context"
)

type ImageRegistry interface {
	GetImageRef() (string, error)
}

type ServiceDeployer interface {
	DeployServiceFromImage(ctx context.Context, registry ImageRegistry) error
}

// StaticImageRef is an image reference that needs no registry lookup.
type StaticImageRef string

func (r StaticImageRef) GetImageRef() (string, error) {
	return string(r), nil
}

package services

import (
	"faro/builder/renderer"
)

// renderService exposes the renderer through the RenderService
// interface. The method sets line up exactly, so embedding does the
// delegation.
type renderService struct {
	*renderer.Renderer
}

func NewRenderService(r *renderer.Renderer) RenderService {
	return &renderService{Renderer: r}
}

package mocks

import (
	"maps"
	"sync"

	"faro/builder/models"
)

// MockRenderService is an in-memory stand-in for services.RenderService.
// Every page lands in Rendered keyed by output path, whatever its kind;
// CallCount says which interface method put it there.
type MockRenderService struct {
	mu sync.Mutex

	Rendered   map[string]models.PageData
	Registered map[string]bool
	AssetMap   map[string]string
	CallCount  map[string]int
}

func NewMockRenderService() *MockRenderService {
	return &MockRenderService{
		Rendered:   map[string]models.PageData{},
		Registered: map[string]bool{},
		AssetMap:   map[string]string{},
		CallCount:  map[string]int{},
	}
}

// record captures one page the way the real renderer would: stored
// under its path and registered as a written file.
func (m *MockRenderService) record(method, path string, data models.PageData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount[method]++
	m.Rendered[path] = data
	m.Registered[path] = true
}

func (m *MockRenderService) RenderPost(path string, data models.PageData) {
	m.record("RenderPost", path, data)
}

func (m *MockRenderService) RenderList(path string, data models.PageData) {
	m.record("RenderList", path, data)
}

func (m *MockRenderService) RenderArchive(path string, data models.PageData) {
	m.record("RenderArchive", path, data)
}

func (m *MockRenderService) RenderIndex(path string, data models.PageData) {
	m.record("RenderIndex", path, data)
}

func (m *MockRenderService) Render404(path string, data models.PageData) {
	m.record("Render404", path, data)
}

func (m *MockRenderService) RegisterFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["RegisterFile"]++
	m.Registered[path] = true
}

func (m *MockRenderService) SetAssets(assets map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["SetAssets"]++
	m.AssetMap = assets
}

func (m *MockRenderService) Assets() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["Assets"]++
	return m.AssetMap
}

// RenderedFiles hands back a copy so callers can range while the
// mock keeps taking writes.
func (m *MockRenderService) RenderedFiles() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["RenderedFiles"]++
	return maps.Clone(m.Registered)
}

func (m *MockRenderService) ClearRenderedFiles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount["ClearRenderedFiles"]++
	m.Registered = map[string]bool{}
}

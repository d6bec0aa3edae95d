package memory

import (
	"sync"

	"github.com/artpar/confsync/domain/value"
	"github.com/artpar/confsync/ports"
)

// View is an in-memory implementation of ports.View.
type View struct {
	mu       sync.RWMutex
	values   value.Map
	replaced int
}

// NewView creates an empty view.
func NewView() *View {
	return &View{values: value.Map{}}
}

// Replace discards the current contents and installs values.
func (v *View) Replace(values value.Map) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.values = values.Clone()
	v.replaced++
}

// Values returns a copy of the current contents.
func (v *View) Values() value.Map {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values.Clone()
}

// Replacements returns how many times Replace was called (for testing).
func (v *View) Replacements() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.replaced
}

// Ensure interface compliance.
var _ ports.View = (*View)(nil)

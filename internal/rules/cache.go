package rules

import (
	"sync"

	"github.com/sthwalo/acc/internal/model"
)

// Cache holds loaded rule sets per company. It is an explicit,
// injectable component: every rule mutation invalidates the owning
// company's slot, and nothing else reads the database between
// invalidations.
type Cache struct {
	mu        sync.Mutex
	byCompany map[string][]model.Rule
}

// NewCache creates an empty rule cache.
func NewCache() *Cache {
	return &Cache{byCompany: make(map[string][]model.Rule)}
}

func (c *Cache) get(companyID string) ([]model.Rule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rules, ok := c.byCompany[companyID]
	return rules, ok
}

func (c *Cache) put(companyID string, rules []model.Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCompany[companyID] = rules
}

// Invalidate drops the cached rule set for one company.
func (c *Cache) Invalidate(companyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byCompany, companyID)
}

package plancatalog

import (
	"errors"
	"sync"

	"github.com/StoreKeel/StoreKeel/app/models"
	"github.com/StoreKeel/StoreKeel/app/repository"
)

// ErrPlanNotFound marks lookups that miss the loaded catalogue.
var ErrPlanNotFound = errors.New("plancatalog: plan not found")

// snapshot is one immutable view of the plan catalogue. It is replaced
// wholesale on reload and never mutated in place, so lists handed out earlier
// stay valid.
type snapshot struct {
	plans  []models.Plan
	byID   map[int64]*models.Plan
	byName map[string]*models.Plan
}

// Catalog is the process-wide read-through cache of the plan catalogue.
// The first read loads the whole plan table with its option definitions;
// afterwards every lookup is answered from the in-memory snapshot until an
// explicit Reload.
type Catalog struct {
	repo repository.PlanRepository

	mu   sync.RWMutex
	snap *snapshot
}

// New creates a catalog cache over the given plan repository.
func New(repo repository.PlanRepository) *Catalog {
	return &Catalog{repo: repo}
}

// GetAll returns the catalogue in display order. Dev plans are filtered out
// unless includeDev is set. The returned slice is a copy.
func (c *Catalog) GetAll(includeDev bool) ([]models.Plan, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}

	out := make([]models.Plan, 0, len(snap.plans))
	for i := range snap.plans {
		if snap.plans[i].IsDev && !includeDev {
			continue
		}
		out = append(out, clonePlan(&snap.plans[i]))
	}
	return out, nil
}

// clonePlan copies a plan including its definitions slice, so callers can
// mutate the result without reaching back into the live snapshot.
func clonePlan(p *models.Plan) models.Plan {
	cp := *p
	cp.Definitions = append([]models.PlanDefinition(nil), p.Definitions...)
	return cp
}

// GetByID resolves a plan from the snapshot; it never hits the store.
func (c *Catalog) GetByID(id int64) (*models.Plan, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	p, ok := snap.byID[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := clonePlan(p)
	return &cp, nil
}

// GetByName resolves a plan by its unique name from the snapshot.
func (c *Catalog) GetByName(name string) (*models.Plan, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	p, ok := snap.byName[name]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := clonePlan(p)
	return &cp, nil
}

// GetDefinition resolves a plan option by (plan id, option name). Option
// names compare case-sensitively.
func (c *Catalog) GetDefinition(planID int64, optionName string) (*models.PlanDefinition, error) {
	snap, err := c.current()
	if err != nil {
		return nil, err
	}
	p, ok := snap.byID[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	def := p.Definition(optionName)
	if def == nil {
		return nil, ErrPlanNotFound
	}
	cp := *def
	return &cp, nil
}

// GetAvailableUpgrades returns every plan with id strictly greater than
// currentPlanID, after dev filtering, preserving catalogue order.
func (c *Catalog) GetAvailableUpgrades(currentPlanID int64, includeDev bool) ([]models.Plan, error) {
	all, err := c.GetAll(includeDev)
	if err != nil {
		return nil, err
	}

	out := make([]models.Plan, 0, len(all))
	for _, p := range all {
		if p.ID > currentPlanID {
			out = append(out, p)
		}
	}
	return out, nil
}

// CanUpgrade reports whether at least one upgrade target exists.
func (c *Catalog) CanUpgrade(currentPlanID int64, includeDev bool) (bool, error) {
	upgrades, err := c.GetAvailableUpgrades(currentPlanID, includeDev)
	if err != nil {
		return false, err
	}
	return len(upgrades) > 0, nil
}

// Reload forces a fresh read from the plan table and atomically replaces the
// snapshot. A load failure leaves the previous snapshot in place.
func (c *Catalog) Reload() error {
	snap, err := c.load()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
	return nil
}

// current returns the live snapshot, loading it on first use. A miss during
// the initial load propagates the store error.
func (c *Catalog) current() (*snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		return c.snap, nil
	}
	snap, err := c.load()
	if err != nil {
		return nil, err
	}
	c.snap = snap
	return snap, nil
}

func (c *Catalog) load() (*snapshot, error) {
	plans, err := c.repo.GetAll()
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		plans:  plans,
		byID:   make(map[int64]*models.Plan, len(plans)),
		byName: make(map[string]*models.Plan, len(plans)),
	}
	for i := range plans {
		snap.byID[plans[i].ID] = &plans[i]
		snap.byName[plans[i].Name] = &plans[i]
	}
	return snap, nil
}

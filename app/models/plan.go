package models

import "time"

// Plan is a priced subscription tier. Plan ids are totally ordered by
// upgradability: any plan with a strictly higher id is a valid upgrade target.
// A dev plan bypasses that ordering entirely and is only offered to admins
// calling from a privileged IP.
type Plan struct {
	ID           int64            `gorm:"primaryKey" json:"id"`
	Name         string           `gorm:"uniqueIndex;type:varchar(100);not null" json:"name"`
	Price        float64          `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	TrialDays    int              `gorm:"not null;default:0" json:"trial_days"`
	IsActive     bool             `gorm:"default:true;index" json:"is_active"`
	IsDev        bool             `gorm:"default:false" json:"is_dev"`
	IsTest       bool             `gorm:"default:false" json:"is_test"`
	DisplayOrder int              `gorm:"not null;default:0;index" json:"display_order"`
	Definitions  []PlanDefinition `gorm:"foreignKey:PlanID" json:"definitions,omitempty"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// Definition returns the option with the given name, or nil when the plan
// does not define it. Option names match case-sensitively.
func (p *Plan) Definition(name string) *PlanDefinition {
	for i := range p.Definitions {
		if p.Definitions[i].Name == name {
			return &p.Definitions[i]
		}
	}
	return nil
}

// PlanDefinition is a named option/value pair scoped to a plan, loaded
// eagerly with its plan.
type PlanDefinition struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlanID    int64     `gorm:"not null;index:ux_plan_definitions_plan_name,unique,priority:1" json:"plan_id"`
	Name      string    `gorm:"type:varchar(100);not null;index:ux_plan_definitions_plan_name,unique,priority:2" json:"name"`
	Value     string    `gorm:"type:varchar(255);not null;default:''" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

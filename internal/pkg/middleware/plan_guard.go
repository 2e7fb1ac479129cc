package middleware

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/StoreKeel/StoreKeel/internal/pkg/constants"
	"github.com/StoreKeel/StoreKeel/internal/pkg/plancatalog"
)

// RequirePlan gates a route on the caller holding exactly the required plan
// and, when optionName is non-empty, on that plan defining the option with a
// byte-equal value. A tenant on a dev plan passes unconditionally.
//
// Outcomes follow the guard taxonomy: a missing or unknown plan id is a
// fault and propagates as an error; a plan/option mismatch is a redirect to
// the plan-not-allowed page, never an error.
func RequirePlan(requiredPlanID int64, optionName, optionValue string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps := getGuardDeps()

		tenant, err := deps.TenantCache.GetLoggedOnTenant(c, false)
		if err != nil {
			return fmt.Errorf("plan guard: resolving tenant: %w", err)
		}
		if tenant == nil {
			return errors.New("plan guard: no tenant signed on")
		}
		if tenant.PlanID == nil {
			return fmt.Errorf("plan guard: tenant %d is not associated with any valid plan", tenant.ID)
		}

		plan, err := deps.Catalog.GetByID(*tenant.PlanID)
		if err != nil {
			if errors.Is(err, plancatalog.ErrPlanNotFound) {
				return fmt.Errorf("plan guard: plan id %d not found in loaded plans", *tenant.PlanID)
			}
			return fmt.Errorf("plan guard: loading plan %d: %w", *tenant.PlanID, err)
		}

		// Dev plans bypass every plan requirement.
		if plan.IsDev {
			return c.Next()
		}

		if plan.ID != requiredPlanID {
			return planNotAllowed(c)
		}

		if optionName != "" {
			def, err := deps.Catalog.GetDefinition(requiredPlanID, optionName)
			if err != nil || def.Value != optionValue {
				return planNotAllowed(c)
			}
		}

		return c.Next()
	}
}

func planNotAllowed(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type":    "warning",
		"message": "Your current plan does not allow this feature.",
	}
	return flash.WithWarn(c, fm).Redirect(constants.PathFor(c, constants.RoutePlanNotAllowed))
}

package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/pestiq-backend/internal/model"
)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register validation tag '%s': %v", tag, err)
		}
	}

	// social_provider accepts the identity providers that can sign users in.
	mustRegister("social_provider", func(fl validator.FieldLevel) bool {
		return model.IsSocialProvider(fl.Field().String())
	})
}

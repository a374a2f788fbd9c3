package checkout

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var validate = validator.New()

// Validate reports the first structural problem with the request before it reaches a provider.
func (r SessionRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		violations := map[string]string{}
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				violations[fe.Namespace()] = fe.Tag()
			}
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("invalid payment session request: %d violation(s)", len(violations))).
			WithDetails(map[string]any{"violations": violations})
	}
	return nil
}

package validate

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/spanbridge/go-spanbridge/service/codec"
)

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// WithCustomValidators returns a validator with the bridge's custom validations
// registered.
func WithCustomValidators() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("ss58_address", SS58AddressValidator)
	v.RegisterValidation("account_id", AccountIDValidator)
	return v
}

// SS58AddressValidator validates that a field is a well-formed SS58 address
func SS58AddressValidator(fl validator.FieldLevel) bool {
	_, _, err := codec.DecodeSS58(fl.Field().String())
	return err == nil
}

// AccountIDValidator validates that a field is a well-formed home-ledger account id
func AccountIDValidator(fl validator.FieldLevel) bool {
	account := fl.Field().String()
	return len(account) >= 2 && len(account) <= 64 && accountIDPattern.MatchString(account)
}

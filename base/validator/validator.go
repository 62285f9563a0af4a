package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

const (
	// TagGateId validates collectible identifiers
	TagGateId = "gateid"
	// TagAccountId validates account identifiers
	TagAccountId = "accountid"

	maxGateIdLen    = 32
	minAccountIdLen = 2
	maxAccountIdLen = 64
)

var accountIdPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// IsValidGateId reports whether id is 1 to 32 characters of [A-Za-z0-9_-]
func IsValidGateId(id string) bool {
	if len(id) == 0 || len(id) > maxGateIdLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// IsValidAccountId reports whether id is a well-formed account name, e.g. alice.near
func IsValidAccountId(id string) bool {
	if len(id) < minAccountIdLen || len(id) > maxAccountIdLen {
		return false
	}
	return accountIdPattern.MatchString(id)
}

// New returns a validator with the custom tags registered
func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(TagGateId, func(fl validator.FieldLevel) bool {
		return IsValidGateId(fl.Field().String())
	})
	_ = v.RegisterValidation(TagAccountId, func(fl validator.FieldLevel) bool {
		return IsValidAccountId(fl.Field().String())
	})
	return v
}

func NewCustomValidator(v *validator.Validate) echo.Validator {
	return &CustomValidator{v}
}

type CustomValidator struct {
	validator *validator.Validate
}

func (v *CustomValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

package desired

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// userMacro matches {$NAME} and {$NAME:"context"}.
var userMacro = regexp.MustCompile(`^\{\$[A-Z0-9_.]+(:.+)?\}$`)

// Validator checks a decoded File against its struct tags plus the rules
// tags cannot express.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report yaml names ("hosts[0].interface.ip") instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("usermacro", func(fl validator.FieldLevel) bool {
		return userMacro.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(validateHost, HostSpec{})

	return &Validator{v: v}
}

// validateHost requires an address for present hosts reached by IP.
func validateHost(sl validator.StructLevel) {
	h := sl.Current().Interface().(HostSpec)
	if h.Ensure == "absent" {
		return
	}
	useIP := h.Interface.UseIP == nil || *h.Interface.UseIP
	if useIP && h.Interface.IP == "" {
		sl.ReportError(h.Interface.IP, "interface.ip", "IP", "required_with_useip", "")
	}
}

// Validate returns nil or an error listing every violation.
func (v *Validator) Validate(f File) error {
	err := v.v.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid desired hosts file: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid desired hosts file: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "File.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_unless":
		return field + " is required for present hosts"
	case "required_with_useip":
		return field + " is required when useIP is true"
	case "unique":
		return field + " contains duplicates"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"min": ">=", "max": "<="}[fe.Tag()], fe.Param())
	case "usermacro":
		return fmt.Sprintf("%s: %q is not a user macro like {$NAME}", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

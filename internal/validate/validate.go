package validate

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reKey   = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)
	reRole  = regexp.MustCompile(`^(buyer|seller|admin)$`)
)

// Email trims and lower-cases s, the canonical form used for storage and comparison.
func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a resource identifier (product/category/booking/user ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Key validates an idempotency key or processor transaction id.
func Key(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reKey.MatchString(s)
}

func Role(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reRole.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return "", false
	}
	return s, true
}

// Price parses a non-negative decimal amount.
func Price(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// report json names, not Go field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return v
}

// Struct runs the `validate` tags on a request body and returns a short, client-safe message
// naming the first offending field.
func Struct(s any) (string, bool) {
	err := instance().Struct(s)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if ve, ok := err.(validator.ValidationErrors); ok {
		verrs = ve
	}
	if len(verrs) == 0 {
		return "invalid body", false
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required", false
	case "email":
		return fe.Field() + " must be an email", false
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param(), false
	default:
		return fe.Field() + " is invalid", false
	}
}

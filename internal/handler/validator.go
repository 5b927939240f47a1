package handler

import (
    "reflect"
    "regexp"
    "strings"
    "unicode"

    "github.com/go-playground/validator/v10"

    "github.com/iliyamo/photo-platform/internal/service"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)

var reservedUsernames = map[string]bool{
    "admin": true, "administrator": true, "root": true, "system": true, "api": true, "auth": true,
    "user": true, "guest": true, "public": true, "private": true, "test": true, "demo": true,
    "support": true, "help": true, "info": true, "contact": true, "webmaster": true,
    "moderator": true, "mod": true, "staff": true, "team": true,
}

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// Validator is echo's request validator. Field names in errors are the
// JSON names.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" || name == "" {
            return f.Name
        }
        return name
    })
    _ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
        return ValidUsername(fl.Field().String())
    })
    _ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
        return StrongPassword(fl.Field().String())
    })
    return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
    if err := cv.v.Struct(i); err != nil {
        return service.ValidationError(err)
    }
    return nil
}

// ValidUsername: 3-30 letters, digits or underscores, not reserved.
func ValidUsername(s string) bool {
    return usernamePattern.MatchString(s) && !reservedUsernames[strings.ToLower(s)]
}

// StrongPassword requires 8+ characters with an upper case letter, a lower
// case letter, a digit and one of passwordSpecials.
func StrongPassword(s string) bool {
    if len(s) < 8 {
        return false
    }
    var upper, lower, digit, special bool
    for _, r := range s {
        switch {
        case unicode.IsUpper(r):
            upper = true
        case unicode.IsLower(r):
            lower = true
        case unicode.IsDigit(r):
            digit = true
        case strings.ContainsRune(passwordSpecials, r):
            special = true
        }
    }
    return upper && lower && digit && special
}

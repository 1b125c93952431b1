package handler

import (
    "fmt"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate reports every failing field in one message, using the json
// field names clients send.
func (rv *RequestValidator) Validate(i interface{}) error {
    err := rv.v.Struct(i)
    if err == nil {
        return nil
    }
    verrs, ok := err.(validator.ValidationErrors)
    if !ok {
        return err
    }
    msgs := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        msgs = append(msgs, fmt.Sprintf("%s failed on %s", jsonName(fe.Field()), fe.Tag()))
    }
    return fmt.Errorf("validation: %s", strings.Join(msgs, ", "))
}

func jsonName(field string) string {
    if field == "" {
        return field
    }
    return strings.ToLower(field[:1]) + field[1:]
}

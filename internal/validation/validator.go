// Package validation wraps go-playground/validator/v10 with the
// OCPP-specific checks hosts run on decoded payloads before handing
// them to the engine or a transport.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator validates decoded OCPP 1.6 payload structs.
type Validator struct {
	validate *validator.Validate
}

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Message }

// FieldErrors is a collection of FieldError, itself an error.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// New builds a Validator with OCPP custom validation tags registered.
func New() *Validator {
	v := validator.New()
	registerCustomValidations(v)
	return &Validator{validate: v}
}

// ValidateStruct validates s against its validate tags, returning a
// FieldErrors on failure.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var out FieldErrors
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			out = append(out, FieldError{
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Value:   fmt.Sprintf("%v", fe.Value()),
				Message: describe(fe),
			})
		}
		return out
	}
	return err
}

// ValidateFrame checks the envelope-level constraints that apply to
// every inbound or outbound OCPP-J frame, before any payload-specific
// validation runs.
func (v *Validator) ValidateFrame(wireCode int, messageID, action string) error {
	if wireCode < 2 || wireCode > 4 {
		return FieldError{
			Field: "messageTypeId", Tag: "range", Value: strconv.Itoa(wireCode),
			Message: "messageTypeId must be 2 (Call), 3 (CallResult), or 4 (CallError)",
		}
	}
	if messageID == "" {
		return FieldError{Field: "messageId", Tag: "required", Message: "messageId is required"}
	}
	if len(messageID) > 36 {
		return FieldError{
			Field: "messageId", Tag: "max", Value: messageID,
			Message: "messageId must not exceed 36 characters",
		}
	}
	if wireCode == 2 && action == "" {
		return FieldError{Field: "action", Tag: "required", Message: "action is required for Call frames"}
	}
	return nil
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("ocpp_datetime", validateDateTime)
	v.RegisterValidation("ocpp_id_token", validateIDToken)
	v.RegisterValidation("ocpp_connector_id", validateConnectorID)
}

func validateDateTime(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

func validateIDToken(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(value) > 0 && len(value) <= 20
}

func validateConnectorID(fl validator.FieldLevel) bool {
	return fl.Field().Int() >= 0
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation %q", fe.Field(), fe.Tag())
	}
}

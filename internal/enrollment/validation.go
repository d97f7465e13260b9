package enrollment

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/classroll/internal/models"
)

const (
	// MinAgeYears is the youngest age accepted for a member.
	MinAgeYears = 5

	// daysPerYear is deliberately not leap-aware: the age threshold is
	// MinAgeYears*365 days before today.
	daysPerYear = 365
)

// MemberInput is the full field set of a member as supplied by a caller.
// Create and update both take a complete MemberInput.
type MemberInput struct {
	Name      string        `json:"name" validate:"min=3,max=80"`
	BirthDate civil.Date    `json:"birth_date" validate:"min_age"`
	Email     *string       `json:"email" validate:"omitempty,email"`
	Status    models.Status `json:"status" validate:"oneof=active inactive"`
	GroupID   *int64        `json:"group_id"`
}

// UnmarshalJSON decodes in, reporting a birth_date that is not a real
// YYYY-MM-DD date as a ValidationError on that field. An empty or null
// birth_date decodes to the zero date and is left to the age rule.
func (in *MemberInput) UnmarshalJSON(data []byte) error {
	type plain MemberInput
	aux := struct {
		*plain
		BirthDate *string `json:"birth_date"`
	}{plain: (*plain)(in)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	in.BirthDate = civil.Date{}
	if aux.BirthDate == nil || *aux.BirthDate == "" {
		return nil
	}
	d, err := civil.ParseDate(*aux.BirthDate)
	if err != nil {
		return &ValidationError{Field: "birth_date", Message: "must be a valid date (YYYY-MM-DD)"}
	}
	in.BirthDate = d
	return nil
}

// GroupInput is the field set of a new group.
type GroupInput struct {
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=1"`
}

// Validator checks inputs against the field rules.
// It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator builds a Validator. now is the clock used for age checks;
// nil means time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), now: now}

	// Report JSON field names so errors line up with the request body.
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// civil.Date is validated through its string form; the zero date maps to "".
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(civil.Date)
		if !ok || d == (civil.Date{}) {
			return ""
		}
		return d.String()
	}, civil.Date{})

	if err := v.validate.RegisterValidation("min_age", v.minAge); err != nil {
		panic(fmt.Sprintf("register min_age: %v", err))
	}
	return v
}

// LatestBirthDate returns the most recent birth date that still passes the
// age rule when evaluated now.
func (v *Validator) LatestBirthDate() civil.Date {
	return civil.DateOf(v.now()).AddDays(-MinAgeYears * daysPerYear)
}

func (v *Validator) minAge(fl validator.FieldLevel) bool {
	d, err := civil.ParseDate(fl.Field().String())
	if err != nil || !d.IsValid() {
		return false
	}
	return !d.After(v.LatestBirthDate())
}

// Member normalizes in and checks every rule. The returned error is
// ValidationErrors listing each failed field.
func (v *Validator) Member(in *MemberInput) error {
	if in.Email != nil && strings.TrimSpace(*in.Email) == "" {
		in.Email = nil
	}
	return v.check(in)
}

// Group normalizes in and checks every rule.
func (v *Validator) Group(in *GroupInput) error {
	in.Name = strings.TrimSpace(in.Name)
	return v.check(in)
}

func (v *Validator) check(in any) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{
			Field:   fe.Field(),
			Message: ruleMessage(fe),
		})
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		return "must be between 3 and 80 characters"
	case "min_age":
		return fmt.Sprintf("member must be at least %d years old", MinAgeYears)
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be %q or %q", models.StatusActive, models.StatusInactive)
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed rule " + fe.Tag()
	}
}

package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name so messages line up with request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ProjectInput is the editable part of a project.
type ProjectInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=4000"`
}

// TaskInput is the full editable part of a task.
type TaskInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required"`
	Content     *string   `json:"content"`
	Status      string    `json:"status" validate:"max=50"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	AssigneeID  *string   `json:"assigneeId"`
}

func (in *TaskInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Status = strings.TrimSpace(in.Status)
	if in.AssigneeID != nil && strings.TrimSpace(*in.AssigneeID) == "" {
		in.AssigneeID = nil
	}
}

func (in *ProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
}

// validateStruct runs the struct tags and flattens failures into a *ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gtefield":
		if fe.Param() == "StartDate" {
			return "must not be before the start date"
		}
		return fmt.Sprintf("must not be before %s", fe.Param())
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

// validateVar checks a single value against tag and reports failures under field.
func validateVar(field string, value interface{}, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return invalidField(field, fieldMessage(verrs[0]))
}

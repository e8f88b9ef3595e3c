// internal/middleware/validation.go
package middleware

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gurkanbulca/projecthub/internal/apperrors"
	"github.com/gurkanbulca/projecthub/internal/models"
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MaxNameLength     int
	MaxTitleLength    int
	MaxAssigneeLength int
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxNameLength:     255,
		MaxTitleLength:    255,
		MaxAssigneeLength: 100,
	}
}

// Validator checks request payloads before they reach the service layer.
// Every failure is reported as a Validation error listing all problems.
type Validator struct {
	config *ValidationConfig
}

func NewValidator(config *ValidationConfig) *Validator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &Validator{config: config}
}

func (v *Validator) ValidateProjectCreate(req *models.ProjectCreate) error {
	var errors []string

	if err := v.validateLength("name", req.Name, v.config.MaxNameLength); err != nil {
		errors = append(errors, err.Error())
	}
	// An omitted status defaults to planning.
	if req.Status != "" && !req.Status.Valid() {
		errors = append(errors, invalidEnum("status", string(req.Status), projectStatusNames()))
	}

	return joined(errors)
}

func (v *Validator) ValidateProjectUpdate(req *models.ProjectUpdate) error {
	var errors []string

	if req.Name.IsNull() {
		errors = append(errors, "name: may not be null")
	} else if name, ok := req.Name.Value(); ok {
		if err := v.validateLength("name", name, v.config.MaxNameLength); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if req.Status.IsNull() {
		errors = append(errors, "status: may not be null")
	} else if status, ok := req.Status.Value(); ok && !status.Valid() {
		errors = append(errors, invalidEnum("status", string(status), projectStatusNames()))
	}

	return joined(errors)
}

func (v *Validator) ValidateTaskCreate(req *models.TaskCreate) error {
	var errors []string

	if err := v.validateLength("title", req.Title, v.config.MaxTitleLength); err != nil {
		errors = append(errors, err.Error())
	}
	if err := v.validateLength("assignee", req.Assignee, v.config.MaxAssigneeLength); err != nil {
		errors = append(errors, err.Error())
	}
	if req.StartDate.IsZero() {
		errors = append(errors, "start_date: field required")
	}
	if req.EndDate.IsZero() {
		errors = append(errors, "end_date: field required")
	}
	if req.Priority != 0 && !req.Priority.Valid() {
		errors = append(errors, invalidPriority(req.Priority))
	}
	if req.ProjectID <= 0 {
		errors = append(errors, "project_id: must be greater than 0")
	}

	return joined(errors)
}

func (v *Validator) ValidateTaskUpdate(req *models.TaskUpdate) error {
	var errors []string

	for _, f := range []struct {
		name  string
		value models.Optional[string]
		max   int
	}{
		{"title", req.Title, v.config.MaxTitleLength},
		{"assignee", req.Assignee, v.config.MaxAssigneeLength},
	} {
		if f.value.IsNull() {
			errors = append(errors, fmt.Sprintf("%s: may not be null", f.name))
			continue
		}
		if s, ok := f.value.Value(); ok {
			if err := v.validateLength(f.name, s, f.max); err != nil {
				errors = append(errors, err.Error())
			}
		}
	}

	if req.StartDate.IsNull() {
		errors = append(errors, "start_date: may not be null")
	}
	if req.EndDate.IsNull() {
		errors = append(errors, "end_date: may not be null")
	}

	if req.Priority.IsNull() {
		errors = append(errors, "priority: may not be null")
	} else if p, ok := req.Priority.Value(); ok && !p.Valid() {
		errors = append(errors, invalidPriority(p))
	}

	if req.Status.IsNull() {
		errors = append(errors, "status: may not be null")
	} else if s, ok := req.Status.Value(); ok && !s.Valid() {
		errors = append(errors, invalidEnum("status", string(s), taskStatusNames()))
	}

	return joined(errors)
}

// ParseProjectStatus validates a raw status string.
func (v *Validator) ParseProjectStatus(raw string) (models.ProjectStatus, error) {
	s := models.ProjectStatus(raw)
	if !s.Valid() {
		return "", apperrors.Validation("%s", invalidEnum("status", raw, projectStatusNames()))
	}
	return s, nil
}

// ParseTaskStatus validates a raw status string.
func (v *Validator) ParseTaskStatus(raw string) (models.TaskStatus, error) {
	s := models.TaskStatus(raw)
	if !s.Valid() {
		return "", apperrors.Validation("%s", invalidEnum("status", raw, taskStatusNames()))
	}
	return s, nil
}

// Helper validation functions

func (v *Validator) validateLength(field, value string, max int) error {
	n := utf8.RuneCountInString(value)
	if n < 1 {
		return fmt.Errorf("%s: must not be empty", field)
	}
	if n > max {
		return fmt.Errorf("%s: too long (max %d characters)", field, max)
	}
	return nil
}

func invalidEnum(field, got string, allowed []string) string {
	if got == "" {
		return fmt.Sprintf("%s: field required", field)
	}
	return fmt.Sprintf("%s: %q is not one of %s", field, got, strings.Join(allowed, ", "))
}

func invalidPriority(p models.TaskPriority) string {
	return fmt.Sprintf("priority: %d is out of range (%d-%d)", int(p), int(models.PriorityLow), int(models.PriorityCritical))
}

func projectStatusNames() []string {
	var out []string
	for _, s := range models.ProjectStatuses() {
		out = append(out, string(s))
	}
	return out
}

func taskStatusNames() []string {
	var out []string
	for _, s := range models.TaskStatuses() {
		out = append(out, string(s))
	}
	return out
}

func joined(errors []string) error {
	if len(errors) == 0 {
		return nil
	}
	return apperrors.Validation("%s", strings.Join(errors, "; "))
}

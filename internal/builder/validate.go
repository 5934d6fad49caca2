package builder

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"alcyxob/coaching-app/internal/domain"

	"github.com/go-playground/validator/v10"
)

// FieldError names one problem that blocks publishing.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found, not just the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the error names the given field.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Add records a problem.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// OrNil returns nil when no problems were recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names ("title") rather than Go field names ("Title").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateForPublish checks everything a program needs before it can be
// published. The returned error, when non-nil, is a *ValidationError.
func ValidateForPublish(p domain.Program) error {
	verr := &ValidationError{}

	p.Title = strings.TrimSpace(p.Title)
	if err := validate.Struct(p); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		for _, fe := range fieldErrs {
			switch fe.Tag() {
			case "required":
				verr.Add(fe.Field(), "is required")
			case "oneof":
				verr.Add(fe.Field(), "must be one of: %s", fe.Param())
			default:
				verr.Add(fe.Field(), "failed %s check", fe.Tag())
			}
		}
	}

	if len(p.Weeks) == 0 {
		verr.Add("weeks", "at least one week is required")
	}
	for wi, w := range p.Weeks {
		wf := fmt.Sprintf("weeks[%d]", wi)
		if len(w.Days) == 0 {
			verr.Add(wf+".days", "at least one day is required")
		}
		if len(w.Days) > domain.MaxDaysPerWeek {
			verr.Add(wf+".days", "at most %d days are allowed", domain.MaxDaysPerWeek)
		}
		for di, d := range w.Days {
			for bi, b := range d.Blocks {
				validateBlock(verr, fmt.Sprintf("%s.days[%d].blocks[%d]", wf, di, bi), b)
			}
		}
	}
	return verr.OrNil()
}

func validateBlock(verr *ValidationError, field string, b domain.ContentBlock) {
	pl := b.Payload
	switch b.Type {
	case domain.BlockText, domain.BlockProTip:
		if strings.TrimSpace(pl.Text) == "" {
			verr.Add(field+".payload.text", "is required")
		}
	case domain.BlockImage, domain.BlockVideo, domain.BlockLink:
		if !absoluteURL(pl.URL) {
			verr.Add(field+".payload.url", "must be an absolute http(s) URL")
		}
	case domain.BlockExerciseRef:
		if pl.RefID == "" {
			verr.Add(field+".payload.refId", "is required")
		}
		if pl.Sets == nil {
			verr.Add(field+".payload.sets", "is required")
		} else {
			for _, msg := range CheckSetConfig(*pl.Sets) {
				verr.Add(field+".payload.sets", "%s", msg)
			}
		}
	case domain.BlockRecipeRef:
		if pl.RefID == "" {
			verr.Add(field+".payload.refId", "is required")
		}
	default:
		verr.Add(field+".type", "unknown block type %q", b.Type)
	}
}

// CheckSetConfig returns the problems with an exercise prescription.
func CheckSetConfig(c domain.SetConfig) []string {
	var problems []string
	if c.Sets < 1 {
		problems = append(problems, "sets must be at least 1")
	}
	switch {
	case c.Reps != nil && c.Ranged():
		problems = append(problems, "use either fixed reps or a rep range, not both")
	case c.Reps != nil:
		if *c.Reps < 1 {
			problems = append(problems, "reps must be at least 1")
		}
	case c.Ranged():
		if c.RepsMin == nil || c.RepsMax == nil {
			problems = append(problems, "a rep range needs both repsMin and repsMax")
		} else if *c.RepsMin < 1 || *c.RepsMin > *c.RepsMax {
			problems = append(problems, "rep range must satisfy 1 <= repsMin <= repsMax")
		}
	default:
		problems = append(problems, "reps or a rep range is required")
	}
	return problems
}

func absoluteURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

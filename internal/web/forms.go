package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// LookupForm is the unified lookup page input.
type LookupForm struct {
	Source     string `json:"source" validate:"required,oneof=documents cds"`
	Identifier string `json:"identifier" validate:"required,max=64"`
	LoqateOnly bool   `json:"loqate_only"`
}

// DocumentsForm is the document query page input. Empty IDs lists every
// document up to the configured limit.
type DocumentsForm struct {
	IDs        string `validate:"max=8192"`
	LoqateOnly bool
}

// CDSForm is the CDS lookup page input.
type CDSForm struct {
	Identifier string `validate:"required,max=64"`
}

// BatchRequest is the JSON body of POST /api/v1/batch.
type BatchRequest struct {
	Identifiers []string `json:"identifiers" validate:"required,min=1,max=500,dive,max=64"`
	LoqateOnly  bool     `json:"loqate_only"`
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// checkbox reports whether an HTML checkbox was ticked.
func checkbox(r *http.Request, name string) bool {
	switch strings.ToLower(r.PostFormValue(name)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

func parseLookupForm(r *http.Request) LookupForm {
	return LookupForm{
		Source:     strings.TrimSpace(r.PostFormValue("source")),
		Identifier: strings.TrimSpace(r.PostFormValue("identifier")),
		LoqateOnly: checkbox(r, "loqate_filter"),
	}
}

func parseDocumentsForm(r *http.Request) DocumentsForm {
	return DocumentsForm{
		IDs:        r.PostFormValue("ids"),
		LoqateOnly: checkbox(r, "loqate_filter"),
	}
}

func parseCDSForm(r *http.Request) CDSForm {
	return CDSForm{Identifier: strings.TrimSpace(r.PostFormValue("identifier"))}
}

// validationMessage turns validator errors into one user-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid input."
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "min":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, field+" is too long")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return "Invalid input: " + strings.Join(msgs, "; ")
}

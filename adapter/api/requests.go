package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/flowboard/internal/workflow/domain"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateStatusRequest is the body of POST /api/v1/statuses.
type CreateStatusRequest struct {
	Name               string   `json:"name" validate:"required,max=50"`
	Slug               string   `json:"slug" validate:"omitempty,max=60"`
	Color              string   `json:"color" validate:"omitempty,len=7,startswith=#"`
	Icon               string   `json:"icon" validate:"omitempty,max=32"`
	Category           string   `json:"category" validate:"omitempty,oneof=open in_progress closed"`
	Order              *int     `json:"order" validate:"omitempty,min=0"`
	IsDefault          bool     `json:"isDefault"`
	AllowedTransitions []string `json:"allowedTransitions" validate:"omitempty,dive,uuid"`
}

// UpdateStatusRequest is the body of PATCH /api/v1/statuses/{id}. Absent
// fields are left unchanged.
type UpdateStatusRequest struct {
	Name               *string   `json:"name" validate:"omitempty,max=50"`
	Slug               *string   `json:"slug" validate:"omitempty,max=60"`
	Color              *string   `json:"color" validate:"omitempty,len=7,startswith=#"`
	Icon               *string   `json:"icon" validate:"omitempty,max=32"`
	Category           *string   `json:"category" validate:"omitempty,oneof=open in_progress closed"`
	IsDefault          *bool     `json:"isDefault"`
	AllowedTransitions *[]string `json:"allowedTransitions" validate:"omitempty,dive,uuid"`
}

// ReorderRequest is the body of PUT /api/v1/statuses/order.
type ReorderRequest struct {
	OrderedIDs []string `json:"orderedIds" validate:"required,min=1,dive,uuid"`
}

// SetTransitionsRequest is the body of PUT /api/v1/statuses/{id}/transitions.
// An empty list makes the status permissive.
type SetTransitionsRequest struct {
	AllowedTransitions []string `json:"allowedTransitions" validate:"dive,uuid"`
}

// CreateTaskRequest is the body of POST /api/v1/tasks.
type CreateTaskRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	StatusID string `json:"statusId" validate:"omitempty,uuid"`
}

// ChangeTaskStatusRequest is the body of PUT /api/v1/tasks/{id}/status.
type ChangeTaskStatusRequest struct {
	StatusID string `json:"statusId" validate:"required,uuid"`
}

// decodeAndValidate reads a JSON body into v and runs its validation tags.
// It writes the error response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return false
		}
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Code:    domain.CodeValidation,
			Message: "request validation failed",
			Fields:  validationFields(verrs),
		})
		return false
	}
	return true
}

func validationFields(verrs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		msg := fmt.Sprintf("failed %q", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q (%s)", fe.Tag(), fe.Param())
		}
		fields[name] = append(fields[name], msg)
	}
	return fields
}

// pathID parses the named path value as a UUID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// parseIDs converts validated UUID strings.
func parseIDs(raw []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		ids = append(ids, uuid.MustParse(s))
	}
	return ids
}

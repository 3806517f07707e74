package courseimport

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
)

const archiveNameTag = "archivename"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation(archiveNameTag, archiveNameValidation)
	return v
}

// archiveNameValidation accepts a bare file name ending in .zip.
func archiveNameValidation(fl validator.FieldLevel) bool {
	name, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

func validateRequest(req UploadRequest) error {
	const op = "courseimport.upload"
	if req.Body == nil {
		return aggregates.NewError(aggregates.CodeValidation, op, "upload body is required", nil)
	}
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return aggregates.NewError(aggregates.CodeValidation, op, err.Error(), err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return aggregates.NewError(aggregates.CodeValidation, op, strings.Join(parts, "; "), err)
}

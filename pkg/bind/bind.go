// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/grinfood/config"
	"github.com/shashiranjanraj/grinfood/pkg/apperr"
	"github.com/shashiranjanraj/grinfood/pkg/validate"
)

// maxBodyBytes returns the configured request body size limit (default 1 MB).
func maxBodyBytes() int64 {
	n := int64(config.Int("MAX_BODY_BYTES", 1<<20))
	if n <= 0 {
		return 1 << 20
	}
	return n
}

// JSON decodes r.Body as JSON into dest, then validates it. Malformed bodies
// and rule violations both come back as a validation *apperr.Error.
func JSON(r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Newf(apperr.KindValidation, "request body too large (max %d bytes)", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return apperr.New(apperr.KindValidation, "request body is empty")
		case errors.As(err, &typeErr):
			return apperr.Field(typeErr.Field, fmt.Sprintf("The %s field has the wrong type.", typeErr.Field))
		default:
			return apperr.New(apperr.KindValidation, "invalid JSON body")
		}
	}

	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return apperr.Validation(errs)
	}
	return nil
}

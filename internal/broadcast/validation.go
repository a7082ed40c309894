package broadcast

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the field ranges and the auto bitrate bounds.
func (c VideoConfig) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if !c.AutoBitrate {
		return nil
	}
	if c.MinBitrate == 0 || c.MaxBitrate == 0 {
		return errors.New("auto bitrate requires min_bitrate and max_bitrate")
	}
	if c.MinBitrate > c.Bitrate || c.Bitrate > c.MaxBitrate {
		return fmt.Errorf("bitrate %d outside auto bitrate range [%d, %d]", c.Bitrate, c.MinBitrate, c.MaxBitrate)
	}
	return nil
}

// Validate checks the field ranges.
func (c AudioConfig) Validate() error {
	return validateStruct(c)
}

// validateStruct flattens validator errors into one readable error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

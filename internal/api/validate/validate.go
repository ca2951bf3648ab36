// Package validate holds request-field validation helpers shared by the
// HTTP handlers.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

func Email(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(v) > 320 || !emailRx.MatchString(v) {
		return fmt.Errorf("%s is not a valid email address", field)
	}
	return nil
}

// Page validates an optional non-negative page reference.
func Page(page *int) error {
	if page != nil && *page < 0 {
		return fmt.Errorf("page must be >= 0")
	}
	return nil
}

// SendMail validates input for the outbound-mail endpoint.
func SendMail(to, subject string) error {
	if err := Email("to", to); err != nil {
		return err
	}
	if err := NonEmpty("subject", subject); err != nil {
		return err
	}
	return MaxLen("subject", subject, 500)
}

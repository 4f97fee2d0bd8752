package customer

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	"erpcore/internal/core/apperror"
)

// DefaultPhoneRegion is used for numbers written without a country prefix.
const DefaultPhoneRegion = "DZ"

// NormalizePhone validates raw and returns it in E.164 form.
// An empty number stays empty.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if region == "" {
		region = DefaultPhoneRegion
	}

	p, err := libphonenumber.Parse(raw, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return "", apperror.NewValidation("invalid phone number").
			WithDetail("field", "phone").
			WithDetail("value", raw)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

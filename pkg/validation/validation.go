package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/machashop/students-ms/internal/models"
)

// Field rules carried over verbatim from the admin front-end so both sides
// accept exactly the same values.
var (
	nameRe    = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
	phoneRe   = regexp.MustCompile(`^9\d{8}$`)
	yearRe    = regexp.MustCompile(`^\d{4}$`)
	dniRe     = regexp.MustCompile(`^\d{8}$`)
	ceRe      = regexp.MustCompile(`^\d{9,12}$`)
	statusRe  = regexp.MustCompile(`^[AI]$`)
	genderRe  = regexp.MustCompile(`^[MF]$`)
	docTypeRe = regexp.MustCompile(`^(DNI|CE)$`)
)

// New returns a validator with the domain rules registered:
//
//	person_name  letters and spaces only, accented Latin and ñ permitted
//	phone_pe     nine digits, leading 9
//	year4        four-digit year
//	status_ai    "A" or "I"
//	gender_mf    "M" or "F"
//	doc_type     "DNI" or "CE"
func New() *validator.Validate {
	v := validator.New()
	register(v, "person_name", nameRe)
	register(v, "phone_pe", phoneRe)
	register(v, "year4", yearRe)
	register(v, "status_ai", statusRe)
	register(v, "gender_mf", genderRe)
	register(v, "doc_type", docTypeRe)
	return v
}

func register(v *validator.Validate, tag string, re *regexp.Regexp) {
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
}

// DocumentNumberValid checks the number against the rule for its document
// type: exactly 8 digits for DNI, 9 to 12 digits for CE.
func DocumentNumberValid(docType models.DocumentType, number string) bool {
	switch docType {
	case models.DocumentTypeDNI:
		return dniRe.MatchString(number)
	case models.DocumentTypeCE:
		return ceRe.MatchString(number)
	default:
		return false
	}
}

package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"
)

var (
	safeStringRe   = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]+$`)
	hexColorRe     = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	currencyCodeRe = regexp.MustCompile(`^[A-Za-z0-9]{2,10}$`)
)

const solanaPubkeyLen = 32

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidators(v)
	}
}

// RegisterValidators installs the custom tags on v.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("safe_id", validateSafeID)
	_ = v.RegisterValidation("hex_color", validateHexColor)
	_ = v.RegisterValidation("currency_code", validateCurrencyCode)
	_ = v.RegisterValidation("solana_address", validateSolanaAddress)
}

// validateSafeID allows alphanumeric, underscore, dash, and dot.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeStringRe.MatchString(fl.Field().String())
}

// validateHexColor accepts #RRGGBB. The empty string is allowed so that
// partial updates can clear the color.
func validateHexColor(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || hexColorRe.MatchString(s)
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodeRe.MatchString(fl.Field().String())
}

// validateSolanaAddress accepts base58 strings that decode to a 32-byte public key.
func validateSolanaAddress(fl validator.FieldLevel) bool {
	return IsSolanaAddress(fl.Field().String())
}

// IsSolanaAddress reports whether s is a base58-encoded ed25519 public key.
func IsSolanaAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	b, err := base58.Decode(s)
	return err == nil && len(b) == solanaPubkeyLen
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field of a struct pointer, including *string and []string fields.
// Fields tagged `sanitize:"-"` are left alone; `sanitize:"trim"` only trims.
// Free-text domain fields (names, labels, descriptions) are tagged `trim`
// and stored as entered, so reading a record and writing it back is a no-op.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}

		clean := sanitize
		switch rt.Field(i).Tag.Get("sanitize") {
		case "-":
			continue
		case "trim":
			clean = strings.TrimSpace
		}

		switch f.Kind() {
		case reflect.String:
			f.SetString(clean(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			if elem := f.Elem(); elem.Kind() == reflect.String {
				elem.SetString(clean(elem.String()))
			}
		case reflect.Slice:
			if f.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < f.Len(); j++ {
				f.Index(j).SetString(clean(f.Index(j).String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}

package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags
	notBlankTag          = "notblank"
	toleranceTag         = "covers_trigger"
	senderRequiredTag    = "sender_required"
	uniqueClassNameTag   = "unique_class"
	customTranslatedTags = []string{notBlankTag, toleranceTag, senderRequiredTag, uniqueClassNameTag}
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report env var and yaml key names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("envconfig"); name != "" {
			return name
		}
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	validate.RegisterStructValidation(appConfigStructValidation, AppConfig{})
	validate.RegisterStructValidation(classesFileStructValidation, classesFile{})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range customTranslatedTags {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case toleranceTag:
		return "REMINDER_TOLERANCE must be at least TRIGGER_INTERVAL or reminders can fall between two runs"
	case senderRequiredTag:
		return "EMAIL_FROM_ADDRESS is required when SENDGRID_API_KEY is set"
	case uniqueClassNameTag:
		return fmt.Sprintf("class %q is declared more than once", fe.Value())
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func appConfigStructValidation(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(AppConfig)
	if !ok {
		return
	}
	if cfg.ReminderTolerance < cfg.TriggerInterval {
		sl.ReportError(cfg.ReminderTolerance, "REMINDER_TOLERANCE", "ReminderTolerance", toleranceTag, "")
	}
	if cfg.SendGridAPIKey != "" && strings.TrimSpace(cfg.EmailFromAddress) == "" {
		sl.ReportError(cfg.EmailFromAddress, "EMAIL_FROM_ADDRESS", "EmailFromAddress", senderRequiredTag, "")
	}
}

func classesFileStructValidation(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(classesFile)
	if !ok {
		return
	}
	seen := make(map[string]bool, len(f.Classes))
	for _, c := range f.Classes {
		if seen[c.Name] {
			sl.ReportError(c.Name, "classes", "Classes", uniqueClassNameTag, "")
		}
		seen[c.Name] = true
	}
}

// validateStruct runs the validator and flattens its translated messages
// into one error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	messages := make([]string, 0, len(verrs))
	for _, msg := range verrs.Translate(translator) {
		messages = append(messages, msg)
	}
	sort.Strings(messages)
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

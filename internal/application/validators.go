package application

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-humeval/internal/domain"
)

// langPairPattern matches "<src>-<tgt>" with two or three letter codes and
// an optional script or region suffix on the target, e.g. "en-zh_TW".
var langPairPattern = regexp.MustCompile(`^[a-z]{2,3}-[a-z]{2,3}(_[A-Za-z]{2,4})?$`)

// registerCustomValidators registers domain-specific validation functions
// with the validator instance, including semantic version validation
// and language pair validation.
// registerCustomValidators returns an error if any validator registration fails.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := v.RegisterValidation("langpair", validateLangPair); err != nil {
		return fmt.Errorf("failed to register langpair validator: %w", err)
	}

	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
// validateSemver is a validator.Func that can be registered with
// the validator instance for use in struct tags.
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

// validateLangPair validates a "<source>-<target>" language pair string.
func validateLangPair(fl validator.FieldLevel) bool {
	return IsLanguagePair(fl.Field().String())
}

// IsLanguagePair reports whether s is a well-formed language pair.
func IsLanguagePair(s string) bool {
	return langPairPattern.MatchString(s)
}

// ValidateSemantics performs validation rules that cannot be expressed
// through struct tags: at least one judgment source, unique wave paths,
// and no two MQM waves claiming the same file.
// ValidateSemantics collects every violation into a domain.ValidationError.
func ValidateSemantics(cfg *Config) error {
	verr := domain.NewValidationError("config")

	if len(cfg.Inputs.ESAWaves) == 0 && len(cfg.Inputs.MQMWaves) == 0 {
		verr.AddError("inputs: at least one esa_waves or mqm_waves entry is required")
	}

	seen := make(map[string]string)
	for _, path := range cfg.Inputs.ESAWaves {
		clean := filepath.Clean(path)
		if prev, ok := seen[clean]; ok {
			verr.AddError(fmt.Sprintf("inputs: %s listed twice (already used by %s)", path, prev))
			continue
		}
		seen[clean] = "esa_waves"
	}
	for _, wave := range cfg.Inputs.MQMWaves {
		clean := filepath.Clean(wave.Path)
		if prev, ok := seen[clean]; ok {
			verr.AddError(fmt.Sprintf("inputs: %s listed twice (already used by %s)", wave.Path, prev))
			continue
		}
		seen[clean] = "mqm_waves"
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

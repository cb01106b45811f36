package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"movie-recommend-engine/pkg/errors"
)

// ValidationRule represents a validation rule
type ValidationRule func(value interface{}) error

// Validator provides request validation functionality
type Validator struct {
	rules map[string][]ValidationRule
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		rules: make(map[string][]ValidationRule),
	}
}

// AddRule adds a validation rule for a field
func (v *Validator) AddRule(field string, rule ValidationRule) {
	v.rules[field] = append(v.rules[field], rule)
}

// Validate validates a map of values against registered rules
func (v *Validator) Validate(values map[string]interface{}) error {
	var validationErrors []string

	for field, rules := range v.rules {
		value, exists := values[field]
		
		// Check if required field is missing
		if !exists {
			for _, rule := range rules {
				if err := rule(nil); err != nil {
					if strings.Contains(err.Error(), "required") {
						validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", field, err.Error()))
						break
					}
				}
			}
			continue
		}

		// Apply validation rules
		for _, rule := range rules {
			if err := rule(value); err != nil {
				validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", field, err.Error()))
			}
		}
	}

	if len(validationErrors) > 0 {
		// Create a more descriptive error message that includes field names
		mainMessage := fmt.Sprintf("Validation failed for fields: %s", strings.Join(getFieldNames(validationErrors), ", "))
		return errors.NewValidationError(
			mainMessage,
			"multiple_fields",
			map[string]interface{}{
				"validation_errors": validationErrors,
				"error_count":      len(validationErrors),
			},
		)
	}

	return nil
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	
	if val.Kind() != reflect.Struct {
		return errors.NewValidationError("Value must be a struct", "type", val.Kind())
	}

	typ := val.Type()
	var validationErrors []string

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldValue := val.Field(i)
		
		// Check validation tags
		validateTag := field.Tag.Get("validate")
		if validateTag == "" {
			continue
		}

		rules := strings.Split(validateTag, ",")
		for _, rule := range rules {
			rule = strings.TrimSpace(rule)
			if err := v.validateFieldByTag(field.Name, fieldValue.Interface(), rule); err != nil {
				validationErrors = append(validationErrors, err.Error())
			}
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError(
			"Struct validation failed",
			"struct",
			map[string]interface{}{
				"validation_errors": validationErrors,
			},
		)
	}

	return nil
}

// validateFieldByTag validates a field based on a tag rule
func (v *Validator) validateFieldByTag(fieldName string, value interface{}, rule string) error {
	parts := strings.Split(rule, "=")
	ruleName := parts[0]
	var ruleValue string
	if len(parts) > 1 {
		ruleValue = parts[1]
	}

	switch ruleName {
	case "required":
		return Required()(value)
	case "min":
		if minVal, err := strconv.Atoi(ruleValue); err == nil {
			// Check if it's a string/slice (use MinLength) or number (use Min)
			switch value.(type) {
			case string, []interface{}:
				return MinLength(minVal)(value)
			default:
				return Min(float64(minVal))(value)
			}
		}
	case "max":
		if maxVal, err := strconv.Atoi(ruleValue); err == nil {
			// Check if it's a string/slice (use MaxLength) or number (use Max)
			switch value.(type) {
			case string, []interface{}:
				return MaxLength(maxVal)(value)
			default:
				return Max(float64(maxVal))(value)
			}
		}
	case "email":
		return Email()(value)
	case "url":
		return URL()(value)
	case "alpha":
		return Alpha()(value)
	case "numeric":
		return Numeric()(value)
	case "alphanumeric":
		return AlphaNumeric()(value)
	}

	return nil
}

// Common validation rules

// Required validates that a field is not empty
func Required() ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return fmt.Errorf("field is required")
		}

		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("field is required")
			}
		case []interface{}:
			if len(v) == 0 {
				return fmt.Errorf("field is required")
			}
		case map[string]interface{}:
			// For maps, we just check if they exist, not if they're empty
			// Empty maps are valid for capabilities and clientInfo
		}

		return nil
	}
}

// MinLength validates minimum length for strings and slices
func MinLength(min int) ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		var length int
		switch v := value.(type) {
		case string:
			length = len(v)
		case []interface{}:
			length = len(v)
		default:
			return fmt.Errorf("field type does not support length validation")
		}

		if length < min {
			return fmt.Errorf("minimum length is %d, got %d", min, length)
		}

		return nil
	}
}

// MaxLength validates maximum length for strings and slices
func MaxLength(max int) ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		var length int
		switch v := value.(type) {
		case string:
			length = len(v)
		case []interface{}:
			length = len(v)
		default:
			return fmt.Errorf("field type does not support length validation")
		}

		if length > max {
			return fmt.Errorf("maximum length is %d, got %d", max, length)
		}

		return nil
	}
}

// Min validates minimum value for numbers
func Min(min float64) ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		var numValue float64
		var err error

		switch v := value.(type) {
		case int:
			numValue = float64(v)
		case int64:
			numValue = float64(v)
		case float32:
			numValue = float64(v)
		case float64:
			numValue = v
		case string:
			numValue, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("field must be a number")
			}
		default:
			return fmt.Errorf("field must be a number")
		}

		if numValue < min {
			return fmt.Errorf("minimum value is %.2f, got %.2f", min, numValue)
		}

		return nil
	}
}

// Max validates maximum value for numbers
func Max(max float64) ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		var numValue float64
		var err error

		switch v := value.(type) {
		case int:
			numValue = float64(v)
		case int64:
			numValue = float64(v)
		case float32:
			numValue = float64(v)
		case float64:
			numValue = v
		case string:
			numValue, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("field must be a number")
			}
		default:
			return fmt.Errorf("field must be a number")
		}

		if numValue > max {
			return fmt.Errorf("maximum value is %.2f, got %.2f", max, numValue)
		}

		return nil
	}
}

// Email validates email format
func Email() ValidationRule {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		if !emailRegex.MatchString(str) {
			return fmt.Errorf("field must be a valid email address")
		}

		return nil
	}
}

// URL validates URL format
func URL() ValidationRule {
	urlRegex := regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		if !urlRegex.MatchString(str) {
			return fmt.Errorf("field must be a valid URL")
		}

		return nil
	}
}

// Alpha validates alphabetic characters only
func Alpha() ValidationRule {
	alphaRegex := regexp.MustCompile(`^[a-zA-Z]+$`)
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		if !alphaRegex.MatchString(str) {
			return fmt.Errorf("field must contain only alphabetic characters")
		}

		return nil
	}
}

// Numeric validates numeric characters only
func Numeric() ValidationRule {
	numericRegex := regexp.MustCompile(`^[0-9]+$`)
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		if !numericRegex.MatchString(str) {
			return fmt.Errorf("field must contain only numeric characters")
		}

		return nil
	}
}

// AlphaNumeric validates alphanumeric characters only
func AlphaNumeric() ValidationRule {
	alphaNumericRegex := regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		if !alphaNumericRegex.MatchString(str) {
			return fmt.Errorf("field must contain only alphanumeric characters")
		}

		return nil
	}
}

// OneOf validates that value is one of allowed values
func OneOf(allowedValues ...interface{}) ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		for _, allowed := range allowedValues {
			if reflect.DeepEqual(value, allowed) {
				return nil
			}
		}

		return fmt.Errorf("field must be one of: %v", allowedValues)
	}
}

// Date validates date format
func Date(layout string) ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		if _, err := time.Parse(layout, str); err != nil {
			return fmt.Errorf("field must be a valid date in format %s", layout)
		}

		return nil
	}
}

// UUID validates UUID format
func UUID() ValidationRule {
	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		if !uuidRegex.MatchString(strings.ToLower(str)) {
			return fmt.Errorf("field must be a valid UUID")
		}

		return nil
	}
}

// JSON validates JSON format
func JSON() ValidationRule {
	return func(value interface{}) error {
		if value == nil {
			return nil
		}

		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field must be a string")
		}

		// Try to parse as JSON
		var js interface{}
		if err := json.Unmarshal([]byte(str), &js); err != nil {
			return fmt.Errorf("field must be valid JSON")
		}

		return nil
	}
}

// Recommendation-pipeline-specific validation rules

// Era validates a decade ID against the closed set the mapping tables know.
func Era() ValidationRule {
	validEras := []string{"60s", "70s", "80s", "90s", "00s", "10s", "20s"}
	return OneOf(interfaceSlice(validEras)...)
}

// VoteAverage validates a rating threshold (0-10).
func VoteAverage() ValidationRule {
	return func(value interface{}) error {
		if err := Min(0.0)(value); err != nil {
			return err
		}
		return Max(10.0)(value)
	}
}

// UnitInterval validates a value lies in [0,1], used for quadrant
// thresholds and the embedding-search similarity floor.
func UnitInterval() ValidationRule {
	return func(value interface{}) error {
		if err := Min(0.0)(value); err != nil {
			return err
		}
		return Max(1.0)(value)
	}
}

// getFieldNames extracts field names from validation error messages
func getFieldNames(validationErrors []string) []string {
	fieldNames := make([]string, 0, len(validationErrors))
	for _, err := range validationErrors {
		if colonIndex := strings.Index(err, ":"); colonIndex != -1 {
			fieldName := strings.TrimSpace(err[:colonIndex])
			fieldNames = append(fieldNames, fieldName)
		}
	}
	return fieldNames
}

// Helper function to convert string slice to interface slice
func interfaceSlice(slice []string) []interface{} {
	result := make([]interface{}, len(slice))
	for i, v := range slice {
		result[i] = v
	}
	return result
}

// RequestValidator provides advisory validation for incoming recommend
// requests. Validation failures here never block a call (only the config
// validator's errors are fatal); callers may log and proceed with the
// request as given.
type RequestValidator struct {
	validator *Validator
}

// NewRequestValidator creates a new request validator
func NewRequestValidator() *RequestValidator {
	v := NewValidator()
	return &RequestValidator{validator: v}
}

// ValidateUserRequest checks the shape of an incoming recommendation
// request: count bounds, eras drawn from the closed decade set, and
// min_rating within the catalog's rating scale.
func (rv *RequestValidator) ValidateUserRequest(args map[string]interface{}) error {
	validator := NewValidator()

	if _, exists := args["natural_query"]; exists {
		validator.AddRule("natural_query", MaxLength(2000))
	}

	if eras, exists := args["eras"]; exists {
		if list, ok := eras.([]interface{}); ok {
			for _, e := range list {
				if err := Era()(e); err != nil {
					return errors.NewValidationError(
						fmt.Sprintf("unrecognized era %v", e), "eras", e,
					)
				}
			}
		}
	}

	if _, exists := args["min_rating"]; exists {
		validator.AddRule("min_rating", VoteAverage())
	}

	if _, exists := args["count"]; exists {
		validator.AddRule("count", Min(1))
		validator.AddRule("count", Max(200))
	}

	return validator.Validate(args)
}

// ConfigValidator holds standalone checks for configuration values. It is
// not invoked by config.Load, whose Validate method applies its own rules;
// in particular the weight-sum check below is not applied at startup, and
// the default weight table does not pass it.
type ConfigValidator struct{}

// NewConfigValidator creates a new config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateWeightVector checks that a quadrant's {embedding, match_ratio,
// feature} weights sum to 1.0 within tolerance.
func (cv *ConfigValidator) ValidateWeightVector(quadrant string, embedding, matchRatio, feature float64) error {
	const tolerance = 0.05
	sum := embedding + matchRatio + feature
	if sum < 1.0-tolerance || sum > 1.0+tolerance {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("quadrant %s weights sum to %.3f, want 1.0 ± %.2f", quadrant, sum, tolerance),
			map[string]interface{}{
				"quadrant": quadrant, "embedding": embedding, "match_ratio": matchRatio, "feature": feature,
			},
		)
	}
	return nil
}

// ValidateThreshold checks a threshold lies in [0,1].
func (cv *ConfigValidator) ValidateThreshold(name string, value float64) error {
	if err := UnitInterval()(value); err != nil {
		return errors.NewInvalidConfiguration(
			fmt.Sprintf("%s must be in [0,1]: %s", name, err.Error()),
			map[string]interface{}{"field": name, "value": value},
		)
	}
	return nil
}

// ValidateCandidateCounts checks embedding_top_k >= feature_filter_k >=
// final_recommendations.
func (cv *ConfigValidator) ValidateCandidateCounts(embeddingTopK, featureFilterK, finalRecommendations int) error {
	if embeddingTopK < featureFilterK || featureFilterK < finalRecommendations {
		return errors.NewInvalidConfiguration(
			"candidate_counts must satisfy embedding_top_k >= feature_filter_k >= final_recommendations",
			map[string]interface{}{
				"embedding_top_k":       embeddingTopK,
				"feature_filter_k":      featureFilterK,
				"final_recommendations": finalRecommendations,
			},
		)
	}
	return nil
}
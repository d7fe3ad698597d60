package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/robfig/cron/v3"

	blogService "github.com/Laisky/laisky-portfolio/internal/web/blog/service"
)

const minSecretLength = 16

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateSecretConfig(get, &validationErrs)
	validateDBConfig(get, &validationErrs)
	validateRedisConfig(get, &validationErrs)
	validateBlobConfig(get, &validationErrs)
	validateAuthConfig(get, &validationErrs)
	validateBlogConfig(get, &validationErrs)
	validateWebConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateSecretConfig requires a JWT secret long enough for HS256.
func validateSecretConfig(get configGetter, errs *[]string) {
	secret, err := parseStrictString(get("settings.secret"))
	if err != nil || len(strings.TrimSpace(secret)) < minSecretLength {
		appendValidationError(errs, "settings.secret must be a string of at least %d characters", minSecretLength)
	}
}

// validateDBConfig validates the document store driver and its connection settings.
func validateDBConfig(get configGetter, errs *[]string) {
	switch driver := stringOr(get, "settings.db.driver", dbDriverFirestore); driver {
	case dbDriverFirestore:
		validateRequiredString(get, "settings.db.firestore.project_id", errs)
		validateOptionalStringNonEmpty(get, "settings.db.firestore.credential_file", errs)
	case dbDriverMongo:
		validateRequiredString(get, "settings.db.mongo.addr", errs)
		validateRequiredString(get, "settings.db.mongo.db", errs)
	case dbDriverMemory:
	default:
		appendValidationError(errs, "settings.db.driver must be one of [%s, %s, %s], got %q",
			dbDriverFirestore, dbDriverMongo, dbDriverMemory, driver)
	}
}

// validateRedisConfig validates redis-related startup configuration values.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateRedisConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.db.redis.addr", errs)
	validateOptionalIntMin(get, "settings.db.redis.db", 0, errs)
}

// validateBlobConfig validates the object storage driver and its bucket settings.
func validateBlobConfig(get configGetter, errs *[]string) {
	switch driver := stringOr(get, "settings.blob.driver", blobDriverGCS); driver {
	case blobDriverGCS:
		validateRequiredString(get, "settings.blob.gcs.bucket", errs)
		validateOptionalStringNonEmpty(get, "settings.blob.gcs.credential_file", errs)
		validateOptionalURL(get, "settings.blob.gcs.public_base_url", errs)
	case blobDriverMinio:
		for _, key := range []string{"endpoint", "access_key", "secret_key", "bucket"} {
			validateRequiredString(get, "settings.blob.minio."+key, errs)
		}
		validateOptionalBool(get, "settings.blob.minio.use_ssl", errs)
		validateOptionalURL(get, "settings.blob.minio.public_base_url", errs)
	case blobDriverMemory:
		validateOptionalURL(get, "settings.blob.memory.public_base_url", errs)
	default:
		appendValidationError(errs, "settings.blob.driver must be one of [%s, %s, %s], got %q",
			blobDriverGCS, blobDriverMinio, blobDriverMemory, driver)
	}
}

// validateAuthConfig validates sign-in and session settings.
func validateAuthConfig(get configGetter, errs *[]string) {
	if emails, ok := validateOptionalStringList(get, "settings.auth.admin_emails", errs); ok {
		for _, email := range emails {
			if !strings.Contains(email, "@") {
				appendValidationError(errs, "settings.auth.admin_emails contains invalid email %q", email)
			}
		}
	}

	validateOptionalStringNonEmpty(get, "settings.auth.google_client_id", errs)
	validateOptionalIntMin(get, "settings.auth.session_ttl_hours", 1, errs)
	validateOptionalBool(get, "settings.auth.cookie_secure", errs)
	validateOptionalIntMin(get, "settings.auth.login_per_sec", 1, errs)
	validateOptionalIntMin(get, "settings.auth.login_burst", 1, errs)
	perSec, errPerSec := intOr(get, "settings.auth.login_per_sec", defaultLoginPerSec)
	burst, errBurst := intOr(get, "settings.auth.login_burst", defaultLoginBurst)
	if errPerSec == nil && errBurst == nil && burst < perSec {
		appendValidationError(errs, "settings.auth.login_burst must be >= settings.auth.login_per_sec")
	}
}

// validateBlogConfig validates feed, counter and reconciliation settings.
func validateBlogConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.blog.page_size", 1, errs)
	if raw := get("settings.blog.page_size"); raw != nil {
		if size, err := parseStrictInt(raw); err == nil && size > blogService.MaxPageSize {
			appendValidationError(errs, "settings.blog.page_size must be <= %d", blogService.MaxPageSize)
		}
	}

	validateOptionalIntMin(get, "settings.blog.view_timeout_sec", 1, errs)
	validateOptionalStringNonEmpty(get, "settings.blog.author_name", errs)

	if raw := get("settings.blog.reconcile_cron"); raw != nil {
		spec, err := parseStrictString(raw)
		if err != nil {
			appendValidationError(errs, "settings.blog.reconcile_cron must be a string")
		} else if strings.TrimSpace(spec) != "" {
			if _, err = cron.ParseStandard(spec); err != nil {
				appendValidationError(errs, "settings.blog.reconcile_cron is not a valid schedule: %v", err)
			}
		}
	}
}

// validateWebConfig validates CORS and front-end bundle settings.
func validateWebConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.web.frontend_dist", errs)

	if hosts, ok := validateOptionalStringList(get, "settings.web.allowed_origins", errs); ok {
		for _, host := range hosts {
			if !isValidHost(host) {
				appendValidationError(errs, "settings.web.allowed_origins contains invalid host %q", host)
			}
		}
	}
}

// validateRequiredString validates that key holds a non-empty string.
func validateRequiredString(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		appendValidationError(errs, "%s is required", key)
		return
	}

	value, err := parseStrictString(raw)
	if err != nil || strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must be a non-empty string", key)
	}
}

// validateOptionalStringList validates an optional list of strings.
// It returns the parsed list and whether the key was set and valid.
func validateOptionalStringList(get configGetter, key string, errs *[]string) ([]string, bool) {
	raw := get(key)
	if raw == nil {
		return nil, false
	}

	values, err := parseStringList(raw)
	if err != nil {
		appendValidationError(errs, "%s must be a list of strings", key)
		return nil, false
	}

	return values, true
}

// stringOr returns the lower-cased string at key, or def when unset.
func stringOr(get configGetter, key, def string) string {
	value, err := parseStrictString(get(key))
	if err != nil || strings.TrimSpace(value) == "" {
		return def
	}

	return strings.ToLower(strings.TrimSpace(value))
}

// parseStringList parses a yaml list or a comma separated string.
func parseStringList(value any) ([]string, error) {
	var items []string
	switch v := value.(type) {
	case []string:
		items = v
	case []any:
		for _, item := range v {
			s, err := parseStrictString(item)
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
	case string:
		items = strings.Split(v, ",")
	default:
		return nil, errors.Errorf("unsupported list type %T", value)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out, nil
}

// validateOptionalBool validates an optionally configured boolean key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalBool(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	if _, ok := parseStrictBool(raw); !ok {
		appendValidationError(errs, "%s must be a boolean", key)
	}
}

// validateOptionalIntMin validates an optionally configured integer key with a minimum constraint.
// It accepts a getter, the key, a minimum value, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictBool parses a value as boolean using strict conversion rules.
// It accepts a raw value and returns the parsed boolean and whether parsing succeeded.
func parseStrictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		if math.Trunc(v) != v {
			return false, false
		}
		return int64(v) != 0, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return false, false
		}
		switch strings.ToLower(trimmed) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
// intOr parses key as an int, def when unset
func intOr(get configGetter, key string, def int) (int, error) {
	raw := get(key)
	if raw == nil {
		return def, nil
	}

	return parseStrictInt(raw)
}

func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// isValidHost validates a host string without scheme or path components.
// It accepts a host string and returns true when the host is syntactically acceptable.
func isValidHost(host string) bool {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return false
	}
	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/") {
		return false
	}
	return true
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}

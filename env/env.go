package env

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	mu          sync.Mutex
	validations = map[string]string{}
	validate    = validator.New()
)

// RegisterValidation registers a validation tag for an environment variable. Validation
// runs when ValidateEnv is called, typically once at startup.
func RegisterValidation(key string, tags ...string) {
	mu.Lock()
	defer mu.Unlock()
	validations[key] = strings.Join(tags, ",")
}

// ValidateEnv checks every registered variable against its validation tags and returns
// the first failure.
func ValidateEnv() error {
	mu.Lock()
	defer mu.Unlock()
	for key, tags := range validations {
		if err := validate.Var(viper.Get(key), tags); err != nil {
			return fmt.Errorf("invalid environment variable %s: %w", key, err)
		}
	}
	return nil
}

// MustValidateEnv panics if any registered environment variable is invalid.
func MustValidateEnv() {
	if err := ValidateEnv(); err != nil {
		panic(err)
	}
}

func GetString(key string) string {
	return viper.GetString(key)
}

func GetInt(key string) int {
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	return viper.GetBool(key)
}

func GetFloat64(key string) float64 {
	return viper.GetFloat64(key)
}

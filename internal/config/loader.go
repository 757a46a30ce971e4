package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Loader handles configuration loading from various sources
type Loader struct {
	envPrefix string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		envPrefix: "QFLOW_",
	}
}

// LoadFromEnvironment loads configuration from environment variables
func (l *Loader) LoadFromEnvironment(cfg *Config) error {
	return l.applyEnvOverrides(reflect.ValueOf(cfg).Elem(), "")
}

// applyEnvOverrides recursively applies environment variable overrides
func (l *Loader) applyEnvOverrides(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// Skip unexported fields
		if !field.CanSet() {
			continue
		}

		// Get the env tag
		envTag := fieldType.Tag.Get("env")
		
		// Build the environment variable name
		var envName string
		if envTag != "" {
			envName = envTag
		} else {
			// Auto-generate env name from field path
			fieldName := strings.ToUpper(fieldType.Name)
			if prefix != "" {
				envName = l.envPrefix + prefix + "_" + fieldName
			} else {
				envName = l.envPrefix + fieldName
			}
		}

		// Handle different field types
		switch field.Kind() {
		case reflect.Struct:
			// Recursively process nested structs
			newPrefix := prefix
			if newPrefix != "" {
				newPrefix += "_"
			}
			newPrefix += strings.ToUpper(fieldType.Name)
			if err := l.applyEnvOverrides(field, newPrefix); err != nil {
				return err
			}

		case reflect.String:
			if value := os.Getenv(envName); value != "" {
				field.SetString(value)
			}

		case reflect.Bool:
			if value := os.Getenv(envName); value != "" {
				boolVal, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("parsing bool from %s: %w", envName, err)
				}
				field.SetBool(boolVal)
			}

		case reflect.Int, reflect.Int64:
			if value := os.Getenv(envName); value != "" {
				intVal, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return fmt.Errorf("parsing int from %s: %w", envName, err)
				}
				field.SetInt(intVal)
			}

		case reflect.Float64:
			if value := os.Getenv(envName); value != "" {
				floatVal, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("parsing float from %s: %w", envName, err)
				}
				field.SetFloat(floatVal)
			}

		case reflect.Map:
			// Handle map[string]bool for features
			if fieldType.Name == "Features" {
				l.loadFeaturesFromEnv(field, envName)
			}

		default:
			// Handle time.Duration
			if field.Type() == reflect.TypeOf(time.Duration(0)) {
				if value := os.Getenv(envName); value != "" {
					duration, err := time.ParseDuration(value)
					if err != nil {
						return fmt.Errorf("parsing duration from %s: %w", envName, err)
					}
					field.Set(reflect.ValueOf(duration))
				}
			}
		}
	}

	return nil
}

// loadFeaturesFromEnv loads feature flags from environment variables
func (l *Loader) loadFeaturesFromEnv(field reflect.Value, prefix string) {
	// Look for environment variables like QFLOW_FEATURES_FEATURENAME=true
	environ := os.Environ()
	featurePrefix := prefix + "_"
	
	if field.IsNil() {
		field.Set(reflect.MakeMap(field.Type()))
	}
	
	for _, env := range environ {
		if strings.HasPrefix(env, featurePrefix) {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				featureName := strings.ToLower(strings.TrimPrefix(parts[0], featurePrefix))
				if value, err := strconv.ParseBool(parts[1]); err == nil {
					field.SetMapIndex(reflect.ValueOf(featureName), reflect.ValueOf(value))
				}
			}
		}
	}
}

// MergeConfigs merges multiple configurations, with later configs taking precedence
func MergeConfigs(base *Config, overlays ...*Config) *Config {
	result := *base // Start with a copy of base
	
	for _, overlay := range overlays {
		if overlay == nil {
			continue
		}
		
		// Merge each section
		mergeEngine(&result.Engine, &overlay.Engine)
		mergePerformance(&result.Performance, &overlay.Performance)
		mergeLogging(&result.Logging, &overlay.Logging)
		
		// Merge features map
		if overlay.Features != nil {
			if result.Features == nil {
				result.Features = make(map[string]bool)
			}
			for k, v := range overlay.Features {
				result.Features[k] = v
			}
		}
		
		// Override version and profile if set
		if overlay.Version != "" {
			result.Version = overlay.Version
		}
		if overlay.Profile != "" {
			result.Profile = overlay.Profile
		}
	}
	
	return &result
}

// mergeEngine merges engine configurations
func mergeEngine(base, overlay *EngineConfig) {
	if overlay.DataflowOrder != "" {
		base.DataflowOrder = overlay.DataflowOrder
	}
	if overlay.OutputFormat != "" {
		base.OutputFormat = overlay.OutputFormat
	}
	base.ColorOutput = overlay.ColorOutput
	base.StrictMode = overlay.StrictMode
	
	// Merge Vault config
	mergeVault(&base.Vault, &overlay.Vault)
	
	// Merge AWS config
	mergeAWS(&base.AWS, &overlay.AWS)
	
	// Merge Scheduler config
	mergeScheduler(&base.Scheduler, &overlay.Scheduler)
}

// mergeVault merges Vault configurations
func mergeVault(base, overlay *VaultConfig) {
	if overlay.Address != "" {
		base.Address = overlay.Address
	}
	if overlay.Token != "" {
		base.Token = overlay.Token
	}
	if overlay.Namespace != "" {
		base.Namespace = overlay.Namespace
	}
	if overlay.Timeout != "" {
		base.Timeout = overlay.Timeout
	}
	base.SkipVerify = overlay.SkipVerify
}

// mergeAWS merges AWS configurations
func mergeAWS(base, overlay *AWSConfig) {
	if overlay.Region != "" {
		base.Region = overlay.Region
	}
	if overlay.Profile != "" {
		base.Profile = overlay.Profile
	}
	if overlay.AccessKeyID != "" {
		base.AccessKeyID = overlay.AccessKeyID
	}
	if overlay.SecretAccessKey != "" {
		base.SecretAccessKey = overlay.SecretAccessKey
	}
	if overlay.SessionToken != "" {
		base.SessionToken = overlay.SessionToken
	}
	if overlay.Endpoint != "" {
		base.Endpoint = overlay.Endpoint
	}
}

// mergeScheduler merges Scheduler configurations
func mergeScheduler(base, overlay *SchedulerConfig) {
	if overlay.MaxCyclesPerBlock > 0 {
		base.MaxCyclesPerBlock = overlay.MaxCyclesPerBlock
	}
	if overlay.RescheduleRateLimit > 0 {
		base.RescheduleRateLimit = overlay.RescheduleRateLimit
	}
	if overlay.RescheduleBurst > 0 {
		base.RescheduleBurst = overlay.RescheduleBurst
	}
}

// mergePerformance merges performance configurations
func mergePerformance(base, overlay *PerformanceConfig) {
	base.EnableCaching = overlay.EnableCaching
	base.EnableParallel = overlay.EnableParallel
	
	// Merge Cache config
	mergeCache(&base.Cache, &overlay.Cache)
	
	// Merge Concurrency config
	mergeConcurrency(&base.Concurrency, &overlay.Concurrency)
	
	// Merge Memory config
	mergeMemory(&base.Memory, &overlay.Memory)
	
	// Merge I/O config
	mergeIO(&base.IO, &overlay.IO)
}

// mergeCache merges cache configurations
func mergeCache(base, overlay *CacheConfig) {
	if overlay.ExpressionCacheSize > 0 {
		base.ExpressionCacheSize = overlay.ExpressionCacheSize
	}
	if overlay.QueryCacheSize > 0 {
		base.QueryCacheSize = overlay.QueryCacheSize
	}
	if overlay.PathCacheSize > 0 {
		base.PathCacheSize = overlay.PathCacheSize
	}
	if overlay.TTL > 0 {
		base.TTL = overlay.TTL
	}
	base.EnableWarmup = overlay.EnableWarmup
}

// mergeConcurrency merges concurrency configurations
func mergeConcurrency(base, overlay *ConcurrencyConfig) {
	if overlay.MaxWorkers >= 0 {
		base.MaxWorkers = overlay.MaxWorkers
	}
	if overlay.QueueSize > 0 {
		base.QueueSize = overlay.QueueSize
	}
	if overlay.BatchSize > 0 {
		base.BatchSize = overlay.BatchSize
	}
	base.EnableAdaptive = overlay.EnableAdaptive
}

// mergeMemory merges memory configurations
func mergeMemory(base, overlay *MemoryConfig) {
	if overlay.MaxHeapSize >= 0 {
		base.MaxHeapSize = overlay.MaxHeapSize
	}
	if overlay.GCPercent >= 0 {
		base.GCPercent = overlay.GCPercent
	}
	// EnablePooling is not merged: the base value is always kept.
	// StringInterning is taken from the overlay only when the overlay sets
	// it to true, since an overlay's false cannot be told apart from unset.
	if overlay.StringInterning {
		base.StringInterning = overlay.StringInterning
	}
}

// mergeIO merges I/O configurations
func mergeIO(base, overlay *IOConfig) {
	if overlay.ConnectionTimeout > 0 {
		base.ConnectionTimeout = overlay.ConnectionTimeout
	}
	if overlay.RequestTimeout > 0 {
		base.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.MaxRetries >= 0 {
		base.MaxRetries = overlay.MaxRetries
	}
	base.EnableDeduplication = overlay.EnableDeduplication
}

// mergeLogging merges logging configurations
func mergeLogging(base, overlay *LoggingConfig) {
	if overlay.Level != "" {
		base.Level = overlay.Level
	}
	if overlay.Format != "" {
		base.Format = overlay.Format
	}
	if overlay.Output != "" {
		base.Output = overlay.Output
	}
	base.EnableColor = overlay.EnableColor
}
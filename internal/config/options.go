// Package config holds the rename engine's options and loads them from
// CUE, TOML or YAML files.
//
// Every field is independently optional. An empty method ref switches the
// corresponding category to structural discovery; an empty target class
// disables the gated per-class pass.
package config

import (
	"strings"

	"github.com/roach88/logrename/internal/ir"
)

// Default names used by discovery. They describe the Flogger API surface.
const (
	DefaultLoggerClass     = "com.google.common.flogger.GoogleLogger"
	DefaultBaseLoggerClass = "com.google.common.flogger.AbstractLogger"
	DefaultLevelType       = "java.util.logging.Level"
)

// Options configures one engine load.
type Options struct {
	// TargetClass restricts the gated per-class pass to one class, matched
	// by trailing name or exact dotted name. Slashes are accepted.
	TargetClass string `yaml:"targetClass" toml:"targetClass" json:"targetClass"`

	// FactoryMethodRef is the logger factory, e.g.
	// com/google/common/flogger/GoogleLogger->c(Ljava/lang/String;)Lcom/google/common/flogger/GoogleLogger;
	FactoryMethodRef string `yaml:"factoryMethodRef" toml:"factoryMethodRef" json:"factoryMethodRef"`

	// LocationMethodRef is the log-site setter, e.g.
	// a/b/C->x(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)V
	LocationMethodRef string `yaml:"locationMethodRef" toml:"locationMethodRef" json:"locationMethodRef"`

	// Discovery names the classes structural discovery inspects.
	Discovery DiscoveryProfile `yaml:"discovery" toml:"discovery" json:"discovery"`
}

// DiscoveryProfile names the logging library types discovery looks for.
type DiscoveryProfile struct {
	LoggerClass     string `yaml:"loggerClass" toml:"loggerClass" json:"loggerClass"`
	BaseLoggerClass string `yaml:"baseLoggerClass" toml:"baseLoggerClass" json:"baseLoggerClass"`
	LevelType       string `yaml:"levelType" toml:"levelType" json:"levelType"`
}

// Default returns options with an empty configuration and the Flogger
// discovery profile.
func Default() Options {
	return Options{Discovery: DefaultProfile()}
}

// DefaultProfile returns the Flogger discovery profile.
func DefaultProfile() DiscoveryProfile {
	return DiscoveryProfile{
		LoggerClass:     DefaultLoggerClass,
		BaseLoggerClass: DefaultBaseLoggerClass,
		LevelType:       DefaultLevelType,
	}
}

// WithDefaults fills empty discovery names with the defaults.
func (o Options) WithDefaults() Options {
	d := DefaultProfile()
	if o.Discovery.LoggerClass == "" {
		o.Discovery.LoggerClass = d.LoggerClass
	}
	if o.Discovery.BaseLoggerClass == "" {
		o.Discovery.BaseLoggerClass = d.BaseLoggerClass
	}
	if o.Discovery.LevelType == "" {
		o.Discovery.LevelType = d.LevelType
	}
	return o
}

// Merge overlays the non-empty fields of other onto o.
func (o Options) Merge(other Options) Options {
	if other.TargetClass != "" {
		o.TargetClass = other.TargetClass
	}
	if other.FactoryMethodRef != "" {
		o.FactoryMethodRef = other.FactoryMethodRef
	}
	if other.LocationMethodRef != "" {
		o.LocationMethodRef = other.LocationMethodRef
	}
	if other.Discovery.LoggerClass != "" {
		o.Discovery.LoggerClass = other.Discovery.LoggerClass
	}
	if other.Discovery.BaseLoggerClass != "" {
		o.Discovery.BaseLoggerClass = other.Discovery.BaseLoggerClass
	}
	if other.Discovery.LevelType != "" {
		o.Discovery.LevelType = other.Discovery.LevelType
	}
	return o
}

// MatchesTarget reports whether a class is selected by TargetClass. The
// class matches on its exact dotted raw or current name, or when either
// name ends with ".<target>".
func (o Options) MatchesTarget(rawName, fullName string) bool {
	target := ir.NormalizeName(o.TargetClass)
	if target == "" {
		return false
	}
	raw := ir.NormalizeName(rawName)
	full := ir.NormalizeName(fullName)
	if raw == target || full == target {
		return true
	}
	suffix := "." + target
	return strings.HasSuffix(raw, suffix) || strings.HasSuffix(full, suffix)
}

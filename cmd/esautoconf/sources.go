package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-autoconf"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// loadSources builds the defaults, file, env and inline chain.
func (a *app) loadSources(descriptors []autoconf.Descriptor) (*autoconf.PropertySources, error) {
	metadata := autoconf.Metadata(descriptors)

	file, err := a.fileSnapshot()
	if err != nil {
		return nil, err
	}
	inline, err := autoconf.ParseProperties(a.properties...)
	if err != nil {
		return nil, fmt.Errorf("invalid --property: %w", err)
	}
	return autoconf.DefaultsFileEnvInline(defaultsSnapshot(metadata), file, envSnapshot(metadata), inline)
}

func defaultsSnapshot(metadata []autoconf.PropertyMetadata) autoconf.Snapshot {
	var props []autoconf.Property
	for _, meta := range metadata {
		if meta.Default == "" || strings.HasSuffix(meta.Name, ".*") {
			continue
		}
		props = append(props, autoconf.Property{Key: meta.Name, Value: meta.Default})
	}
	return autoconf.NewSnapshot(props...)
}

func (a *app) fileSnapshot() (autoconf.Snapshot, error) {
	if a.cfgFile == "" {
		return autoconf.NewSnapshot(), nil
	}
	v := viper.New()
	v.SetConfigFile(a.cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return autoconf.Snapshot{}, fmt.Errorf("read %s: %w", a.cfgFile, err)
	}
	keys := v.AllKeys()
	sort.Strings(keys)
	props := make([]autoconf.Property, 0, len(keys))
	for _, key := range keys {
		props = append(props, autoconf.Property{Key: key, Value: settingString(v.Get(key))})
	}
	return autoconf.NewSnapshot(props...), nil
}

// envSnapshot reads ESAUTOCONF_* variables for every documented key, with
// dots and dashes mapped to underscores.
func envSnapshot(metadata []autoconf.PropertyMetadata) autoconf.Snapshot {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	var props []autoconf.Property
	for _, meta := range metadata {
		if strings.HasSuffix(meta.Name, ".*") {
			continue
		}
		_ = v.BindEnv(meta.Name)
		if v.IsSet(meta.Name) {
			props = append(props, autoconf.Property{Key: meta.Name, Value: v.GetString(meta.Name)})
		}
	}
	return autoconf.NewSnapshot(props...)
}

// settingString renders lists the way comma-separated properties expect.
func settingString(value any) string {
	switch typed := value.(type) {
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, cast.ToString(item))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(typed, ",")
	default:
		return cast.ToString(value)
	}
}

package sdk

import (
	"strconv"
	"strings"
	"time"

	"github.com/gear6io/chnative/pkg/errors"
)

// SettingKind is the value shape a server setting accepts. Everything
// still travels as a string on the wire; the kind only validates input.
type SettingKind uint8

const (
	SettingBool SettingKind = iota
	SettingInt
	SettingDuration
	SettingString
	SettingEnum
)

// SettingSpec describes one server setting the driver knows how to
// validate. Query-scoped settings ride on each Query signal; connection
// settings only make sense at session setup.
type SettingSpec struct {
	Name       string
	Kind       SettingKind
	Default    string
	QueryScope bool
	EnumValues []string
}

// settingSpecs indexes the known settings by lower-cased name. The list
// covers the settings commonly carried through a DSN; anything else is
// rejected there (Options.Settings stays unchecked, the server is the
// authority for those).
var settingSpecs = map[string]SettingSpec{}

func registerSetting(s SettingSpec) {
	settingSpecs[strings.ToLower(s.Name)] = s
}

func init() {
	for _, s := range []SettingSpec{
		{Name: "max_block_size", Kind: SettingInt, Default: "65409", QueryScope: true},
		{Name: "max_insert_block_size", Kind: SettingInt, Default: "1048449", QueryScope: true},
		{Name: "max_execution_time", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "max_memory_usage", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "max_threads", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "max_result_rows", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "max_result_bytes", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "result_overflow_mode", Kind: SettingEnum, Default: "throw", QueryScope: true,
			EnumValues: []string{"throw", "break"}},
		{Name: "readonly", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "send_logs_level", Kind: SettingEnum, Default: "none", QueryScope: true,
			EnumValues: []string{"none", "fatal", "error", "warning", "information", "debug", "trace", "test"}},
		{Name: "log_queries", Kind: SettingBool, Default: "1", QueryScope: true},
		{Name: "insert_quorum", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "insert_quorum_timeout", Kind: SettingDuration, Default: "10m", QueryScope: true},
		{Name: "select_sequential_consistency", Kind: SettingBool, Default: "0", QueryScope: true},
		{Name: "insert_deduplicate", Kind: SettingBool, Default: "1", QueryScope: true},
		{Name: "priority", Kind: SettingInt, Default: "0", QueryScope: true},
		{Name: "distributed_product_mode", Kind: SettingEnum, Default: "deny", QueryScope: true,
			EnumValues: []string{"deny", "local", "global", "allow"}},
		{Name: "skip_unavailable_shards", Kind: SettingBool, Default: "0", QueryScope: true},
		{Name: "optimize_skip_unused_shards", Kind: SettingBool, Default: "0", QueryScope: true},
		{Name: "session_timezone", Kind: SettingString, Default: "", QueryScope: true},
		{Name: "join_use_nulls", Kind: SettingBool, Default: "0", QueryScope: true},
		{Name: "wait_end_of_query", Kind: SettingBool, Default: "0", QueryScope: true},
		{Name: "input_format_defaults_for_omitted_fields", Kind: SettingBool, Default: "1", QueryScope: true},
		{Name: "connect_timeout", Kind: SettingDuration, Default: "10s", QueryScope: false},
		{Name: "receive_timeout", Kind: SettingDuration, Default: "300s", QueryScope: false},
		{Name: "send_timeout", Kind: SettingDuration, Default: "300s", QueryScope: false},
	} {
		registerSetting(s)
	}
}

// LookupSetting finds a setting spec by name, case-insensitively.
func LookupSetting(name string) (SettingSpec, bool) {
	s, ok := settingSpecs[strings.ToLower(name)]
	return s, ok
}

// CheckSetting validates a DSN setting name and value against the
// registry.
func CheckSetting(name, value string) error {
	spec, ok := LookupSetting(name)
	if !ok {
		return errors.Newf(ErrUnknownSetting, "unknown setting %q", name)
	}
	switch spec.Kind {
	case SettingBool:
		switch strings.ToLower(value) {
		case "0", "1", "true", "false":
			return nil
		}
		return errors.Newf(ErrUnknownSetting, "setting %q wants a boolean, got %q", name, value)
	case SettingInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return errors.Newf(ErrUnknownSetting, "setting %q wants an integer, got %q", name, value)
		}
	case SettingDuration:
		if _, err := strconv.ParseInt(value, 10, 64); err == nil {
			return nil
		}
		if _, err := time.ParseDuration(value); err != nil {
			return errors.Newf(ErrUnknownSetting, "setting %q wants a duration, got %q", name, value)
		}
	case SettingEnum:
		for _, v := range spec.EnumValues {
			if strings.EqualFold(v, value) {
				return nil
			}
		}
		return errors.Newf(ErrUnknownSetting, "setting %q does not accept %q", name, value)
	}
	return nil
}

package config

import "reflect"

// StaticFieldsEqual reports whether the fields that a reload is not allowed
// to change (version, admin_api, log, access_log, tls, listeners) are
// identical between two configs.
func StaticFieldsEqual(a, b *Config) bool {
	return a.Version == b.Version &&
		reflect.DeepEqual(a.AdminAPI, b.AdminAPI) &&
		reflect.DeepEqual(a.Log, b.Log) &&
		reflect.DeepEqual(a.AccessLog, b.AccessLog) &&
		reflect.DeepEqual(a.TLS, b.TLS) &&
		reflect.DeepEqual(a.Listeners, b.Listeners)
}

// Package config loads the instances an exporter collects from and resolves
// each of them into the parameters of a single collection pass.
//
// An instance authenticates either with a PEM certificate file it points at
// (`cert_file`) or with a `.publishsettings` document (`publish_settings`), in
// which case the management certificate is extracted into a temporary file
// that lives only for the duration of the pass.
//
package config

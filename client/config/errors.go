package config

import "github.com/gear6io/gpsd4go/pkg/errors"

// Error codes for client config package
var (
	// File operation errors
	ErrConfigFileReadFailed    = errors.MustNewCode("config.file_read_failed")
	ErrConfigFileParseFailed   = errors.MustNewCode("config.file_parse_failed")
	ErrConfigFileWriteFailed   = errors.MustNewCode("config.file_write_failed")
	ErrConfigFileMarshalFailed = errors.MustNewCode("config.file_marshal_failed")
	ErrConfigEnvParseFailed    = errors.MustNewCode("config.env_parse_failed")

	// Validation errors
	ErrServerHostEmpty   = errors.MustNewCode("config.server_host_empty")
	ErrServerPortInvalid = errors.MustNewCode("config.server_port_invalid")
	ErrSessionInvalid    = errors.MustNewCode("config.session_invalid")
	ErrDispatchInvalid   = errors.MustNewCode("config.dispatch_invalid")

	// Logging errors
	ErrLogFileOpenFailed = errors.MustNewCode("config.log_file_open_failed")
	ErrLogLevelInvalid   = errors.MustNewCode("config.log_level_invalid")
)

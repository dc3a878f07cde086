package client

import "github.com/gear6io/gpsd4go/pkg/errors"

// Error codes for client package
var (
	// Lifecycle errors
	ErrAlreadyRunning = errors.MustNewCode("client.already_running")
	ErrNotRunning     = errors.MustNewCode("client.not_running")
	ErrConnectFailed  = errors.MustNewCode("client.connect_failed")
	ErrWriteFailed    = errors.MustNewCode("client.write_failed")

	// Request errors
	ErrRequestTimeout     = errors.MustNewCode("client.request_timeout")
	ErrUnexpectedResponse = errors.MustNewCode("client.unexpected_response")
	ErrCommandRejected    = errors.MustNewCode("client.command_rejected")

	// Dispatch errors
	ErrHandlerPanicked = errors.MustNewCode("client.handler_panicked")
	ErrInvalidHandler  = errors.MustNewCode("client.invalid_handler")

	// Worker pool errors
	WorkerPoolAlreadyRunning = errors.MustNewCode("client.worker_pool.already_running")
	WorkerPoolNotRunning     = errors.MustNewCode("client.worker_pool.not_running")

	// Retry errors
	RetryAttemptsExhausted = errors.MustNewCode("client.retry.attempts_exhausted")
)

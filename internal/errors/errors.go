package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RetrievalFailed indicates the version-control backend could not be queried
	RetrievalFailed ErrorCode = "RETRIEVAL_FAILED"
	// NotARepository indicates the working directory is not inside a git repository
	NotARepository ErrorCode = "NOT_A_REPOSITORY"
	// Timeout indicates a history lookup timed out
	Timeout ErrorCode = "TIMEOUT"
	// ConfigInvalid indicates a rejected configuration value
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
	Tool        string        `json:"tool,omitempty"`
}

// RelfilesError represents an error with code, message, and suggestions
type RelfilesError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewRelfilesError creates a new RelfilesError
func NewRelfilesError(code ErrorCode, message string, cause error, suggestedFixes []FixAction) *RelfilesError {
	if suggestedFixes == nil {
		suggestedFixes = GetSuggestedFixes(code)
	}
	return &RelfilesError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
	}
}

// Error implements the error interface
func (e *RelfilesError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RelfilesError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RelfilesError) WithDetails(details interface{}) *RelfilesError {
	e.Details = details
	return e
}

// HasCode reports whether err wraps a RelfilesError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var re *RelfilesError
	if !stderrors.As(err, &re) {
		return false
	}
	return re.Code == code
}

// IsRetrieval reports whether err means history could not be read.
// A timeout counts as a retrieval failure.
func IsRetrieval(err error) bool {
	return HasCode(err, RetrievalFailed) || HasCode(err, Timeout) || HasCode(err, NotARepository)
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	RetrievalFailed: {
		{
			Type:        RunCommand,
			Command:     "git status",
			Safe:        true,
			Description: "Verify git works in this directory",
		},
	},
	NotARepository: {
		{
			Type:        RunCommand,
			Command:     "git init",
			Safe:        false,
			Description: "Initialize a git repository",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "relfiles config check",
			Safe:        true,
			Description: "Validate .relfiles/config.toml",
		},
	},
	Timeout: {
		{
			Type:        OpenDocs,
			Description: "Increase git.timeoutMs in .relfiles/config.toml",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

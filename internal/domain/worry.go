package domain

import "errors"

const (
	PrivacyOptionPublic    = "public"
	PrivacyOptionPrivate   = "private"
	PrivacyOptionAnonymous = "anonymous"
)

var (
	ErrInvalidAccessCode    = errors.New("invalid access code")
	ErrCodeSpaceExhausted   = errors.New("access code space exhausted")
	ErrRecordNotFound       = errors.New("record not found")
	ErrStoreUnavailable     = errors.New("record store unavailable")
	ErrStoreCorrupted       = errors.New("record store corrupted")
	ErrEmptyConfession      = errors.New("confession text is required")
	ErrInvalidPrivacyOption = errors.New("invalid privacy option")
	ErrEmptyReply           = errors.New("reply text is required")
	ErrResetDisabled        = errors.New("reset is disabled")
)

// IsValidPrivacyOption accepts the empty value: the preference is optional.
func IsValidPrivacyOption(value string) bool {
	switch value {
	case "", PrivacyOptionPublic, PrivacyOptionPrivate, PrivacyOptionAnonymous:
		return true
	default:
		return false
	}
}

package resp

// Application codes carried in every JSON error or status body.
const (
	CodeOK            = 0
	CodeQueued        = 1
	CodeBadRequest    = 4000
	CodeInvalidCode   = 4001
	CodeForbidden     = 4030
	CodeNotFound      = 4040
	CodeInternalError = 5000
	CodeStoreFailure  = 5001
	CodeCodeExhausted = 5002
)

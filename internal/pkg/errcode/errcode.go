package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrNotFound
	ErrInvalid
	ErrInternal
	ErrIndexFailed
	ErrGenerationFailed
	ErrRetrievalFailed
	ErrUploadFailed
	ErrAIUnavailable
)

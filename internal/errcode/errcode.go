package errcode

// Error code convention:
// - 0: no error
// - 4xxx: recoverable business warnings (processing may continue)
// - 5xxx: system errors (processing must stop)
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)

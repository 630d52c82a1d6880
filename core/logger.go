package core

// Logger is any service that can log messages.
// Args may hold errors, maps of extra data, or a LogPerson identifying the authenticated account.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// LogPerson identifies the teacher or student a log entry is about.
type LogPerson struct {
	ID       string
	Username string
	Email    string
}

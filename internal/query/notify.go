package query

import "go.uber.org/zap"

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notification is a short user-facing message about the outcome of an action.
type Notification struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notification) {
	if n.Level == LevelError {
		l.logger.Error(n.Message)
		return
	}
	l.logger.Info(n.Message, zap.Stringer("level", n.Level))
}

func (c *Client) notify(level Level, msg string) {
	c.notifier.Notify(Notification{Level: level, Message: msg})
}

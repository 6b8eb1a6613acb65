//go:build !linux && !freebsd

package backend

import (
	"log"
	"sync/atomic"
)

type logNotifier struct {
	nextID atomic.Uint32
}

// NewDBusNotifier returns a logging no-op sender on platforms without
// the freedesktop notification service.
func NewDBusNotifier(appName string) (NotificationSender, error) {
	return &logNotifier{}, nil
}

func (l *logNotifier) Show(replaces uint32, n Notification) (uint32, error) {
	log.Printf("notification: %s", n.Title)
	return l.nextID.Add(1), nil
}

func (l *logNotifier) Dismiss(id uint32) error {
	return nil
}

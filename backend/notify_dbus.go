//go:build linux || freebsd

package backend

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest = "org.freedesktop.Notifications"
	notifyPath = "/org/freedesktop/Notifications"
)

// dbusNotifier sends desktop notifications over the
// org.freedesktop.Notifications D-Bus interface.
type dbusNotifier struct {
	appName string
	icon    string // fallback icon name
	conn    *dbus.Conn
}

func NewDBusNotifier(appName string) (NotificationSender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &dbusNotifier{appName: appName, icon: "audio-headphones", conn: conn}, nil
}

func (d *dbusNotifier) Show(replaces uint32, n Notification) (uint32, error) {
	icon := n.IconURL
	if icon == "" {
		icon = d.icon
	}
	var lines []string
	for _, item := range n.Items {
		line := strings.TrimSpace(item.Title + " " + item.Message)
		if line != "" {
			lines = append(lines, line)
		}
	}
	body := strings.Join(lines, "\n")

	obj := d.conn.Object(notifyDest, notifyPath)
	call := obj.Call(notifyDest+".Notify", 0,
		d.appName, replaces, icon, n.Title, body,
		[]string{}, map[string]dbus.Variant{}, int32(-1))
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (d *dbusNotifier) Dismiss(id uint32) error {
	return d.conn.Object(notifyDest, notifyPath).
		Call(notifyDest+".CloseNotification", 0, id).Err
}

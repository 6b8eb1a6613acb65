//go:build !windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"path"
	"runtime"
)

// socketPath is initialized based on platform conventions:
//   - macOS: ~/Library/Caches/gshotkeys/gshotkeys.sock (or /tmp/gshotkeys-{uid}.sock as fallback)
//   - Linux/Unix: $XDG_RUNTIME_DIR/gshotkeys.sock (or /tmp/gshotkeys-{uid}.sock as fallback)
var socketPath = "/tmp/gshotkeys.sock"

func init() {
	if runtime.GOOS == "darwin" {
		if home, err := os.UserHomeDir(); err == nil {
			socketPath = path.Join(home, "Library", "Caches", "gshotkeys", "gshotkeys.sock")
		} else if user, err := user.Current(); err == nil {
			socketPath = fmt.Sprintf("/tmp/gshotkeys-%s.sock", user.Uid)
		}
	} else {
		if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
			socketPath = path.Join(runtime, "gshotkeys.sock")
		} else if user, err := user.Current(); err == nil {
			socketPath = fmt.Sprintf("/tmp/gshotkeys-%s.sock", user.Uid)
		}
	}
}

// Dial establishes a connection to the IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", socketPath)
}

// Listen creates a Unix domain socket listener at the configured path.
func Listen() (net.Listener, error) {
	return net.Listen("unix", socketPath)
}

// DestroyConn removes the socket file; the daemon calls it during
// shutdown so a stale socket doesn't block the next launch.
func DestroyConn() error {
	return os.Remove(socketPath)
}

//go:build windows

package api

import (
	"net/http"
	"os"
	"path/filepath"
)

func DefaultServerSocketPath() string {
	return filepath.Join(os.TempDir(), "echoline", "server.socket")
}

// Unix sockets are a no-go on Windows; fall back to TCP on the default port.
func listenIPC(srv *http.Server, _ string) error {
	return listenTCP(srv, "8080")
}

//go:build !windows

package duct

import (
    "fmt"
    "net"
    "os"
    "path/filepath"
    "time"
)

const localNetwork = "unix"

// defaultLocalName generates a unique socket path under the OS temp dir.
func defaultLocalName() (string, error) {
    suffix, err := randomSuffix()
    if err != nil {
        return "", err
    }
    return filepath.Join(os.TempDir(), fmt.Sprintf("ductworks-%s.sock", suffix)), nil
}

func listenLocal(name string) (net.Listener, error) {
    return net.Listen("unix", name)
}

func dialLocal(name string, timeout time.Duration) (net.Conn, error) {
    if timeout <= 0 {
        return net.Dial("unix", name)
    }
    return net.DialTimeout("unix", name, timeout)
}

//go:build windows

package duct

import (
    "fmt"
    "net"
    "time"

    "github.com/Microsoft/go-winio"
)

const localNetwork = "pipe"

// defaultLocalName generates a unique named pipe path.
func defaultLocalName() (string, error) {
    suffix, err := randomSuffix()
    if err != nil {
        return "", err
    }
    return fmt.Sprintf(`\\.\pipe\ductworks-%s`, suffix), nil
}

func listenLocal(name string) (net.Listener, error) {
    return winio.ListenPipe(name, nil)
}

func dialLocal(name string, timeout time.Duration) (net.Conn, error) {
    if timeout <= 0 {
        return winio.DialPipe(name, nil)
    }
    return winio.DialPipe(name, &timeout)
}

package main

import (
    "bufio"
    "errors"
    "os"
    "os/exec"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/cope-systems/ductworks/pkg/config"
    "github.com/cope-systems/ductworks/pkg/duct"
    "github.com/cope-systems/ductworks/pkg/observability"
)

// run is the main entry point after CLI parsing. The parent role binds
// a duct, publishes the listener address (log line plus DUCTWORKS_ADDR
// for a spawned child) and sends stdin lines to the peer, printing the
// echoes. The child role connects and echoes every message back until
// the remote closes.
func run(opts Options) int {
    cfg, err := config.Load(opts.ConfigPath)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
        return 1
    }

    logger, err := observability.SetupLogger(cfg.Log)
    if err != nil {
        _, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
        return 1
    }
    defer func() { _ = logger.Sync() }()

    transport := opts.Transport
    if transport == "" {
        transport = cfg.Duct.Transport
    }
    kind, err := duct.ParseKind(transport)
    if err != nil {
        zap.L().Error("bad transport", zap.Error(err))
        return 1
    }

    ductOpts := []duct.Option{duct.WithLogger(logger)}
    if cfg.Duct.MaxMessageBytes > 0 {
        ductOpts = append(ductOpts, duct.WithMaxMessageSize(cfg.Duct.MaxMessageBytes))
    }

    switch opts.Role {
    case "parent":
        return runParent(cfg, kind, opts, ductOpts)
    case "child":
        return runChild(cfg, kind, opts, ductOpts)
    default:
        zap.L().Error("unknown role", zap.String("role", opts.Role))
        return 1
    }
}

func runParent(cfg *config.Config, kind duct.Kind, opts Options, ductOpts []duct.Option) int {
    parent, err := duct.ListenParentDuct(kind, cfg.Duct.Bind, ductOpts...)
    if err != nil {
        zap.L().Error("failed to listen", zap.Error(err))
        return 1
    }
    defer parent.Close()

    addr := parent.ListenerAddr()
    zap.L().Info("duct listening",
        zap.String("transport", kind.String()),
        zap.String("addr", addr.String()))

    var child *exec.Cmd
    if opts.Spawn != "" {
        parts := strings.Fields(opts.Spawn)
        child = exec.Command(parts[0], parts[1:]...)
        child.Env = append(os.Environ(),
            "DUCTWORKS_ADDR="+addr.String(),
            "DUCTWORKS_TRANSPORT="+kind.String())
        child.Stdout = os.Stderr
        child.Stderr = os.Stderr
        if err := child.Start(); err != nil {
            zap.L().Error("failed to spawn child", zap.Error(err))
            return 1
        }
        defer func() { _ = child.Wait() }()
    }

    acceptTimeout := time.Duration(cfg.Duct.AcceptTimeoutMS) * time.Millisecond
    if cfg.Duct.AcceptTimeoutMS < 0 {
        acceptTimeout = -1
    }
    ok, err := parent.Accept(acceptTimeout)
    if err != nil {
        zap.L().Error("accept failed", zap.Error(err))
        return 1
    }
    if !ok {
        zap.L().Error("no peer connected before timeout")
        return 1
    }
    zap.L().Info("peer connected")

    sc := bufio.NewScanner(os.Stdin)
    for sc.Scan() {
        line := sc.Text()
        if err := parent.Send(line); err != nil {
            zap.L().Error("send failed", zap.Error(err))
            return 1
        }
        reply, err := parent.Recv()
        if err != nil {
            if errors.Is(err, duct.ErrRemoteClosed) {
                zap.L().Info("peer closed")
                return 0
            }
            zap.L().Error("recv failed", zap.Error(err))
            return 1
        }
        zap.L().Info("echo", zap.Any("reply", reply))
    }
    return 0
}

func runChild(cfg *config.Config, kind duct.Kind, opts Options, ductOpts []duct.Option) int {
    target := opts.Addr
    if target == "" {
        target = os.Getenv("DUCTWORKS_ADDR")
    }
    if target == "" {
        zap.L().Error("no address: pass -addr or set DUCTWORKS_ADDR")
        return 1
    }
    var addr duct.Addr
    if kind == duct.KindTCP {
        addr = duct.TCPAddr(target)
    } else {
        addr = duct.LocalAddr(target)
    }

    connectTimeout := time.Duration(cfg.Duct.ConnectTimeoutMS) * time.Millisecond
    child, err := duct.ConnectChildDuct(addr, connectTimeout, ductOpts...)
    if err != nil {
        zap.L().Error("connect failed", zap.Error(err))
        return 1
    }
    defer child.Close()
    zap.L().Info("connected", zap.String("addr", addr.String()))

    for {
        v, err := child.Recv()
        if err != nil {
            if errors.Is(err, duct.ErrRemoteClosed) {
                zap.L().Info("remote closed")
                return 0
            }
            zap.L().Error("recv failed", zap.Error(err))
            return 1
        }
        if err := child.Send(v); err != nil {
            zap.L().Error("send failed", zap.Error(err))
            return 1
        }
    }
}

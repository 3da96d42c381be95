package main

import "flag"

// Options holds CLI options for duct-echo.
type Options struct {
    ConfigPath string
    Role       string
    Transport  string
    Addr       string
    Spawn      string
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string) Options {
    fs := flag.NewFlagSet("duct-echo", flag.ExitOnError)
    var opts Options
    fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
    fs.StringVar(&opts.Role, "role", "parent", "Duct role: parent|child")
    fs.StringVar(&opts.Transport, "transport", "", "Transport kind: local|tcp (default from config)")
    fs.StringVar(&opts.Addr, "addr", "", "Address to connect to (child role; default $DUCTWORKS_ADDR)")
    fs.StringVar(&opts.Spawn, "spawn", "", "Command to spawn as the child after binding (parent role)")
    _ = fs.Parse(args)
    return opts
}

package main

import (
	"runtime/debug"

	"github.com/marcus/filmlog/cmd"
)

// Version may be set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	v := Version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	cmd.SetVersion(v)
	cmd.Execute()
}

package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func main() {
	bin, err := exec.LookPath("lineloom")
	if err != nil {
		fmt.Fprintln(os.Stderr, "lnl: lineloom not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"lineloom"}, os.Args[1:]...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "lnl: %v\n", err)
		os.Exit(1)
	}
}

// Command test_target is a fixture for exercising the introspection
// layer by hand and from e2e tests: it spawns two child copies of
// itself and keeps both a busy thread and parked threads alive, so
// `tree`, `threads` and the suspend round trip all have something to
// observe.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

func main() {
	child := flag.Bool("child", false, "run as a leaf child: just sleep")
	flag.Parse()

	if *child {
		fmt.Printf("child pid %d\n", os.Getpid())
		time.Sleep(time.Hour)
		return
	}

	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for i := 0; i < 2; i++ {
		cmd := exec.Command(exe, "-child")
		if err := cmd.Start(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("spawned child %d\n", cmd.Process.Pid)
	}

	// One thread spinning, a few parked, so active/idle is observable.
	go busyLoop()
	for i := 0; i < 3; i++ {
		go func() {
			time.Sleep(time.Hour)
		}()
	}

	fmt.Printf("parent pid %d (gomaxprocs %d)\n", os.Getpid(), runtime.GOMAXPROCS(0))
	time.Sleep(time.Hour)
}

func busyLoop() {
	n := 0
	for {
		n++
		if n == 0 {
			return
		}
	}
}

package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/acj/remoteprocess/pkg/api"
	"github.com/acj/remoteprocess/pkg/proc"
	"github.com/acj/remoteprocess/pkg/procmaps"
	"github.com/acj/remoteprocess/pkg/termui"
)

var (
	gitVer  string
	buildAt string
)

func main() {
	pidFlag := &cli.IntFlag{
		Name:     "pid",
		Usage:    "target process id",
		Required: true,
	}

	app := &cli.App{
		Name:  "rproc",
		Usage: "inspect and control processes you don't own the source of",
		Commands: []*cli.Command{
			{
				Name:    "info",
				Aliases: []string{"i"},
				Usage:   "Print a process's executable path and raw command line",
				Flags:   []cli.Flag{pidFlag},
				Action: func(c *cli.Context) error {
					p, err := proc.New(c.Int("pid"))
					if err != nil {
						return err
					}
					defer p.Close()
					exe, err := p.Exe()
					if err != nil {
						return err
					}
					cmdline, err := p.Cmdline()
					if err != nil {
						return err
					}
					fmt.Printf("exe:\t%s\n", exe)
					for _, arg := range cmdline {
						fmt.Printf("cmdline:\t%s\n", arg)
					}
					return nil
				},
			},
			{
				Name:    "threads",
				Aliases: []string{"th"},
				Usage:   "List a process's threads and whether each is active",
				Flags:   []cli.Flag{pidFlag},
				Action: func(c *cli.Context) error {
					p, err := proc.New(c.Int("pid"))
					if err != nil {
						return err
					}
					defer p.Close()
					threads, err := p.Threads()
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "TID\tSTATE")
					for _, t := range threads {
						tid, err := t.ID()
						if err != nil {
							t.Close()
							continue
						}
						state := "idle"
						if active, _ := t.Active(); active {
							state = "active"
						}
						fmt.Fprintf(w, "%d\t%s\n", tid, state)
						t.Close()
					}
					return w.Flush()
				},
			},
			{
				Name:  "tree",
				Usage: "List all descendants of a process as (pid, ppid) pairs",
				Flags: []cli.Flag{pidFlag},
				Action: func(c *cli.Context) error {
					p, err := proc.New(c.Int("pid"))
					if err != nil {
						return err
					}
					defer p.Close()
					edges, err := p.ChildProcesses()
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "PID\tPPID")
					for _, e := range edges {
						fmt.Fprintf(w, "%d\t%d\n", e.Pid, e.Ppid)
					}
					return w.Flush()
				},
			},
			{
				Name:  "maps",
				Usage: "List a process's memory mappings (linux only)",
				Flags: []cli.Flag{pidFlag},
				Action: func(c *cli.Context) error {
					if runtime.GOOS != "linux" {
						return fmt.Errorf("maps is only supported on linux")
					}
					ranges, err := procmaps.ReadProcMaps(c.Int("pid"))
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "START\tEND\tPERM\tFILE")
					for _, r := range ranges {
						fmt.Fprintf(w, "%#x\t%#x\t%s\t%s\n", r.Start, r.End, r.Perm, r.Filename)
					}
					return w.Flush()
				},
			},
			{
				Name:  "read",
				Usage: "Hex dump a region of a process's memory",
				Flags: []cli.Flag{
					pidFlag,
					&cli.StringFlag{Name: "addr", Usage: "start address, e.g. 0x7f0000001000", Required: true},
					&cli.IntFlag{Name: "size", Usage: "bytes to read", Value: 64},
				},
				Action: func(c *cli.Context) error {
					addr, err := strconv.ParseUint(c.String("addr"), 0, 64)
					if err != nil {
						return fmt.Errorf("invalid addr: %w", err)
					}
					p, err := proc.New(c.Int("pid"))
					if err != nil {
						return err
					}
					defer p.Close()
					buf := make([]byte, c.Int("size"))
					if _, err := p.ReadAt(buf, int64(addr)); err != nil {
						return err
					}
					fmt.Print(hex.Dump(buf))
					return nil
				},
			},
			{
				Name:  "suspend",
				Usage: "Suspend a process for a while, then resume it",
				Flags: []cli.Flag{
					pidFlag,
					&cli.DurationFlag{Name: "duration", Usage: "how long to keep the target suspended", Value: 5 * time.Second},
				},
				Action: func(c *cli.Context) error {
					p, err := proc.New(c.Int("pid"))
					if err != nil {
						return err
					}
					defer p.Close()
					lock, err := p.Lock()
					if err != nil {
						return err
					}
					defer lock.Release()
					fmt.Printf("suspended pid %d for %s\n", p.Pid, c.Duration("duration"))
					time.Sleep(c.Duration("duration"))
					return nil
				},
			},
			{
				Name:    "top",
				Aliases: []string{"t"},
				Usage:   "Live top-like view of a process's threads",
				Flags: []cli.Flag{
					pidFlag,
					&cli.IntFlag{Name: "refresh", Usage: "refresh interval in seconds", Value: 2},
				},
				Action: func(c *cli.Context) error {
					p, err := proc.New(c.Int("pid"))
					if err != nil {
						return err
					}
					defer p.Close()
					return termui.NewTopUI(p, c.Int("refresh")).Run()
				},
			},
			{
				Name:  "serve",
				Usage: "Serve process introspection over HTTP",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "port", Usage: "listen port", Value: 8080},
				},
				Action: func(c *cli.Context) error {
					return api.NewServer(c.Int("port")).Start()
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve process introspection as MCP tools on stdio",
				Action: func(c *cli.Context) error {
					return api.ServeStdio(api.NewMCPServer(gitVer))
				},
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "Print build version",
				Action: func(c *cli.Context) error {
					fmt.Println("Git: " + gitVer)
					fmt.Println("Build at: " + buildAt)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"faro/builder/run"
	"faro/internal/clean"
	newcmd "faro/internal/new"
	"faro/internal/scaffold"
	"faro/internal/server"
	"faro/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := dispatch(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "build":
		return run.Run(ctx, args)
	case "publish":
		return publishCmd(ctx, args)
	case "serve":
		return server.Run(ctx, args)
	case "new":
		return newcmd.Run(args)
	case "init":
		return scaffold.Run(args)
	case "clean":
		return clean.Run(args)
	case "version":
		fmt.Println(version.String())
		return nil
	case "help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		fmt.Println("\n🛑 Shutting down...")
		cancel()
	}()
	return ctx, cancel
}

func usage() {
	fmt.Println("Usage: faro <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  build     Build the site into the output directory")
	fmt.Println("  publish   Build, validate and deploy (production or preview)")
	fmt.Println("  serve     Start the dev server with live reload")
	fmt.Println("  new       Create a content file: faro new \"Post Title\"")
	fmt.Println("  init      Initialize a site skeleton here")
	fmt.Println("  clean     Clear the output directory (-cache drops the cache too)")
	fmt.Println("  version   Print the faro version")
	fmt.Println("  help      Show this help")
	fmt.Println()
	fmt.Println("Build flags:   -baseurl URL  -drafts  -future  -theme NAME  -force")
	fmt.Println("Publish flags: -target production|preview  -branch NAME  -actor LOGIN  -dry-run")
	fmt.Println("Serve flags:   -host ADDR  -port N")
}

// viztail is a minimal reference client for a running simulation's
// --viz-socket live event stream: it dials the unix socket and prints each
// JSON-Lines event as it arrives.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"
)

var (
	socketPath = flag.String("socket", "", "unix domain socket path written by --viz-socket")

	mainCtx, mainCancel = context.WithCancel(context.Background())
)

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment variables")
	defer mainCancel()

	if *socketPath == "" {
		panic("-socket path is required")
	}

	conn, err := net.Dial("unix", *socketPath)
	rtx.Must(err, "Could not dial %q", *socketPath)
	defer conn.Close()

	go func() {
		<-mainCtx.Done()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Println(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "viztail:", err)
	}
}

// Command h2wiredump dials an HTTP/2 endpoint, runs the handshake, and
// prints every frame it receives until the connection closes. It exists for
// manual inspection of a live connection, not as a supported
// client library entry point.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/kasimir-io/h2wire"
)

var (
	addr    string
	useTLS  bool
	timeout time.Duration
)

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {})); err != nil {
		fmt.Fprintf(os.Stderr, "h2wiredump: adjusting GOMAXPROCS: %v\n", err)
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "h2wiredump",
		Short: "Dump frames from an HTTP/2 connection for manual inspection",
		RunE:  runDump,
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:443", "host:port to connect to")
	cmd.Flags().BoolVar(&useTLS, "tls", true, "negotiate TLS before the HTTP/2 preface")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "dial timeout")

	return cmd
}

func runDump(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	transport, err := dial(addr, useTLS, timeout)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}

	onFrame := func(c *h2wire.Connection, frh *h2wire.FrameHeader) {
		logger.Sugar().Infof("frame type=%s stream=%d len=%d flags=%#x",
			frh.Type(), frh.Stream(), frh.Len(), frh.Flags())
	}

	conn, err := h2wire.Handshake(cmd.Context(), h2wire.Config{
		IsClient: true,
		Logger:   h2wire.NewZapLogger(logger),
	}, transport, onFrame)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	return conn.Wait(context.Background())
}

func dial(addr string, useTLS bool, timeout time.Duration) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	if !useTLS {
		return dialer.Dial("tcp", addr)
	}

	tlsConn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		NextProtos: []string{"h2"},
	})
	if err != nil {
		return nil, err
	}
	return tlsConn, nil
}

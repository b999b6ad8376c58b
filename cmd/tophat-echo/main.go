// Command tophat-echo is a minimal demonstration server: it accepts
// connections and echoes each request body back as the response text,
// exercising tophat.Accept end to end over a real listener.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/andycostintoma/tophat"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "address to listen on")
	timeout := flag.Duration("timeout", 60*time.Second, "per-connection idle timeout")
	verbose := flag.Bool("verbose-glitch", false, "include Glitch traces in error responses")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		sugar.Fatalw("listen failed", "addr", *addr, "error", err)
	}
	sugar.Infow("listening", "addr", ln.Addr().String())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		sugar.Infow("shutting down")
		ln.Close()
	}()

	opts := tophat.Opts{Timeout: *timeout, VerboseGlitch: *verbose, Logger: sugar}

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				sugar.Errorw("accept failed", "error", err)
				continue
			}
		}
		go serve(conn, opts, sugar)
	}
}

func serve(conn net.Conn, opts tophat.Opts, sugar *zap.SugaredLogger) {
	defer conn.Close()
	if err := tophat.AcceptWithOpts(conn, opts, echo); err != nil {
		sugar.Debugw("connection closed", "remote", conn.RemoteAddr(), "error", err)
	}
}

func echo(ctx context.Context, rw *tophat.ResponseWriter, req *tophat.Request) (tophat.ResponseWritten, *tophat.Glitch) {
	body, err := req.Body.Bytes()
	if err != nil {
		return tophat.ResponseWritten{}, tophat.GlitchFromErr(err).WithStatus(400)
	}
	w, _ := rw.SetText(string(body)).Send(ctx)
	return w, nil
}

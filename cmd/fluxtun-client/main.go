// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Command fluxtun-client accepts local line-oriented connections, partitions
// each one into windows with a boundary predicate, and ships every emitted
// window as its own multiplexed stream over an encrypted KCP session.
package main

import (
	"crypto/sha1"
	"log"
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/smux"
	"golang.org/x/crypto/pbkdf2"

	"github.com/xtaci/windowflux/transport"
	"github.com/xtaci/windowflux/window"
)

const salt = "windowflux"

var version = "SELFBUILD"

func main() {
	if version == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "fluxtun-client"
	app.Usage = "window-partitioned tunnel client (over KCP+smux)"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "localaddr,l", Value: ":12948", Usage: "local listen address"},
		cli.StringFlag{Name: "remoteaddr,r", Value: "vps:29900", Usage: "kcp server address"},
		cli.StringFlag{Name: "key", Value: "it's a secrect", Usage: "pre-shared secret", EnvVar: "FLUXTUN_KEY"},
		cli.StringFlag{Name: "crypt", Value: "aes", Usage: strings.Join(transport.SupportedCiphers(), ", ")},
		cli.StringFlag{Name: "mode", Value: "fast", Usage: "profiles: fast3, fast2, fast, normal, manual"},
		cli.IntFlag{Name: "mtu", Value: 1350, Usage: "maximum transmission unit"},
		cli.IntFlag{Name: "sndwnd", Value: 128, Usage: "send window size (packets)"},
		cli.IntFlag{Name: "rcvwnd", Value: 512, Usage: "receive window size (packets)"},
		cli.IntFlag{Name: "datashard,ds", Value: 10, Usage: "reed-solomon erasure coding datashard"},
		cli.IntFlag{Name: "parityshard,ps", Value: 3, Usage: "reed-solomon erasure coding parityshard"},
		cli.BoolFlag{Name: "nocomp", Usage: "disable per-window snappy compression"},
		cli.IntFlag{Name: "smuxver", Value: 2, Usage: "smux protocol version"},
		cli.IntFlag{Name: "smuxbuf", Value: 4194304, Usage: "overall smux de-mux buffer, bytes"},
		cli.IntFlag{Name: "framesize", Value: 8192, Usage: "smux max frame size"},
		cli.IntFlag{Name: "streambuf", Value: 2097152, Usage: "per-stream receive buffer, bytes, smux v2+"},
		cli.IntFlag{Name: "keepalive", Value: 10, Usage: "seconds between heartbeats"},
		cli.StringFlag{Name: "boundary", Value: "#", Usage: "line that marks a window boundary"},
		cli.StringFlag{Name: "windowmode", Value: "until", Usage: "until, untilcutbefore, while"},
		cli.IntFlag{Name: "prefetch", Value: 32, Usage: "upstream line demand issued to the local connection"},
		cli.StringFlag{Name: "snmplog", Value: "", Usage: "collect operator stats to file, aware of Go time format"},
		cli.IntFlag{Name: "snmpperiod", Value: 60, Usage: "stats collection period, seconds"},
		cli.StringFlag{Name: "log", Value: "", Usage: "log file, default stderr"},
		cli.BoolFlag{Name: "quiet", Usage: "suppress per-window open/close messages"},
		cli.StringFlag{Name: "c", Value: "", Usage: "config from json file, which will override command line arguments"},
	}
	app.Action = run
	app.Run(os.Args)
}

func run(c *cli.Context) error {
	cfg := newClientConfig(c)

	if c.String("c") != "" {
		if err := parseJSONConfig(&cfg, c.String("c")); err != nil {
			return errors.Wrap(err, "parse json config")
		}
	}

	if cfg.Log != "" {
		f, err := os.OpenFile(cfg.Log, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		defer f.Close()
		log.SetOutput(f)
	}

	applyModeProfile(&cfg)

	log.Println("version:", version)
	log.Println("remote address:", cfg.RemoteAddr)
	log.Println("encryption:", cfg.Crypt)
	log.Println("window mode:", cfg.WindowMode, "boundary:", cfg.Boundary)
	log.Println("compression:", !cfg.NoComp)

	pass := pbkdf2.Key([]byte(cfg.Key), []byte(salt), 4096, 32, sha1.New)
	block, effective := transport.SelectBlockCrypt(cfg.Crypt, pass)
	cfg.Crypt = effective

	listener, err := net.Listen("tcp", cfg.LocalAddr)
	if err != nil {
		return errors.Wrap(err, "listen on localaddr")
	}
	log.Println("listening on:", listener.Addr())

	smuxCfg, err := transport.BuildSmuxConfig(cfg.SmuxVer, cfg.SmuxBuf, cfg.StreamBuf, cfg.FrameSize, cfg.KeepAlive)
	if err != nil {
		return errors.Wrap(err, "smux config")
	}

	session, err := dialSession(&cfg, block, smuxCfg)
	if err != nil {
		return errors.Wrap(err, "dial")
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Fatalf("%+v", err)
		}
		go handleLocalConn(&cfg, session, conn)
	}
}

func dialSession(cfg *clientConfig, block kcp.BlockCrypt, smuxCfg *smux.Config) (*smux.Session, error) {
	kcpconn, err := kcp.DialWithOptions(cfg.RemoteAddr, block, cfg.DataShard, cfg.ParityShard)
	if err != nil {
		return nil, err
	}
	kcpconn.SetStreamMode(true)
	kcpconn.SetWriteDelay(false)
	kcpconn.SetNoDelay(cfg.NoDelay, cfg.Interval, cfg.Resend, cfg.NoCongestion)
	kcpconn.SetWindowSize(cfg.SndWnd, cfg.RcvWnd)
	kcpconn.SetMtu(cfg.MTU)

	return smux.Client(kcpconn, smuxCfg)
}

// handleLocalConn windows one accepted local connection's line stream and
// relays every emitted window to the shared smux session, one stream per
// window.
func handleLocalConn(cfg *clientConfig, session *smux.Session, conn net.Conn) {
	defer conn.Close()

	source := transport.NewLineSource(conn)
	boundary := cfg.Boundary
	pred := func(line string) (bool, error) { return line == boundary, nil }

	logln := func(v ...any) {
		if !cfg.Quiet {
			log.Println(v...)
		}
	}

	var op *window.Operator[string]

	wcfg := window.Config[string]{Prefetch: int64(cfg.Prefetch)}
	switch cfg.WindowMode {
	case "untilcutbefore":
		op = window.WindowUntilCutBefore[string](source, pred, wcfg)
	case "while":
		op = window.WindowWhile[string](source, func(line string) (bool, error) { return line != boundary, nil }, wcfg)
	default:
		op = window.WindowUntil[string](source, pred, wcfg)
	}

	logln("windowing connection:", conn.RemoteAddr())

	done := make(chan struct{})
	if cfg.SnmpLog != "" {
		go transport.StatsLogger(cfg.SnmpLog, cfg.SnmpPeriod, op, done)
	}

	sink := transport.NewStreamWindowSink(session, !cfg.NoComp, func(err error) {
		logln("window stream error:", conn.RemoteAddr(), err)
	})
	op.Subscribe(sink)
	<-sink.Done()
	close(done)
	logln("connection drained:", conn.RemoteAddr())
}

func applyModeProfile(cfg *clientConfig) {
	switch cfg.Mode {
	case "normal":
		cfg.NoDelay, cfg.Interval, cfg.Resend, cfg.NoCongestion = 0, 40, 2, 1
	case "fast":
		cfg.NoDelay, cfg.Interval, cfg.Resend, cfg.NoCongestion = 0, 30, 2, 1
	case "fast2":
		cfg.NoDelay, cfg.Interval, cfg.Resend, cfg.NoCongestion = 1, 20, 2, 1
	case "fast3":
		cfg.NoDelay, cfg.Interval, cfg.Resend, cfg.NoCongestion = 1, 10, 2, 1
	}
}

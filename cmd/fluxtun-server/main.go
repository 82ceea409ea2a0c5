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

// Command fluxtun-server accepts KCP sessions from fluxtun-client, and for
// every multiplexed smux stream -- one per emitted window -- reassembles
// and prints its line-oriented contents, bracketed by an open/close marker
// so window boundaries survive onto the server's own output.
package main

import (
	"crypto/sha1"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/smux"
	"golang.org/x/crypto/pbkdf2"

	"github.com/xtaci/windowflux/transport"
)

const salt = "windowflux"

var version = "SELFBUILD"

func main() {
	if version == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "fluxtun-server"
	app.Usage = "window-partitioned tunnel server (over KCP+smux)"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "listen,l", Value: ":29900", Usage: "kcp listen address"},
		cli.StringFlag{Name: "key", Value: "it's a secrect", Usage: "pre-shared secret", EnvVar: "FLUXTUN_KEY"},
		cli.StringFlag{Name: "crypt", Value: "aes", Usage: strings.Join(transport.SupportedCiphers(), ", ")},
		cli.IntFlag{Name: "mtu", Value: 1350, Usage: "maximum transmission unit"},
		cli.IntFlag{Name: "sndwnd", Value: 1024, Usage: "send window size (packets)"},
		cli.IntFlag{Name: "rcvwnd", Value: 1024, Usage: "receive window size (packets)"},
		cli.IntFlag{Name: "datashard,ds", Value: 10, Usage: "reed-solomon erasure coding datashard"},
		cli.IntFlag{Name: "parityshard,ps", Value: 3, Usage: "reed-solomon erasure coding parityshard"},
		cli.BoolFlag{Name: "nocomp", Usage: "disable per-window snappy compression"},
		cli.IntFlag{Name: "smuxver", Value: 2, Usage: "smux protocol version"},
		cli.IntFlag{Name: "smuxbuf", Value: 4194304, Usage: "overall smux de-mux buffer, bytes"},
		cli.IntFlag{Name: "framesize", Value: 8192, Usage: "smux max frame size"},
		cli.IntFlag{Name: "streambuf", Value: 2097152, Usage: "per-stream receive buffer, bytes, smux v2+"},
		cli.IntFlag{Name: "keepalive", Value: 10, Usage: "seconds between heartbeats"},
		cli.StringFlag{Name: "log", Value: "", Usage: "log file, default stderr"},
		cli.BoolFlag{Name: "quiet", Usage: "suppress per-window open/close messages"},
		cli.StringFlag{Name: "c", Value: "", Usage: "config from json file, which will override command line arguments"},
	}
	app.Action = run
	app.Run(os.Args)
}

func run(c *cli.Context) error {
	cfg := newServerConfig(c)

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

	log.Println("version:", version)
	log.Println("listen address:", cfg.Listen)
	log.Println("encryption:", cfg.Crypt)

	pass := pbkdf2.Key([]byte(cfg.Key), []byte(salt), 4096, 32, sha1.New)
	block, effective := transport.SelectBlockCrypt(cfg.Crypt, pass)
	cfg.Crypt = effective

	listener, err := kcp.ListenWithOptions(cfg.Listen, block, cfg.DataShard, cfg.ParityShard)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	log.Println("listening on:", listener.Addr())

	smuxCfg, err := transport.BuildSmuxConfig(cfg.SmuxVer, cfg.SmuxBuf, cfg.StreamBuf, cfg.FrameSize, cfg.KeepAlive)
	if err != nil {
		return errors.Wrap(err, "smux config")
	}

	var windowSeq int64
	for {
		kcpconn, err := listener.AcceptKCP()
		if err != nil {
			log.Fatalf("%+v", err)
		}
		kcpconn.SetStreamMode(true)
		kcpconn.SetWriteDelay(false)
		kcpconn.SetWindowSize(cfg.SndWnd, cfg.RcvWnd)
		kcpconn.SetMtu(cfg.MTU)
		go handleSession(&cfg, kcpconn, smuxCfg, &windowSeq)
	}
}

func handleSession(cfg *serverConfig, kcpconn *kcp.UDPSession, smuxCfg *smux.Config, windowSeq *int64) {
	session, err := smux.Server(kcpconn, smuxCfg)
	if err != nil {
		log.Println("smux.Server:", err)
		return
	}
	defer session.Close()

	logln := func(v ...any) {
		if !cfg.Quiet {
			log.Println(v...)
		}
	}
	logln("session accepted:", kcpconn.RemoteAddr())
	defer logln("session closed:", kcpconn.RemoteAddr())

	for {
		stream, err := session.AcceptStream()
		if err != nil {
			if err != io.EOF {
				logln("accept stream:", err)
			}
			return
		}
		go handleWindowStream(cfg, stream, atomic.AddInt64(windowSeq, 1))
	}
}

// handleWindowStream reassembles exactly one window's line-oriented
// contents from stream and prints them, bracketed so the boundary each
// window represents is visible downstream of the tunnel.
func handleWindowStream(cfg *serverConfig, stream *smux.Stream, id int64) {
	defer stream.Close()

	var src io.Reader = stream
	if !cfg.NoComp {
		src = transport.NewCompStream(stream)
	}

	fmt.Printf("--- window %d open ---\n", id)
	defer fmt.Printf("--- window %d close ---\n", id)

	if _, err := transport.Copy(os.Stdout, src); err != nil && err != io.EOF {
		log.Println("window", id, "copy:", err)
	}
}

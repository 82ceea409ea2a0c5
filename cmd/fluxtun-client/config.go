package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli"
)

// clientConfig mirrors the flag set registered on the cli.App, plus the
// KCP nodelay quadruplet derived from the chosen profile. Every field
// carries a json tag so the same struct doubles as the decode target for
// an optional -c config file, which overrides whatever the flags set.
type clientConfig struct {
	LocalAddr  string `json:"localaddr"`
	RemoteAddr string `json:"remoteaddr"`
	Key        string `json:"key"`
	Crypt      string `json:"crypt"`
	Mode       string `json:"mode"`

	MTU         int  `json:"mtu"`
	SndWnd      int  `json:"sndwnd"`
	RcvWnd      int  `json:"rcvwnd"`
	DataShard   int  `json:"datashard"`
	ParityShard int  `json:"parityshard"`
	NoComp      bool `json:"nocomp"`

	SmuxVer   int `json:"smuxver"`
	SmuxBuf   int `json:"smuxbuf"`
	FrameSize int `json:"framesize"`
	StreamBuf int `json:"streambuf"`
	KeepAlive int `json:"keepalive"`

	Boundary   string `json:"boundary"`
	WindowMode string `json:"windowmode"`
	Prefetch   int    `json:"prefetch"`

	SnmpLog    string `json:"snmplog"`
	SnmpPeriod int    `json:"snmpperiod"`
	Log        string `json:"log"`
	Quiet      bool   `json:"quiet"`

	NoDelay, Interval, Resend, NoCongestion int
}

func newClientConfig(c *cli.Context) clientConfig {
	return clientConfig{
		LocalAddr:   c.String("localaddr"),
		RemoteAddr:  c.String("remoteaddr"),
		Key:         c.String("key"),
		Crypt:       c.String("crypt"),
		Mode:        c.String("mode"),
		MTU:         c.Int("mtu"),
		SndWnd:      c.Int("sndwnd"),
		RcvWnd:      c.Int("rcvwnd"),
		DataShard:   c.Int("datashard"),
		ParityShard: c.Int("parityshard"),
		NoComp:      c.Bool("nocomp"),
		SmuxVer:     c.Int("smuxver"),
		SmuxBuf:     c.Int("smuxbuf"),
		FrameSize:   c.Int("framesize"),
		StreamBuf:   c.Int("streambuf"),
		KeepAlive:   c.Int("keepalive"),
		Boundary:    c.String("boundary"),
		WindowMode:  c.String("windowmode"),
		Prefetch:    c.Int("prefetch"),
		SnmpLog:     c.String("snmplog"),
		SnmpPeriod:  c.Int("snmpperiod"),
		Log:         c.String("log"),
		Quiet:       c.Bool("quiet"),
	}
}

// parseJSONConfig decodes path over cfg, overriding whichever fields the
// file sets and leaving the rest at their flag-derived values.
func parseJSONConfig(cfg *clientConfig, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cfg)
}

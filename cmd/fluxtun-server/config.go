package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli"
)

// serverConfig carries a json tag per field so it doubles as the decode
// target for an optional -c config file, which overrides whatever the
// flags set.
type serverConfig struct {
	Listen string `json:"listen"`
	Key    string `json:"key"`
	Crypt  string `json:"crypt"`

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

	Log   string `json:"log"`
	Quiet bool   `json:"quiet"`
}

func newServerConfig(c *cli.Context) serverConfig {
	return serverConfig{
		Listen:      c.String("listen"),
		Key:         c.String("key"),
		Crypt:       c.String("crypt"),
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
		Log:         c.String("log"),
		Quiet:       c.Bool("quiet"),
	}
}

// parseJSONConfig decodes path over cfg, overriding whichever fields the
// file sets and leaving the rest at their flag-derived values.
func parseJSONConfig(cfg *serverConfig, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cfg)
}

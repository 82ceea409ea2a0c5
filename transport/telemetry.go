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

package transport

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xtaci/windowflux/window"
)

// StatsLogger periodically samples a window.Scannable (normally the
// top-level Operator the client command built for one connection)
// and appends one CSV row per tick, the same "split path into
// dir/timestamped-file, write header once" shape std/snmp.go used for
// kcp.DefaultSnmp, generalized to this package's own Scannable attributes
// instead of KCP's wire counters. It returns once done is closed or the
// sampled operator reports AttrTerminated.
func StatsLogger(path string, interval int, target window.Scannable, done <-chan struct{}) {
	if path == "" || interval == 0 || target == nil {
		return
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			logdir, logfile := filepath.Split(path)
			f, err := os.OpenFile(logdir+time.Now().Format(logfile), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			if err != nil {
				log.Println(err)
				return
			}
			w := csv.NewWriter(f)
			if stat, err := f.Stat(); err == nil && stat.Size() == 0 {
				if err := w.Write(statsHeader); err != nil {
					log.Println(err)
				}
			}
			if err := w.Write(statsRow(target)); err != nil {
				log.Println(err)
			}
			w.Flush()
			f.Close()
			if terminated, _ := target.ScanAttr(window.AttrTerminated).(bool); terminated {
				return
			}
		}
	}
}

var statsHeader = []string{"Unix", "Requested", "Buffered", "Terminated", "Cancelled"}

func statsRow(s window.Scannable) []string {
	requested, _ := s.ScanAttr(window.AttrRequestedFromDownstream).(int64)
	buffered, _ := s.ScanAttr(window.AttrBuffered).(bool)
	terminated, _ := s.ScanAttr(window.AttrTerminated).(bool)
	cancelled, _ := s.ScanAttr(window.AttrCancelled).(bool)
	return []string{
		fmt.Sprint(time.Now().Unix()),
		fmt.Sprint(requested),
		fmt.Sprint(buffered),
		fmt.Sprint(terminated),
		fmt.Sprint(cancelled),
	}
}

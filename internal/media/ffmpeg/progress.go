package ffmpeg

import (
	"strconv"
	"strings"
	"time"
)

// Progress is one block of "-progress" key=value output.
type Progress struct {
	Frame   int
	FPS     float64
	OutTime time.Duration
	Speed   string
	// Percent is in [0,100] when the input duration is known, else -1.
	Percent float64
	Done    bool
}

// ProgressFunc receives progress updates while ffmpeg runs.
type ProgressFunc func(Progress)

// progressParser accumulates key=value lines until a "progress=" line closes
// the block.
type progressParser struct {
	total   time.Duration
	current Progress
}

func newProgressParser(total time.Duration) *progressParser {
	return &progressParser{total: total}
}

// feed consumes one line and returns a completed block when the line ends one.
func (p *progressParser) feed(line string) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}
	value = strings.TrimSpace(value)
	switch key {
	case "frame":
		p.current.Frame, _ = strconv.Atoi(value)
	case "fps":
		p.current.FPS, _ = strconv.ParseFloat(value, 64)
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
			p.current.OutTime = time.Duration(us) * time.Microsecond
		}
	case "speed":
		p.current.Speed = value
	case "progress":
		block := p.current
		block.Done = value == "end"
		block.Percent = p.percent(block)
		p.current = Progress{}
		return block, true
	}
	return Progress{}, false
}

func (p *progressParser) percent(block Progress) float64 {
	if block.Done && p.total > 0 {
		return 100
	}
	if p.total <= 0 {
		return -1
	}
	pct := float64(block.OutTime) / float64(p.total) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

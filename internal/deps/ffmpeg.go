package deps

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionProbeTimeout = 5 * time.Second

// MediaRequirements lists the ffmpeg toolchain binaries used by the pipeline.
func MediaRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Extracts audio, burns captions, mixes music and encodes output"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Reads input duration and stream layout"},
	}
}

// CheckMedia checks the ffmpeg toolchain and fills in version strings for
// the binaries that resolve.
func CheckMedia(ctx context.Context, ffmpegBinary, ffprobeBinary string) []Status {
	statuses := CheckBinaries(MediaRequirements(ffmpegBinary, ffprobeBinary))
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		statuses[i].Version = Version(ctx, statuses[i].Path)
	}
	return statuses
}

// Version runs "<binary> -version" and returns the version token from the
// first line ("ffmpeg version 6.1.1 Copyright ..." yields "6.1.1"). It
// returns "" when the binary fails or prints something unexpected.
func Version(ctx context.Context, binary string) string {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	return parseVersionLine(out)
}

func parseVersionLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return ""
	}
	fields := strings.Fields(scanner.Text())
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "version" {
			return fields[i+1]
		}
	}
	return ""
}

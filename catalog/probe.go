package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeResult is the subset of ffprobe output the catalog needs.
type ProbeResult struct {
	Duration  float64
	Width     int
	Height    int
	Bitrate   int64
	FrameRate float64
}

// Prober inspects a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// FFprobe runs the ffprobe binary at Path.
type FFprobe struct {
	Path string
}

// Probe runs a single ffprobe JSON call against path.
func (f FFprobe) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	bin := f.Path
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseProbe(out)
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	BitRate     string         `json:"bit_rate"`
	RFrameRate  string         `json:"r_frame_rate"`
	Disposition map[string]int `json:"disposition"`
}

// ParseProbe converts raw ffprobe JSON into a ProbeResult. The first video
// stream that is not cover art is used; a file without one is an error.
func ParseProbe(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	var video *ffprobeStream
	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType == "video" && s.Disposition["attached_pic"] == 0 {
			video = s
			break
		}
	}
	if video == nil {
		return nil, errors.New("no video stream")
	}

	res := &ProbeResult{
		Duration:  parseFloat(raw.Format.Duration),
		Width:     video.Width,
		Height:    video.Height,
		Bitrate:   parseInt64(video.BitRate),
		FrameRate: parseRate(video.RFrameRate),
	}
	if res.Bitrate <= 0 {
		res.Bitrate = parseInt64(raw.Format.BitRate)
	}
	return res, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt64(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseRate parses "30000/1001" or "25".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}

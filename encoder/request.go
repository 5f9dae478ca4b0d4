package encoder

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/user/clipcutter/clip"
)

// Request is everything one encoder invocation needs.
type Request struct {
	Input        string
	Output       string
	Seek         float64 // seconds into Input
	Duration     float64 // seconds to read
	VideoBitrate int64   // bits per second; 0 leaves the encoder default
}

// NewRequest derives the invocation for a matched job at the given quality.
func NewRequest(job *clip.Job, q clip.Quality) (Request, error) {
	if job.Recording == nil {
		return Request{}, errors.New("job has no matched recording")
	}
	req := Request{
		Input:        job.Recording.Path,
		Output:       job.Request.OutputPath,
		Seek:         job.Seek(),
		Duration:     job.Length(),
		VideoBitrate: clip.TargetBitrate(job.Recording.Bitrate, q),
	}
	if req.Seek < 0 {
		return Request{}, fmt.Errorf("clip starts %.3fs before its recording", -req.Seek)
	}
	if req.Duration <= 0 {
		return Request{}, fmt.Errorf("clip duration %.3fs is not positive", req.Duration)
	}
	return req, nil
}

// Encoding settings fixed for every clip.
const (
	VideoCodec   = "libx264"
	Preset       = "medium"
	AudioCodec   = "aac"
	AudioBitrate = "128k"
)

// Args builds the ffmpeg argument list for req. Seeking happens before -i so
// ffmpeg jumps by keyframe instead of decoding from the start of the file.
func Args(req Request) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-ss", formatSeconds(req.Seek),
		"-i", req.Input,
		"-t", formatSeconds(req.Duration),
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", VideoCodec,
		"-preset", Preset,
	}
	if req.VideoBitrate > 0 {
		args = append(args, "-b:v", strconv.FormatInt(req.VideoBitrate, 10))
	}
	args = append(args,
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		req.Output,
	)
	return args
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

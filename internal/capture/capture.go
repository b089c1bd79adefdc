// Package capture runs ffmpeg as a child process to pull a single
// still frame or a short video clip from a video device
// (motdec.c's capture_img/capture_video), replacing fork+execv with
// os/exec and a context.Context deadline in place of the original's
// unconditional blocking waitpid.
package capture

import (
	"context"
	"fmt"
	"os/exec"
)

// FFmpegCapturer shells out to a configured ffmpeg binary to read
// frames from videoDevice at the given resolution.
type FFmpegCapturer struct {
	FFmpegPath  string
	VideoDevice string
	Resolution  string // "WIDTHxHEIGHT"
}

// NewFFmpegCapturer returns a capturer bound to the given binary,
// device, and resolution.
func NewFFmpegCapturer(ffmpegPath, videoDevice, resolution string) *FFmpegCapturer {
	return &FFmpegCapturer{
		FFmpegPath:  ffmpegPath,
		VideoDevice: videoDevice,
		Resolution:  resolution,
	}
}

// Image captures a single still frame to filename as a 24-bit BMP.
func (c *FFmpegCapturer) Image(ctx context.Context, filename string) error {
	args := []string{
		"-y", "-loglevel", "panic",
		"-f", "video4linux2",
		"-i", c.VideoDevice,
		"-vframes", "1",
		"-s", c.Resolution,
		filename,
	}
	return c.run(ctx, args)
}

// Video captures a clip of the given duration to filename.
func (c *FFmpegCapturer) Video(ctx context.Context, filename string, duration int) error {
	args := []string{
		"-y", "-loglevel", "panic",
		"-framerate", "20",
		"-video_size", c.Resolution,
		"-t", fmt.Sprintf("%d", duration),
		"-i", c.VideoDevice,
		"-movflags", "+faststart",
		filename,
	}
	return c.run(ctx, args)
}

func (c *FFmpegCapturer) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg capture failed: %w (%s)", err, out)
	}
	return nil
}

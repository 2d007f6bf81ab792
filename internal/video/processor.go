// Package video styles video files frame by frame using ffmpeg.
package video

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/style-studio/backend/internal/logging"
)

const (
	defaultFrameRate = 30.0
	progressEvery    = 30
	framePattern     = "frame_%06d.jpg"
	styledPattern    = "styled_%06d.jpg"
)

// FrameStyler styles a single extracted frame.
type FrameStyler interface {
	Apply(src, dst, style string) error
}

// ProgressFunc receives the number of styled frames and the total frame count.
type ProgressFunc func(done, total int)

// Processor runs the extract, style, reassemble pipeline.
type Processor struct {
	ffmpeg  string
	ffprobe string
	tempDir string
	styler  FrameStyler
	log     *log.Logger
}

// NewProcessor creates a processor. Empty binary paths fall back to ffmpeg/ffprobe on PATH.
func NewProcessor(ffmpeg, ffprobe, tempDir string, styler FrameStyler) *Processor {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &Processor{
		ffmpeg:  ffmpeg,
		ffprobe: ffprobe,
		tempDir: tempDir,
		styler:  styler,
		log:     logging.WithPrefix("video"),
	}
}

// Available returns the first line of `ffmpeg -version`, or an error when ffmpeg cannot run.
func (p *Processor) Available(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, p.ffmpeg, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg not available: %w", err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// Process styles every frame of input and writes an H.264 MP4 to output.
// The audio track is not carried over.
func (p *Processor) Process(ctx context.Context, input, output, style string, progress ProgressFunc) error {
	workDir, err := os.MkdirTemp(p.tempDir, "frames-")
	if err != nil {
		return fmt.Errorf("creating frame directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	fps, err := p.FrameRate(ctx, input)
	if err != nil {
		p.log.Warn("could not probe frame rate, using default", "input", input, "err", err, "fps", defaultFrameRate)
		fps = defaultFrameRate
	}

	if err := p.run(ctx, "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-qscale:v", "2",
		filepath.Join(workDir, framePattern),
	); err != nil {
		return fmt.Errorf("extracting frames: %w", err)
	}

	frames, err := listFrames(workDir)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames extracted from %s", filepath.Base(input))
	}

	p.log.Info("processing frames", "frames", len(frames), "fps", fps, "style", style)
	if err := p.styleFrames(ctx, frames, style, progress); err != nil {
		return err
	}

	if err := p.run(ctx, "-hide_banner", "-loglevel", "error",
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", filepath.Join(workDir, styledPattern),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-movflags", "+faststart",
		"-y", output,
	); err != nil {
		return fmt.Errorf("encoding video: %w", err)
	}

	p.log.Info("video processing completed", "output", filepath.Base(output))
	return nil
}

// styleFrames writes each frame's styled copy next to it as styled_NNNNNN.jpg.
// Extracted frames are never overwritten.
func (p *Processor) styleFrames(ctx context.Context, frames []string, style string, progress ProgressFunc) error {
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.styler.Apply(frame, styledPath(frame), style); err != nil {
			return fmt.Errorf("styling frame %d: %w", i, err)
		}
		done := i + 1
		if done%progressEvery == 0 || done == len(frames) {
			p.log.Debug("styled frames", "done", done, "total", len(frames))
			if progress != nil {
				progress(done, len(frames))
			}
		}
	}
	return nil
}

func styledPath(frame string) string {
	return filepath.Join(filepath.Dir(frame), "styled_"+strings.TrimPrefix(filepath.Base(frame), "frame_"))
}

// FrameRate probes the first video stream's frame rate.
func (p *Processor) FrameRate(ctx context.Context, input string) (float64, error) {
	out, err := exec.CommandContext(ctx, p.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return ParseFrameRate(string(out))
}

// ParseFrameRate parses ffprobe rates such as "30000/1001" or "25".
func ParseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, den, isRatio := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	if isRatio {
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("invalid frame rate %q", s)
		}
		n /= d
	}
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return n, nil
}

func (p *Processor) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, p.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg error: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frames: %w", err)
	}
	frames := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "frame_") {
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/style-studio/backend/internal/style"
)

type countingStyler struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (c *countingStyler) Apply(src, dst, style string) error {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.failOn != "" && filepath.Base(src) == c.failOn {
		return errors.New("filter exploded")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, append([]byte("styled:"), data...), 0644)
}

func writeFrames(t *testing.T, dir string, n int) []string {
	t.Helper()
	frames := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		path := filepath.Join(dir, fmt.Sprintf(framePattern, i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("frame %d", i)), 0644))
		frames = append(frames, path)
	}
	return frames
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"30/1\n", 30, false},
		{"25", 25, false},
		{"30000/1001", 30000.0 / 1001.0, false},
		{"0/0", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
		{"Inf/2", 0, true},
		{"1/0", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrameRate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestListFrames_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"frame_000002.jpg", "frame_000001.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	frames, err := listFrames(dir)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "frame_000001.jpg", filepath.Base(frames[0]))
}

func TestStyleFrames_WritesSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	frames := writeFrames(t, dir, 3)
	styler := &countingStyler{}
	p := NewProcessor("", "", dir, styler)

	var calls [][2]int
	err := p.styleFrames(context.Background(), frames, "cartoon", func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)

	for i, frame := range frames {
		orig, err := os.ReadFile(frame)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("frame %d", i+1), string(orig))

		styled, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf(styledPattern, i+1)))
		require.NoError(t, err)
		assert.Equal(t, "styled:"+string(orig), string(styled))
	}
	assert.Equal(t, [][2]int{{3, 3}}, calls)

	// Styled copies are not picked up as extracted frames.
	listed, err := listFrames(dir)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestStyleFrames_StopsOnFailingFrame(t *testing.T) {
	dir := t.TempDir()
	frames := writeFrames(t, dir, 3)
	styler := &countingStyler{failOn: "frame_000002.jpg"}
	p := NewProcessor("", "", dir, styler)

	err := p.styleFrames(context.Background(), frames, "cartoon", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "styling frame 1")
	assert.Equal(t, 2, styler.calls)

	orig, err := os.ReadFile(frames[1])
	require.NoError(t, err)
	assert.Equal(t, "frame 2", string(orig))
	assert.NoFileExists(t, filepath.Join(dir, fmt.Sprintf(styledPattern, 3)))
}

func TestStyleFrames_UndecodableFramesKeepTheirBytes(t *testing.T) {
	dir := t.TempDir()
	frames := writeFrames(t, dir, 2)
	p := NewProcessor("", "", dir, style.NewTransfer(nil))

	require.NoError(t, p.styleFrames(context.Background(), frames, "sketch", nil))

	for i := range frames {
		styled, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf(styledPattern, i+1)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("frame %d", i+1), string(styled))
	}
}

func TestStyleFrames_Cancelled(t *testing.T) {
	dir := t.TempDir()
	frames := writeFrames(t, dir, 2)
	styler := &countingStyler{}
	p := NewProcessor("", "", dir, styler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.styleFrames(ctx, frames, "cartoon", nil), context.Canceled)
	assert.Equal(t, 0, styler.calls)
}

func TestProcess_MissingFFmpeg(t *testing.T) {
	p := NewProcessor(filepath.Join(t.TempDir(), "no-ffmpeg"), filepath.Join(t.TempDir(), "no-ffprobe"), t.TempDir(), &countingStyler{})
	err := p.Process(context.Background(), "in.mp4", "out.mp4", "cartoon", nil)
	assert.Error(t, err)

	_, err = p.Available(context.Background())
	assert.Error(t, err)
}

func TestProcess_EndToEnd(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mp4")
	gen := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=64x48:rate=10",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-y", input)
	if err := gen.Run(); err != nil {
		t.Skipf("ffmpeg cannot generate test input: %v", err)
	}

	styler := &countingStyler{}
	p := NewProcessor("", "", dir, styler)
	var last, total int
	output := filepath.Join(dir, "out.mp4")
	err := p.Process(context.Background(), input, output, "sketch", func(done, n int) {
		last, total = done, n
	})
	require.NoError(t, err)

	assert.Greater(t, styler.calls, 0)
	assert.Equal(t, total, last)
	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

package platform

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

const pcmList = `00-00: ALC257 Analog : ALC257 Analog : playback 1 : capture 1
00-03: HDMI 0 : HDMI 0 : playback 1
01-00: USB Audio : USB Audio : capture 1
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fakeTree(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sys/class/video4linux/video0/name"), "Integrated Camera\n")
	writeFile(t, filepath.Join(root, "sys/class/video4linux/video0/index"), "0\n")
	writeFile(t, filepath.Join(root, "sys/class/video4linux/video1/name"), "Integrated Camera\n")
	writeFile(t, filepath.Join(root, "sys/class/video4linux/video1/index"), "1\n")
	writeFile(t, filepath.Join(root, "sys/class/video4linux/video10/name"), "Logitech BRIO\n")
	writeFile(t, filepath.Join(root, "sys/class/video4linux/video2/name"), "USB Capture\n")
	writeFile(t, filepath.Join(root, "proc/asound/pcm"), pcmList)
	writeFile(t, filepath.Join(root, "proc/asound/card0/pcm0c/sub0/status"), "closed\n")
	writeFile(t, filepath.Join(root, "proc/asound/card1/pcm0c/sub0/status"), "state: RUNNING\nowner_pid   : 1234\n")
	writeFile(t, filepath.Join(root, "proc/asound/card0/pcm3p/sub0/status"), "state: RUNNING\n")
	writeFile(t, filepath.Join(root, "dev/video0"), "")
	writeFile(t, filepath.Join(root, "dev/snd/pcmC0D0c"), "")
	return root
}

func TestEnumerate(t *testing.T) {
	p := NewLinux(fakeTree(t), nil)

	devices, err := p.Enumerate(context.Background())
	require.NoError(t, err)
	require.Equal(t, []entities.Device{
		{ID: "/dev/video0", Label: "Integrated Camera", Kind: entities.DeviceKindVideoInput},
		{ID: "/dev/video2", Label: "USB Capture", Kind: entities.DeviceKindVideoInput},
		{ID: "/dev/video10", Label: "Logitech BRIO", Kind: entities.DeviceKindVideoInput},
		{ID: "hw:0,0", Label: "ALC257 Analog", Kind: entities.DeviceKindAudioInput},
		{ID: "hw:1,0", Label: "USB Audio", Kind: entities.DeviceKindAudioInput},
		{ID: "hw:0,0", Label: "ALC257 Analog", Kind: entities.DeviceKindAudioOutput},
		{ID: "hw:0,3", Label: "HDMI 0", Kind: entities.DeviceKindAudioOutput},
	}, devices)
}

func TestEnumerateHidesLabelsAfterDeniedProbe(t *testing.T) {
	p := NewLinux(fakeTree(t), nil)
	p.labelsHidden.Store(true)

	devices, err := p.Enumerate(context.Background())
	require.NoError(t, err)
	for _, d := range devices {
		require.Empty(t, d.Label)
	}

	// a successful probe unlocks the labels again
	require.NoError(t, p.Probe(context.Background()))
	devices, err = p.Enumerate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Integrated Camera", devices[0].Label)
}

func TestEnumerateEmptyHost(t *testing.T) {
	p := NewLinux(t.TempDir(), nil)

	devices, err := p.Enumerate(context.Background())
	require.NoError(t, err)
	require.Empty(t, devices)
	require.NoError(t, p.Probe(context.Background()))
}

func TestActiveDevice(t *testing.T) {
	p := NewLinux(fakeTree(t), nil)

	id, ok := p.ActiveDevice(entities.DeviceKindAudioInput)
	require.True(t, ok)
	require.Equal(t, "hw:1,0", id)

	id, ok = p.ActiveDevice(entities.DeviceKindAudioOutput)
	require.True(t, ok)
	require.Equal(t, "hw:0,3", id)

	_, ok = p.ActiveDevice(entities.DeviceKindVideoInput)
	require.False(t, ok)
}

func TestParsePCMLine(t *testing.T) {
	card, device, label, playback, capture, ok := parsePCMLine("01-02: USB Audio #1 : USB Audio #1 : playback 1")
	require.True(t, ok)
	require.Equal(t, 1, card)
	require.Equal(t, 2, device)
	require.Equal(t, "USB Audio #1", label)
	require.True(t, playback)
	require.False(t, capture)

	_, _, _, _, _, ok = parsePCMLine("garbage")
	require.False(t, ok)
}

func TestWatchCoalescesHotPlug(t *testing.T) {
	root := fakeTree(t)
	p := NewLinux(root, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx, func() { calls.Add(1) }) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "dev/video4"), "")
	writeFile(t, filepath.Join(root, "dev/video5"), "")
	writeFile(t, filepath.Join(root, "dev/tty9"), "")

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(root, "dev/snd/pcmC0D0c")))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

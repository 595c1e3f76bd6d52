package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
)

const debounceDelay = 250 * time.Millisecond

// Linux enumerates V4L2 cameras from sysfs and ALSA PCM devices from procfs.
// All paths are resolved under root so tests can use a fake tree.
type Linux struct {
	root         string
	labelsHidden atomic.Bool
	logger       *zap.Logger
}

// NewLinux creates a device platform rooted at root ("/" on a real host)
func NewLinux(root string, logger *zap.Logger) *Linux {
	if root == "" {
		root = "/"
	}
	return &Linux{root: root, logger: logger}
}

func (l *Linux) path(parts ...string) string {
	return filepath.Join(append([]string{l.root}, parts...)...)
}

// Probe opens the first camera node and the first capture PCM and closes them
// again. Labels stay hidden until a probe succeeds.
func (l *Linux) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var nodes []string
	if cams, _ := filepath.Glob(l.path("dev", "video*")); len(cams) > 0 {
		sort.Strings(cams)
		nodes = append(nodes, cams[0])
	}
	if pcms, _ := filepath.Glob(l.path("dev", "snd", "pcmC*D*c")); len(pcms) > 0 {
		sort.Strings(pcms)
		nodes = append(nodes, pcms[0])
	}

	for _, node := range nodes {
		f, err := os.OpenFile(node, os.O_RDONLY, 0)
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				l.labelsHidden.Store(true)
				return fmt.Errorf("%w: %v", gateways.ErrCaptureDenied, err)
			}
			// busy or vanished devices do not affect label access
			continue
		}
		_ = f.Close()
	}

	l.labelsHidden.Store(false)
	return nil
}

// Enumerate lists cameras, microphones and speakers in a stable order
func (l *Linux) Enumerate(ctx context.Context) ([]entities.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cameras, err := l.cameras()
	if err != nil {
		return nil, err
	}
	pcms, err := l.pcms()
	if err != nil {
		return nil, err
	}

	devices := append(cameras, pcms...)
	if l.labelsHidden.Load() {
		for i := range devices {
			devices[i].Label = ""
		}
	}
	return devices, nil
}

// cameras reads /sys/class/video4linux. Only the capture node of each camera
// (index 0) is listed.
func (l *Linux) cameras() ([]entities.Device, error) {
	entries, err := os.ReadDir(l.path("sys", "class", "video4linux"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read video4linux: %w", err)
	}

	var devices []entities.Device
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "video") {
			continue
		}
		dir := l.path("sys", "class", "video4linux", name)
		if index, err := readTrimmed(filepath.Join(dir, "index")); err == nil && index != "0" {
			continue
		}
		label, _ := readTrimmed(filepath.Join(dir, "name"))
		devices = append(devices, entities.Device{
			ID:    "/dev/" + name,
			Label: label,
			Kind:  entities.DeviceKindVideoInput,
		})
	}

	sort.Slice(devices, func(i, j int) bool {
		return nodeNumber(devices[i].ID) < nodeNumber(devices[j].ID)
	})
	return devices, nil
}

// pcms parses /proc/asound/pcm, e.g.
//
//	00-00: ALC257 Analog : ALC257 Analog : playback 1 : capture 1
func (l *Linux) pcms() ([]entities.Device, error) {
	f, err := os.Open(l.path("proc", "asound", "pcm"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asound pcm list: %w", err)
	}
	defer f.Close()

	var mics, speakers []entities.Device
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		card, device, label, playback, capture, ok := parsePCMLine(scanner.Text())
		if !ok {
			continue
		}
		id := fmt.Sprintf("hw:%d,%d", card, device)
		if capture {
			mics = append(mics, entities.Device{ID: id, Label: label, Kind: entities.DeviceKindAudioInput})
		}
		if playback {
			speakers = append(speakers, entities.Device{ID: id, Label: label, Kind: entities.DeviceKindAudioOutput})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan asound pcm list: %w", err)
	}

	return append(mics, speakers...), nil
}

func parsePCMLine(line string) (card, device int, label string, playback, capture bool, ok bool) {
	head, rest, found := strings.Cut(line, ":")
	if !found {
		return 0, 0, "", false, false, false
	}
	cardStr, devStr, found := strings.Cut(strings.TrimSpace(head), "-")
	if !found {
		return 0, 0, "", false, false, false
	}
	c, err1 := strconv.Atoi(cardStr)
	d, err2 := strconv.Atoi(devStr)
	if err1 != nil || err2 != nil {
		return 0, 0, "", false, false, false
	}

	fields := strings.Split(rest, " : ")
	label = strings.TrimSpace(fields[0])
	for _, field := range fields[1:] {
		field = strings.TrimSpace(field)
		switch {
		case strings.HasPrefix(field, "playback"):
			playback = true
		case strings.HasPrefix(field, "capture"):
			capture = true
		}
	}
	return c, d, label, playback, capture, true
}

// ActiveDevice reports the PCM the sound server currently has open for kind.
// Cameras carry no routing information and always report false.
func (l *Linux) ActiveDevice(kind entities.DeviceKind) (string, bool) {
	var suffix string
	switch kind {
	case entities.DeviceKindAudioInput:
		suffix = "c"
	case entities.DeviceKindAudioOutput:
		suffix = "p"
	default:
		return "", false
	}

	statuses, _ := filepath.Glob(l.path("proc", "asound", "card*", "pcm*"+suffix, "sub0", "status"))
	sort.Strings(statuses)
	for _, status := range statuses {
		content, err := readTrimmed(status)
		if err != nil || content == "closed" {
			continue
		}
		pcmDir := filepath.Base(filepath.Dir(filepath.Dir(status)))
		cardDir := filepath.Base(filepath.Dir(filepath.Dir(filepath.Dir(status))))
		card, err1 := strconv.Atoi(strings.TrimPrefix(cardDir, "card"))
		device, err2 := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(pcmDir, "pcm"), suffix))
		if err1 != nil || err2 != nil {
			continue
		}
		return fmt.Sprintf("hw:%d,%d", card, device), true
	}
	return "", false
}

// Watch reports device node additions and removals under /dev and /dev/snd.
// Bursts of events are coalesced into one notification.
func (l *Linux) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create device watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{l.path("dev"), l.path("dev", "snd")} {
		if err := watcher.Add(dir); err != nil {
			if l.logger != nil {
				l.logger.Warn("failed to watch device directory", zap.String("dir", dir), zap.Error(err))
			}
		}
	}

	debounce := time.NewTimer(debounceDelay)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDeviceNode(ev.Name) || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove)) {
				continue
			}
			debounce.Reset(debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if l.logger != nil {
				l.logger.Warn("device watcher error", zap.Error(err))
			}

		case <-debounce.C:
			onChange()
		}
	}
}

func isDeviceNode(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, "video") || strings.HasPrefix(name, "pcmC")
}

func nodeNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(id), "video"))
	if err != nil {
		return -1
	}
	return n
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

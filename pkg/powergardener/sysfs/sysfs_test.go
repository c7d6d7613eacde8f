package sysfs

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeTree builds a sysfs-shaped directory tree under a temp dir.
func fakeTree(t *testing.T, entries map[string]string) *FS {
	t.Helper()
	root := t.TempDir()
	for rel, content := range entries {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	return NewFS(root)
}

func TestCPUOnline(t *testing.T) {
	fs := fakeTree(t, map[string]string{
		"devices/system/cpu/online":      "0-2\n",
		"devices/system/cpu/present":     "0-3\n",
		"devices/system/cpu/cpu1/online": "1\n",
		"devices/system/cpu/cpu2/online": "1\n",
		"devices/system/cpu/cpu3/online": "0\n",
	})

	// cpu0 has no online attribute and is always online
	online, err := fs.CPUOnline(0)
	if err != nil {
		t.Fatalf("CPUOnline(0) unexpected error: %v", err)
	}
	if !online {
		t.Errorf("CPUOnline(0) = false, want true")
	}

	online, err = fs.CPUOnline(3)
	if err != nil {
		t.Fatalf("CPUOnline(3) unexpected error: %v", err)
	}
	if online {
		t.Errorf("CPUOnline(3) = true, want false")
	}

	if fs.OnlineControllable(0) {
		t.Errorf("OnlineControllable(0) = true, want false")
	}
	if !fs.OnlineControllable(3) {
		t.Errorf("OnlineControllable(3) = false, want true")
	}
	if fs.OnlineControllable(7) {
		t.Errorf("OnlineControllable(7) = true for absent cpu, want false")
	}
}

func TestSetCPUOnline(t *testing.T) {
	fs := fakeTree(t, map[string]string{
		"devices/system/cpu/cpu3/online": "0\n",
	})

	if err := fs.SetCPUOnline(3, true); err != nil {
		t.Fatalf("SetCPUOnline(3, true) unexpected error: %v", err)
	}
	online, err := fs.CPUOnline(3)
	if err != nil {
		t.Fatalf("CPUOnline(3) unexpected error: %v", err)
	}
	if !online {
		t.Errorf("cpu3 should be online after SetCPUOnline(3, true)")
	}

	if err := fs.SetCPUOnline(3, false); err != nil {
		t.Fatalf("SetCPUOnline(3, false) unexpected error: %v", err)
	}
	online, _ = fs.CPUOnline(3)
	if online {
		t.Errorf("cpu3 should be offline after SetCPUOnline(3, false)")
	}

	// no control file at all
	if err := fs.SetCPUOnline(9, true); err == nil {
		t.Errorf("SetCPUOnline(9, true) expected error for absent cpu")
	}
}

func TestOnlineAndPresentSets(t *testing.T) {
	fs := fakeTree(t, map[string]string{
		"devices/system/cpu/online":  "0,2,4-7\n",
		"devices/system/cpu/present": "0-11\n",
	})

	active, err := fs.OnlineSet()
	if err != nil {
		t.Fatalf("OnlineSet unexpected error: %v", err)
	}
	if got := active.String(); got != "0,2,4-7" {
		t.Errorf("OnlineSet = %q, want %q", got, "0,2,4-7")
	}

	present, err := fs.PresentSet()
	if err != nil {
		t.Fatalf("PresentSet unexpected error: %v", err)
	}
	if present.Size() != 12 {
		t.Errorf("PresentSet size = %d, want 12", present.Size())
	}
}

func TestOnlineSetMissingFile(t *testing.T) {
	fs := fakeTree(t, map[string]string{})
	if _, err := fs.OnlineSet(); err == nil {
		t.Errorf("OnlineSet expected error without an online cpulist")
	}
}

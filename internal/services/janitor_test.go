package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestJanitor_Sweep(t *testing.T) {
	output := t.TempDir()
	cache := t.TempDir()
	temp := t.TempDir()

	oldExport := filepath.Join(output, "job-1.zip")
	freshExport := filepath.Join(output, "job-2.zip")
	oldCached := filepath.Join(cache, "10", "IMG_0010.jpg")
	oldCopy := filepath.Join(temp, "iptc_abc.jpg")
	foreign := filepath.Join(temp, "someone-else.tmp")

	writeAged(t, oldExport, 48*time.Hour)
	writeAged(t, freshExport, time.Hour)
	writeAged(t, oldCached, 30*time.Hour)
	writeAged(t, oldCopy, 30*time.Hour)
	writeAged(t, foreign, 30*time.Hour)

	j := NewJanitor(output, "@hourly", 24*time.Hour,
		SweepTarget{Dir: output},
		SweepTarget{Dir: cache},
		SweepTarget{Dir: temp, Patterns: []string{"iptc_*", "gallery_*.zip"}},
		SweepTarget{Dir: filepath.Join(output, "does-not-exist")},
	)

	removed, err := j.Sweep()
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 3 {
		t.Errorf("Sweep() removed %d files, expected 3", removed)
	}
	for _, p := range []string{oldExport, oldCached, oldCopy} {
		if exists(p) {
			t.Errorf("%s should have been removed", p)
		}
	}
	for _, p := range []string{freshExport, foreign} {
		if !exists(p) {
			t.Errorf("%s should have been kept", p)
		}
	}
}

func TestJanitor_SkipsWhileLocked(t *testing.T) {
	output := t.TempDir()
	old := filepath.Join(output, "job-1.zip")
	writeAged(t, old, 48*time.Hour)

	other := flock.New(filepath.Join(output, janitorLockName))
	if ok, err := other.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	defer other.Unlock()

	removed, err := NewJanitor(output, "@hourly", time.Hour, SweepTarget{Dir: output}).Sweep()
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 0 || !exists(old) {
		t.Errorf("Sweep() removed %d files while locked", removed)
	}
}

func TestJanitor_StartRejectsBadSchedule(t *testing.T) {
	j := NewJanitor(t.TempDir(), "every now and then", time.Hour)
	if err := j.Start(); err == nil {
		j.Stop()
		t.Error("Start() expected error for invalid cron expression")
	}
}

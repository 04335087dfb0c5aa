package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDirVault_ImportNaming(t *testing.T) {
	src := filepath.Join(t.TempDir(), "IMG_0001.PNG")
	if err := os.WriteFile(src, []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	noExt := filepath.Join(t.TempDir(), "capture")
	if err := os.WriteFile(noExt, []byte("jpg"), 0644); err != nil {
		t.Fatal(err)
	}

	v, err := NewDirVault(filepath.Join(t.TempDir(), "history"))
	if err != nil {
		t.Fatalf("NewDirVault failed: %v", err)
	}
	v.now = func() time.Time { return time.UnixMilli(1743498000000) }

	dst, err := v.Import("file://" + src)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	name := filepath.Base(dst)
	if !strings.HasPrefix(name, "scan_1743498000000_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("unexpected name %s", name)
	}
	if !v.Owns(dst) || !v.Owns("file://"+dst) {
		t.Error("vault should own imported image")
	}

	again, err := v.Import(dst)
	if err != nil || again != dst {
		t.Errorf("re-import of managed image = %q, %v", again, err)
	}

	jpg, err := v.Import(noExt)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if filepath.Ext(jpg) != ".jpg" {
		t.Errorf("default extension not applied: %s", jpg)
	}
}

func TestDirVault_DiscardAndPurge(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "keep.jpg")
	_ = os.WriteFile(outside, []byte("x"), 0644)

	v, _ := NewDirVault(filepath.Join(t.TempDir(), "history"))
	dst, err := v.Import(outside)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if err := v.Discard(outside); err != nil {
		t.Errorf("Discard of foreign file: %v", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Error("foreign file must not be removed")
	}
	if err := v.Discard(dst); err != nil {
		t.Errorf("Discard failed: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("managed image still present")
	}
	if err := v.Discard(dst); err != nil {
		t.Errorf("second Discard should be a no-op: %v", err)
	}

	if err := v.Purge(); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if _, err := os.Stat(v.Dir()); !os.IsNotExist(err) {
		t.Error("image dir not removed")
	}
}

func TestImport_MissingSource(t *testing.T) {
	v, _ := NewDirVault(t.TempDir())
	if _, err := v.Import(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing source")
	}
}

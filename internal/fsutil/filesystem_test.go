package fsutil

import (
	"io"
	"testing"
)

func TestMemoryFileSystemReadWrite(t *testing.T) {
	fs := NewMemoryFileSystem()

	if err := fs.WriteFile("/maps/a.pcd", []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile("/maps/a.pcd")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected 'hello', got %q", data)
	}

	if !fs.Exists("/maps/a.pcd") {
		t.Error("expected file to exist")
	}
	if fs.Exists("/maps/b.pcd") {
		t.Error("expected missing file to not exist")
	}
}

func TestMemoryFileSystemOpenAndStat(t *testing.T) {
	fs := NewMemoryFileSystem()
	fs.WriteFile("/data/cloud.bin", []byte{1, 2, 3, 4}, 0644)

	f, err := fs.Open("/data/cloud.bin")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(data) != 4 {
		t.Errorf("expected 4 bytes, got %d", len(data))
	}

	info, err := fs.Stat("/data/cloud.bin")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("expected size 4, got %d", info.Size())
	}

	if _, err := fs.Open("/data/missing"); err == nil {
		t.Error("expected error opening missing file")
	}
}

func TestMemoryFileSystemCreate(t *testing.T) {
	fs := NewMemoryFileSystem()

	w, err := fs.Create("/out/archive.cereal")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := fs.ReadFile("/out/archive.cereal")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("expected 'payload', got %q", data)
	}
}

func TestMemoryFileSystemReadDirSorted(t *testing.T) {
	fs := NewMemoryFileSystem()
	fs.WriteFile("/maps/c.pcd", nil, 0644)
	fs.WriteFile("/maps/a.pcd", nil, 0644)
	fs.WriteFile("/maps/b.pcd", nil, 0644)
	fs.WriteFile("/other/d.pcd", nil, 0644)

	entries, err := fs.ReadDir("/maps")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}

	want := []string{"a.pcd", "b.pcd", "c.pcd"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, name := range want {
		if entries[i].Name() != name {
			t.Errorf("entry %d: expected %s, got %s", i, name, entries[i].Name())
		}
	}

	if _, err := fs.ReadDir("/missing"); err == nil {
		t.Error("expected error for missing directory")
	}
}

package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"worship-presenter/internal/logging"
)

func TestSessionStoreLinkAndFind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSessionStore(dir, logging.Discard())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, found := store.FindChannel("culto-domingo"); found {
		t.Fatal("empty store found a channel")
	}
	record, err := store.LinkChannel(" culto-domingo ", "principal")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if record.ServiceID != "culto-domingo" || record.LinkedAt.IsZero() {
		t.Fatalf("record = %+v", record)
	}
	ch, found := store.FindChannel("culto-domingo")
	if !found || ch != "principal" {
		t.Fatalf("find = %q, %v", ch, found)
	}

	// relinking replaces
	if _, err := store.LinkChannel("culto-domingo", "auditorio"); err != nil {
		t.Fatalf("relink: %v", err)
	}
	if ch, _ := store.FindChannel("culto-domingo"); ch != "auditorio" {
		t.Fatalf("after relink channel = %q", ch)
	}

	// persisted
	reopened, err := NewSessionStore(dir, logging.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if ch, _ := reopened.FindChannel("culto-domingo"); ch != "auditorio" {
		t.Fatalf("reopened channel = %q", ch)
	}
}

func TestSessionStoreValidation(t *testing.T) {
	store, err := NewSessionStore(t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.LinkChannel("", "principal"); err == nil {
		t.Fatal("expected error for empty service id")
	}
	if _, err := store.LinkChannel("culto", " "); err == nil {
		t.Fatal("expected error for empty channel")
	}
	if err := store.Unlink("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unlink missing err = %v", err)
	}
}

func TestSessionStoresShareFile(t *testing.T) {
	dir := t.TempDir()
	a, err := NewSessionStore(dir, logging.Discard())
	if err != nil {
		t.Fatalf("store a: %v", err)
	}
	b, err := NewSessionStore(dir, logging.Discard())
	if err != nil {
		t.Fatalf("store b: %v", err)
	}

	if _, err := a.LinkChannel("manana", "sala-1"); err != nil {
		t.Fatalf("link a: %v", err)
	}
	// b reloads under the file lock before writing, so a's link survives
	if _, err := b.LinkChannel("tarde", "sala-2"); err != nil {
		t.Fatalf("link b: %v", err)
	}

	c, err := NewSessionStore(dir, logging.Discard())
	if err != nil {
		t.Fatalf("store c: %v", err)
	}
	list := c.List()
	if len(list) != 2 || list[0].ServiceID != "manana" || list[1].ServiceID != "tarde" {
		t.Fatalf("list = %+v", list)
	}

	if err := c.Unlink("manana"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := a.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, found := a.FindChannel("manana"); found {
		t.Fatal("unlinked service still visible after reload")
	}
}

func TestSessionStoreIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sessions.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewSessionStore(dir, logging.Discard())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if len(store.List()) != 0 {
		t.Fatalf("list = %+v", store.List())
	}
	if _, err := store.LinkChannel("culto", "principal"); err != nil {
		t.Fatalf("link over corrupt file: %v", err)
	}
}

package credentials

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

func TestFileStore(t *testing.T) {
	t.Run("EmptyWhenMissing", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))

		creds, err := s.List()
		if err != nil {
			t.Fatalf("List() = %v", err)
		}
		if len(creds) != 0 {
			t.Errorf("List() returned %d entries for a missing file", len(creds))
		}
	})

	t.Run("AddAndList", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))

		if err := s.Add("HomeNet", "secret99"); err != nil {
			t.Fatalf("Add() = %v", err)
		}
		if err := s.Add("Office", "work-pass"); err != nil {
			t.Fatalf("Add() = %v", err)
		}

		creds, err := s.List()
		if err != nil {
			t.Fatalf("List() = %v", err)
		}
		if len(creds) != 2 {
			t.Fatalf("len(List()) = %d, want 2", len(creds))
		}
		// Newest addition is the default.
		if creds[0].SSID != "Office" || creds[1].SSID != "HomeNet" {
			t.Errorf("order = [%s, %s], want [Office, HomeNet]", creds[0].SSID, creds[1].SSID)
		}
	})

	t.Run("AddReplacesSameSSID", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))

		_ = s.Add("HomeNet", "old-pass")
		_ = s.Add("Office", "work-pass")
		if err := s.Add("HomeNet", "new-pass"); err != nil {
			t.Fatalf("Add() = %v", err)
		}

		creds, _ := s.List()
		if len(creds) != 2 {
			t.Fatalf("len(List()) = %d, want 2", len(creds))
		}
		if creds[0].SSID != "HomeNet" || creds[0].Password != "new-pass" {
			t.Errorf("front entry = %+v, want updated HomeNet", creds[0])
		}
	})

	t.Run("EvictsOldestAtCapacity", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))

		for i := 0; i < MaxStored+2; i++ {
			if err := s.Add(fmt.Sprintf("net-%d", i), "password"); err != nil {
				t.Fatalf("Add() = %v", err)
			}
		}

		creds, _ := s.List()
		if len(creds) != MaxStored {
			t.Fatalf("len(List()) = %d, want %d", len(creds), MaxStored)
		}
		if creds[0].SSID != fmt.Sprintf("net-%d", MaxStored+1) {
			t.Errorf("front = %s, want the newest entry", creds[0].SSID)
		}
		for _, c := range creds {
			if c.SSID == "net-0" || c.SSID == "net-1" {
				t.Errorf("oldest entry %s not evicted", c.SSID)
			}
		}
	})

	t.Run("Remove", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
		_ = s.Add("a", "password")
		_ = s.Add("b", "password")
		_ = s.Add("c", "password")

		if err := s.Remove(1); err != nil {
			t.Fatalf("Remove(1) = %v", err)
		}
		creds, _ := s.List()
		if len(creds) != 2 || creds[0].SSID != "c" || creds[1].SSID != "a" {
			t.Errorf("List() after Remove = %+v", creds)
		}

		if err := s.Remove(5); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Remove(5) = %v, want ErrIndexOutOfRange", err)
		}
		if err := s.Remove(-1); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Remove(-1) = %v, want ErrIndexOutOfRange", err)
		}
	})

	t.Run("SetDefault", func(t *testing.T) {
		s := NewFileStore(filepath.Join(t.TempDir(), "creds.json"))
		_ = s.Add("a", "password")
		_ = s.Add("b", "password")
		_ = s.Add("c", "password")

		if err := s.SetDefault(2); err != nil {
			t.Fatalf("SetDefault(2) = %v", err)
		}
		creds, _ := s.List()
		want := []string{"a", "c", "b"}
		for i, w := range want {
			if creds[i].SSID != w {
				t.Errorf("List()[%d] = %s, want %s", i, creds[i].SSID, w)
			}
		}

		// Index 0 is already the default.
		if err := s.SetDefault(0); err != nil {
			t.Errorf("SetDefault(0) = %v", err)
		}
		if err := s.SetDefault(9); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SetDefault(9) = %v, want ErrIndexOutOfRange", err)
		}
	})

	t.Run("PersistsAcrossInstances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "creds.json")

		s1 := NewFileStore(path)
		if err := s1.Add("HomeNet", "secret99"); err != nil {
			t.Fatalf("Add() = %v", err)
		}

		s2 := NewFileStore(path)
		creds, err := s2.List()
		if err != nil {
			t.Fatalf("List() = %v", err)
		}
		if len(creds) != 1 || creds[0].SSID != "HomeNet" || creds[0].Password != "secret99" {
			t.Errorf("reloaded store = %+v", creds)
		}
	})
}

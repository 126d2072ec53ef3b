package timing

import (
	"testing"
	"time"
)

func TestRegistryRoles(t *testing.T) {
	r := NewRegistry(map[string]string{
		"tee":   "tee",
		"bogus": "skip", // unknown role, ignored
	}, time.Minute)

	if role, ok := r.Role("tee"); !ok || role != RoleTee {
		t.Errorf("Role(tee) = %v,%v", role, ok)
	}
	if _, ok := r.Role("bogus"); ok {
		t.Error("device with unknown role was registered")
	}
	if _, ok := r.Role("missing"); ok {
		t.Error("unconfigured device resolved a role")
	}
}

func TestRegistryLiveness(t *testing.T) {
	r := NewRegistry(map[string]string{"tee": "tee", "hog_close": "hog_close"}, time.Minute)

	now := time.Unix(1000, 0)
	r.now = func() time.Time { return now }

	st := r.Status()
	if st["tee"].LastSeen != nil || st["tee"].Online {
		t.Errorf("never-seen device reported as seen: %+v", st["tee"])
	}

	r.Seen("tee")
	r.Seen("missing") // no-op

	st = r.Status()
	if st["tee"].LastSeen == nil || !st["tee"].Online {
		t.Fatalf("seen device not online: %+v", st["tee"])
	}
	if st["hog_close"].Online {
		t.Error("unseen device reported online")
	}

	// Past the staleness window the device drops offline but keeps its
	// last-seen time.
	now = now.Add(2 * time.Minute)
	st = r.Status()
	if st["tee"].Online {
		t.Error("stale device still online")
	}
	if st["tee"].LastSeen == nil {
		t.Error("stale device lost its last_seen")
	}
}

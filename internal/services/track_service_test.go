package services_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"encore/internal/domain"
	"encore/internal/repos"
	"encore/internal/services"
)

func TestTrackService_TierGate(t *testing.T) {
	db := memdb(t)
	svc := services.NewTrackService(repos.NewTrackRepo(db), repos.NewLyricRepo(db), "/srv/media")

	cases := []struct {
		track string
		tier  domain.Tier
		err   error
	}{
		{"night-drive", domain.TierNone, nil},
		{"basement-demo-3", domain.TierNone, services.ErrTierRequired},
		{"basement-demo-3", domain.TierSupporter, nil},
		{"live-at-the-lantern", domain.TierSupporter, services.ErrTierRequired},
		{"live-at-the-lantern", domain.TierSuperfan, nil},
		{"missing", domain.TierSuperfan, services.ErrTrackNotFound},
	}
	for _, c := range cases {
		_, err := svc.Authorize(c.track, c.tier)
		if !errors.Is(err, c.err) {
			t.Errorf("Authorize(%s, %s) = %v, want %v", c.track, c.tier, err, c.err)
		}
	}
}

func TestTrackService_AudioFile(t *testing.T) {
	svc := &services.TrackService{MediaDir: "/srv/media"}

	p, err := svc.AudioFile(domain.Track{AudioPath: "audio/night-drive.mp3"})
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/srv/media", "audio", "night-drive.mp3") {
		t.Fatalf("path = %s", p)
	}
	for _, bad := range []string{"../etc/passwd", "/etc/passwd", "audio/../../x", ""} {
		if _, err := svc.AudioFile(domain.Track{AudioPath: bad}); err == nil {
			t.Errorf("%q should be refused", bad)
		}
	}
}

func TestPatronService_TierFor(t *testing.T) {
	db := memdb(t)
	patrons := repos.NewPatronRepo(db)
	now := time.Unix(1_750_000_000, 0)
	svc := services.NewPatronService(patrons)
	svc.Now = func() time.Time { return now }

	alice := &domain.User{ID: "u-alice", Email: "alice@encore.test"}
	if tier, err := svc.TierFor(alice); err != nil || tier != domain.TierNone {
		t.Fatalf("no subscription: %s %v", tier, err)
	}
	if tier, _ := svc.TierFor(nil); tier != domain.TierNone {
		t.Fatalf("anonymous: %s", tier)
	}
	admin := &domain.User{ID: "u-admin", Email: "admin@encore.test", Role: domain.RoleAdmin}
	if tier, err := svc.TierFor(admin); err != nil || tier != domain.TierSuperfan {
		t.Fatalf("admin without subscription: %s %v", tier, err)
	}

	if err := patrons.Upsert(domain.Patron{Email: "ALICE@encore.test", Tier: domain.TierSupporter,
		Status: domain.PatronActive, PeriodEnd: now.Add(time.Hour).Unix()}); err != nil {
		t.Fatal(err)
	}
	if tier, _ := svc.TierFor(alice); tier != domain.TierSupporter {
		t.Fatalf("active supporter: %s", tier)
	}

	now = now.Add(2 * time.Hour)
	if tier, _ := svc.TierFor(alice); tier != domain.TierNone {
		t.Fatalf("lapsed: %s", tier)
	}
}

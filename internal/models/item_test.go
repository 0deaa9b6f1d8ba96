package models

import (
	"testing"
	"time"
)

func TestAccessPolicyValid(t *testing.T) {
	tests := []struct {
		policy AccessPolicy
		want   bool
	}{
		{AccessPublic, true},
		{AccessProjectOnly, true},
		{AccessDevelopersOnly, true},
		{AccessPolicy(""), false},
		{AccessPolicy("admin_only"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			if got := tt.policy.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.policy, got, tt.want)
			}
		})
	}
}

func TestItemIsActive(t *testing.T) {
	now := time.Now()

	active := &Item{Status: ItemStatusActive}
	if !active.IsActive() {
		t.Error("active item should be active")
	}

	archived := &Item{Status: ItemStatusArchived}
	if archived.IsActive() {
		t.Error("archived status should not be active")
	}

	softDeleted := &Item{Status: ItemStatusActive, ArchivedAt: &now}
	if softDeleted.IsActive() {
		t.Error("item with archived_at set should not be active")
	}
}

func TestAvatarPartFreeForDevelopers(t *testing.T) {
	tests := []struct {
		name      string
		isPremium bool
		isFree    bool
		want      bool
	}{
		{"plain part", false, false, true},
		{"premium part", true, false, false},
		{"free overrides premium", true, true, true},
		{"free non-premium", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &AvatarPart{IsPremium: tt.isPremium, IsFree: tt.isFree}
			if got := p.FreeForDevelopers(); got != tt.want {
				t.Errorf("FreeForDevelopers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGrantActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry", nil, true},
		{"future expiry", &future, true},
		{"past expiry", &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &PermissionGrant{ExpiresAt: tt.expiresAt}
			if got := g.Active(now); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestItemHumanSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{2048, "2 KB"},
		{5 << 20, "5.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			i := &Item{SizeBytes: tt.size}
			if got := i.HumanSize(); got != tt.want {
				t.Errorf("HumanSize(%d) = %q, want %q", tt.size, got, tt.want)
			}
		})
	}
}

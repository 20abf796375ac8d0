package data

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gorm.io/gorm"
)

func generateProfile(t *testing.T) *Profile {
	t.Helper()
	return &Profile{
		ProfileID:   fmt.Sprintf("profile-%d", rand.Int()),
		DisplayName: fmt.Sprintf("player %d", rand.Int()),
	}
}

func assertProfilesMatch(t *testing.T, expected *Profile, got *Profile) {
	t.Helper()
	if expected == nil && got == nil {
		return
	}

	if diff := cmp.Diff(expected, got, cmpopts.EquateApproxTime(time.Second)); diff != "" {
		t.Errorf("profile did not match expected; diff:\n%s", diff)
	}
}

func TestFindProfileByProfileID(t *testing.T) {
	db := setUpDatabase(t)

	testProfile := generateProfile(t)
	tests := []struct {
		name     string
		seedData func(db *gorm.DB)
		want     *Profile
		wantErr  bool
	}{
		{
			name:     "profile does not exist",
			seedData: func(db *gorm.DB) {},
			want:     nil,
			wantErr:  false,
		},
		{
			name: "profile exists",
			seedData: func(db *gorm.DB) {
				if err := CreateProfile(db, testProfile); err != nil {
					t.Fatalf("error creating test profile data: %s", err)
				}
			},
			want:    testProfile,
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.seedData(db)

			profile, err := FindProfileByProfileID(db, testProfile.ProfileID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindProfileByProfileID() wantErr = %v, error = %v", tt.wantErr, err)
			}
			assertProfilesMatch(t, tt.want, profile)
		})
	}
}

func TestListProfiles_ReturnsRegistrationOrder(t *testing.T) {
	db := setUpDatabase(t)

	var created []string
	for i := 0; i < 4; i++ {
		p := generateProfile(t)
		if err := CreateProfile(db, p); err != nil {
			t.Fatalf("error seeding test profile: %v", err)
		}
		created = append(created, p.ProfileID)
	}

	profiles, err := ListProfiles(db)
	if err != nil {
		t.Fatalf("ListProfiles() returned an unexpected error: %v", err)
	}

	var got []string
	for _, p := range profiles {
		got = append(got, p.ProfileID)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("ListProfiles() order did not match; diff:\n%s", diff)
	}
}

func TestDeleteProfile(t *testing.T) {
	db := setUpDatabase(t)

	testProfile := generateProfile(t)
	if err := CreateProfile(db, testProfile); err != nil {
		t.Fatalf("error creating test profile: %v", err)
	}

	if err := DeleteProfile(db, testProfile); err != nil {
		t.Fatalf("DeleteProfile() returned an unexpected error: %v", err)
	}

	profile, err := FindProfileByProfileID(db, testProfile.ProfileID)
	if err != nil {
		t.Fatalf("FindProfileByProfileID() returned an unexpected error: %v", err)
	}
	if profile != nil {
		t.Fatalf("FindProfileByProfileID() returned a profile unexpectedly: %v", profile)
	}
}

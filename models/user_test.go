package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/lisans/pkg"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		in      string
		want    Plan
		wantErr bool
	}{
		{"free", PlanFree, false},
		{"PREMIUM", PlanPremium, false},
		{"  deluxe ", PlanDeluxe, false},
		{"none", PlanNone, false},
		{"gold", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlan(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, pkg.ErrBadRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExpiryInput(t *testing.T) {
	got, err := ParseExpiryInput("20300101")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-01", got)

	for _, bad := range []string{"2030-01-01", "notadate", "20301341", "203001", ""} {
		_, err := ParseExpiryInput(bad)
		assert.ErrorIs(t, err, pkg.ErrInvalidDate, "input %q", bad)
	}
}

func TestUserMutation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mut     UserMutation
		wantErr bool
	}{
		{"regenerate needs no payload", UserMutation{Kind: MutationLicenseRegenerate}, false},
		{"clear needs no payload", UserMutation{Kind: MutationLicenseClear}, false},
		{"plan_set with plan", UserMutation{Kind: MutationPlanSet, Plan: PlanStandard}, false},
		{"plan_set without plan", UserMutation{Kind: MutationPlanSet}, true},
		{"plan_set with bogus plan", UserMutation{Kind: MutationPlanSet, Plan: "gold"}, true},
		{"expiry_set with value", UserMutation{Kind: MutationExpirySet, Value: "20300101"}, false},
		{"expiry_set without value", UserMutation{Kind: MutationExpirySet}, true},
		{"unknown kind", UserMutation{Kind: "delete_everything"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mut.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, pkg.ErrBadRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBanRequest_Validate(t *testing.T) {
	req := BanRequest{Reason: "  spamming license commands "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "spamming license commands", req.Reason)

	empty := BanRequest{Reason: "   "}
	assert.Error(t, empty.Validate())
}

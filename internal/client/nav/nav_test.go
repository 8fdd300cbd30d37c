package nav

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/hireloop/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardFor(t *testing.T) {
	assert.Equal(t, RecruiterDashboard, DashboardFor(models.RoleEmployer))
	assert.Equal(t, JobSeekerDashboard, DashboardFor(models.RoleJobSeeker))
}

func TestAfterAuthentication(t *testing.T) {
	tests := []struct {
		name  string
		role models.Role
		flag bool
		want Destination
	}{
		{"employer needs onboarding", models.RoleEmployer, true, RecruiterOnboard},
		{"employer onboarded", models.RoleEmployer, false, RecruiterDashboard},
		{"job seeker ignores flag", models.RoleJobSeeker, true, JobSeekerDashboard},
		{"job seeker", models.RoleJobSeeker, false, JobSeekerDashboard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AfterAuthentication(tt.role, tt.flag)
			assert.Equal(t, tt.want, got.Destination)
			assert.Equal(t, tt.role, got.Role)
		})
	}
}

func TestRoute_String(t *testing.T) {
	assert.Equal(t, "landing", Route{Destination: Landing}.String())
	assert.Equal(t, "verify-2fa?role=employer", Route{Destination: VerifySecondFactor, Role: models.RoleEmployer}.String())
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	require.False(t, ok)

	r.Navigate(context.Background(), Route{Destination: Auth})
	r.Navigate(context.Background(), Route{Destination: Landing})

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, Landing, last.Destination)
	assert.Len(t, r.Routes(), 2)
}

package quota

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/testutil"
)

func Test_Engine(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	now := time.Now().Truncate(time.Microsecond)

	subscribe := func(t *testing.T, s repository.Storage, companyID uuid.UUID, status string, end time.Time, limit int) {
		_, err := s.Subscription().UpsertSubscription(t.Context(), models.Subscription{
			UserID:        companyID,
			Status:        status,
			StartDate:     now.Add(-time.Hour),
			EndDate:       end,
			JobPostLimit:  limit,
			PaymentStatus: models.PaymentCompleted,
		})
		require.NoError(t, err)
	}

	postJobs := func(t *testing.T, s repository.Storage, companyID uuid.UUID, n int) {
		for range n {
			_, err := s.Job().CreateJob(t.Context(), models.Job{
				OwnerID:             companyID,
				Title:               "Go developer",
				JobType:             models.JobTypeRemote,
				ExperienceLevel:     models.LevelMid,
				ApplicationDeadline: now.Add(time.Hour),
			})
			require.NoError(t, err)
		}
	}

	t.Run("allowance", func(t *testing.T) {
		tests := []struct {
			name      string
			subscribe func(t *testing.T, s repository.Storage, companyID uuid.UUID)
			want      int
		}{
			{
				name:      "no subscription",
				subscribe: func(*testing.T, repository.Storage, uuid.UUID) {},
				want:      models.DefaultJobPostLimit,
			},
			{
				name: "active subscription",
				subscribe: func(t *testing.T, s repository.Storage, id uuid.UUID) {
					subscribe(t, s, id, models.SubscriptionActive, now.Add(time.Hour), 50)
				},
				want: 50,
			},
			{
				name: "active but ended",
				subscribe: func(t *testing.T, s repository.Storage, id uuid.UUID) {
					subscribe(t, s, id, models.SubscriptionActive, now, 50)
				},
				want: models.DefaultJobPostLimit,
			},
			{
				name: "inactive",
				subscribe: func(t *testing.T, s repository.Storage, id uuid.UUID) {
					subscribe(t, s, id, models.SubscriptionInactive, now.Add(time.Hour), 50)
				},
				want: models.DefaultJobPostLimit,
			},
			{
				name: "expired",
				subscribe: func(t *testing.T, s repository.Storage, id uuid.UUID) {
					subscribe(t, s, id, models.SubscriptionExpired, now.Add(time.Hour), 50)
				},
				want: models.DefaultJobPostLimit,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				testutil.InTx(pg.Pool, t, func(s repository.Storage) {
					company := testutil.CreateUser(t, s, models.RoleCompany)
					tt.subscribe(t, s, company.ID)
					e := New(s, func() time.Time { return now })

					got, err := e.Allowance(t.Context(), company.ID)

					require.NoError(t, err)
					require.Equal(t, tt.want, got)
				})
			})
		}
	})

	t.Run("can post boundary", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(s repository.Storage) {
			company := testutil.CreateUser(t, s, models.RoleCompany)
			e := New(s, func() time.Time { return now })

			postJobs(t, s, company.ID, models.DefaultJobPostLimit-1)
			ok, err := e.CanPost(t.Context(), company.ID)
			require.NoError(t, err)
			require.True(t, ok, "count N-1 can post")

			postJobs(t, s, company.ID, 1)
			ok, err = e.CanPost(t.Context(), company.ID)
			require.NoError(t, err)
			require.False(t, ok, "count N can't post")

			subscribe(t, s, company.ID, models.SubscriptionActive, now.Add(time.Hour), 50)
			ok, err = e.CanPost(t.Context(), company.ID)
			require.NoError(t, err)
			require.True(t, ok, "subscription raises the limit")
		})
	})
}

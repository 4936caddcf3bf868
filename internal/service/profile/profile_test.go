package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/testutil"
)

func Test_ProfileService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(t *testing.T, fn func(s *ProfileService, store repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(store repository.Storage) {
			fn(NewService(store), store)
		})
	}

	t.Run("create get update delete", func(t *testing.T) {
		withTx(t, func(s *ProfileService, store repository.Storage) {
			user := testutil.CreateUser(t, store, models.RoleJobseeker)

			created, err := s.Create(t.Context(), user, json.RawMessage(`{"headline":"gopher","city":"Tbilisi"}`))
			require.NoError(t, err)
			assert.Equal(t, models.RoleJobseeker, created.Role)

			_, err = s.Create(t.Context(), user, json.RawMessage(`{}`))
			require.ErrorIs(t, err, apperrors.ErrProfileAlreadyExists)

			updated, err := s.Update(t.Context(), user, json.RawMessage(`{"city":"Batumi"}`))
			require.NoError(t, err)
			assert.JSONEq(t, `{"headline":"gopher","city":"Batumi"}`, string(updated.Data))

			got, err := s.Get(t.Context(), user)
			require.NoError(t, err)
			assert.JSONEq(t, string(updated.Data), string(got.Data))

			require.NoError(t, s.Delete(t.Context(), user))

			_, err = s.Get(t.Context(), user)
			require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
		})
	})

	t.Run("missing profile", func(t *testing.T) {
		withTx(t, func(s *ProfileService, store repository.Storage) {
			user := testutil.CreateUser(t, store, models.RoleCompany)

			_, err := s.Update(t.Context(), user, json.RawMessage(`{"a":1}`))
			require.ErrorIs(t, err, apperrors.ErrProfileNotFound)

			err = s.Delete(t.Context(), user)
			require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
		})
	})

	t.Run("data must be object", func(t *testing.T) {
		withTx(t, func(s *ProfileService, store repository.Storage) {
			user := testutil.CreateUser(t, store, models.RoleCompany)

			for _, data := range []string{`[]`, `"str"`, `null`, `{bad`} {
				_, err := s.Create(t.Context(), user, json.RawMessage(data))
				require.ErrorIs(t, err, apperrors.ErrInvalidArgument, data)
			}
		})
	})
}

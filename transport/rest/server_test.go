package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-client/internal/repository"
)

type mockGroups struct {
	mock.Mock
}

func (that *mockGroups) Members(ctx context.Context, group string) ([]string, error) {
	args := that.Called(ctx, group)
	members, _ := args.Get(0).([]string)
	return members, args.Error(1)
}

func (that *mockGroups) IsMember(ctx context.Context, group, player string) (bool, error) {
	args := that.Called(ctx, group, player)
	return args.Bool(0), args.Error(1)
}

func serve(t *testing.T, groups groupReader, target string) *httptest.ResponseRecorder {
	t.Helper()

	router := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), groups)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	return recorder
}

func TestPing(t *testing.T) {
	recorder := serve(t, &mockGroups{}, "/ping")

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestGroupsHandler_Members(t *testing.T) {
	t.Run("Members_Success", func(t *testing.T) {
		// Given: a group with two players
		groups := &mockGroups{}
		groups.On("Members", mock.Anything, "alice").Return([]string{"alice", "bob"}, nil)

		// When: the members are requested
		recorder := serve(t, groups, "/groups/alice/members")

		// Then: both players are listed
		require.Equal(t, http.StatusOK, recorder.Code)

		var response membersResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Equal(t, "alice", response.Group)
		assert.Equal(t, []string{"alice", "bob"}, response.Members)
		groups.AssertExpectations(t)
	})

	t.Run("Members_NotFound", func(t *testing.T) {
		groups := &mockGroups{}
		groups.On("Members", mock.Anything, "nobody").Return(nil, repository.ErrGroupNotFound)

		recorder := serve(t, groups, "/groups/nobody/members")

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Members_Failure", func(t *testing.T) {
		groups := &mockGroups{}
		groups.On("Members", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

		recorder := serve(t, groups, "/groups/alice/members")

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestGroupsHandler_Member(t *testing.T) {
	groups := &mockGroups{}
	groups.On("IsMember", mock.Anything, "alice", "bob").Return(true, nil)
	groups.On("IsMember", mock.Anything, "alice", "carol").Return(false, nil)

	assert.Equal(t, http.StatusNoContent, serve(t, groups, "/groups/alice/members/bob").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, groups, "/groups/alice/members/carol").Code)
}

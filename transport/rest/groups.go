package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-client/internal/repository"
)

type groupReader interface {
	Members(ctx context.Context, group string) ([]string, error)
	IsMember(ctx context.Context, group, player string) (bool, error)
}

type groupsHandler struct {
	logger *slog.Logger
	groups groupReader
}

type membersResponse struct {
	Group   string   `json:"group"`
	Members []string `json:"members"`
}

func (that *groupsHandler) members(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "members")

	group := mux.Vars(r)["group"]

	members, err := that.groups.Members(r.Context(), group)
	if errors.Is(err, repository.ErrGroupNotFound) {
		http.Error(w, "Group not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get members", "group", group, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(membersResponse{Group: group, Members: members}); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func (that *groupsHandler) member(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "member")

	vars := mux.Vars(r)

	ok, err := that.groups.IsMember(r.Context(), vars["group"], vars["player"])
	if err != nil {
		log.Error("failed to check member", "group", vars["group"], "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if !ok {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

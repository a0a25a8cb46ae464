package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scriptler-dev/scriptler/internal/config"
)

// ReposResponse is the response for repository listings.
type ReposResponse struct {
	Body struct {
		Repositories []config.RepositoryEntry `doc:"Configured repositories in priority order" json:"repositories"`
	}
}

// AddRepoRequest creates a user-added repository.
type AddRepoRequest struct {
	Body struct {
		ID       string `doc:"Repository ID; generated when omitted" json:"id,omitempty"`
		Name     string `doc:"Human-readable name" json:"name"`
		Source   string `doc:"Manifest URL or local path" json:"source"`
		Priority int    `doc:"Listing priority; lower comes first" json:"priority,omitempty"`
	}
}

// AddRepoResponse returns the persisted repository entry.
type AddRepoResponse struct {
	Body config.RepositoryEntry
}

// RemoveRepoRequest identifies a repository to remove.
type RemoveRepoRequest struct {
	Repo string `doc:"Repository ID" path:"repo"`
}

// RegisterRepoRoutes sets up repository CRUD endpoints.
func RegisterRepoRoutes(routerAPI huma.API, manager ManagerAccessor) {
	tags := []string{"Repositories"}

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listRepositories",
			Method:      http.MethodGet,
			Path:        "/repos",
			Summary:     "List configured repositories",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ReposResponse, error) {
			resp := &ReposResponse{}
			resp.Body.Repositories = manager.ListRepositories()
			return resp, nil
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID:   "addRepository",
			Method:        http.MethodPost,
			Path:          "/repos",
			Summary:       "Add a custom repository",
			DefaultStatus: http.StatusCreated,
			Tags:          tags,
		},
		func(ctx context.Context, input *AddRepoRequest) (*AddRepoResponse, error) {
			added, err := manager.AddRepository(config.RepositoryEntry{
				ID:       input.Body.ID,
				Name:     input.Body.Name,
				Source:   input.Body.Source,
				Priority: input.Body.Priority,
			})
			if err != nil {
				return nil, err
			}
			return &AddRepoResponse{Body: added}, nil
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID:   "removeRepository",
			Method:        http.MethodDelete,
			Path:          "/repos/{repo}",
			Summary:       "Remove a user-added repository and its cached scripts",
			DefaultStatus: http.StatusNoContent,
			Tags:          tags,
		},
		func(ctx context.Context, input *RemoveRepoRequest) (*struct{}, error) {
			if err := manager.RemoveRepository(input.Repo); err != nil {
				return nil, err
			}
			return &struct{}{}, nil
		},
	)
}

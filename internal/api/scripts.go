package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/scriptler-dev/scriptler/internal/cache"
	"github.com/scriptler-dev/scriptler/internal/repository"
)

// ScriptsResponse is the response for script listings.
type ScriptsResponse struct {
	Body struct {
		Scripts []repository.ScriptStatus `doc:"Manifest entries enriched with cache status" json:"scripts"`
	}
}

// ScriptsRequest scopes a listing to one repository.
type ScriptsRequest struct {
	Repo string `doc:"Repository ID" example:"core" path:"repo"`
}

// DownloadRequest identifies one script to download.
type DownloadRequest struct {
	Repo   string `doc:"Repository ID" example:"core" path:"repo"`
	Script string `doc:"Script ID within the repository's manifest" example:"backup-dotfiles" path:"script"`
}

// DownloadResponse wraps the cache entry produced by a verified download.
type DownloadResponse struct {
	Body cache.Entry
}

// CheckUpdatesRequest triggers an update check for one repository.
type CheckUpdatesRequest struct {
	Repo  string `doc:"Repository ID" example:"core" path:"repo"`
	Force bool   `doc:"Bypass the re-check throttle" query:"force"`
}

// CheckUpdatesResponse reports how many cached scripts have updates available.
type CheckUpdatesResponse struct {
	Body struct {
		Updates int `doc:"Number of cached scripts with an available update" json:"updates"`
	}
}

// ApplyUpdatesResponse reports the outcome of a batch update.
type ApplyUpdatesResponse struct {
	Body repository.UpdateResult
}

// OrphansResponse lists cached scripts absent from the current manifest.
type OrphansResponse struct {
	Body struct {
		Orphans []cache.Entry `doc:"Cached scripts no longer listed in the manifest" json:"orphans"`
	}
}

// RegisterScriptRoutes sets up script listing, download, and update endpoints.
func RegisterScriptRoutes(routerAPI huma.API, manager ManagerAccessor) {
	tags := []string{"Scripts"}

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listScripts",
			Method:      http.MethodGet,
			Path:        "/scripts",
			Summary:     "List scripts across all repositories with cache status",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ScriptsResponse, error) {
			return handleListScripts(ctx, manager, "")
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listRepositoryScripts",
			Method:      http.MethodGet,
			Path:        "/repos/{repo}/scripts",
			Summary:     "List one repository's scripts with cache status",
			Tags:        tags,
		},
		func(ctx context.Context, input *ScriptsRequest) (*ScriptsResponse, error) {
			return handleListScripts(ctx, manager, input.Repo)
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "downloadScript",
			Method:      http.MethodPost,
			Path:        "/repos/{repo}/scripts/{script}/download",
			Summary:     "Download a script with checksum verification and cache it",
			Tags:        tags,
		},
		func(ctx context.Context, input *DownloadRequest) (*DownloadResponse, error) {
			entry, err := manager.DownloadScript(ctx, input.Repo, input.Script)
			if err != nil {
				return nil, err
			}
			return &DownloadResponse{Body: entry}, nil
		},
	)

	updateTags := []string{"Updates"}

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listAvailableUpdates",
			Method:      http.MethodGet,
			Path:        "/repos/{repo}/updates",
			Summary:     "List cached scripts with an update available (no side effects)",
			Tags:        updateTags,
		},
		func(ctx context.Context, input *ScriptsRequest) (*ScriptsResponse, error) {
			statuses, err := manager.AvailableUpdates(ctx, input.Repo)
			if err != nil {
				return nil, err
			}
			resp := &ScriptsResponse{}
			resp.Body.Scripts = statuses
			return resp, nil
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "checkForUpdates",
			Method:      http.MethodPost,
			Path:        "/repos/{repo}/updates/check",
			Summary:     "Check a repository for updates, subject to throttling",
			Tags:        updateTags,
		},
		func(ctx context.Context, input *CheckUpdatesRequest) (*CheckUpdatesResponse, error) {
			var opts []repository.CheckOption
			if input.Force {
				opts = append(opts, repository.WithForce())
			}
			count, err := manager.CheckForUpdates(ctx, input.Repo, opts...)
			if err != nil {
				return nil, err
			}
			resp := &CheckUpdatesResponse{}
			resp.Body.Updates = count
			return resp, nil
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "applyUpdates",
			Method:      http.MethodPost,
			Path:        "/repos/{repo}/updates/apply",
			Summary:     "Update every cached script whose manifest checksum changed",
			Tags:        updateTags,
		},
		func(ctx context.Context, input *ScriptsRequest) (*ApplyUpdatesResponse, error) {
			result, err := manager.UpdateAllScripts(ctx, input.Repo)
			if err != nil {
				return nil, err
			}
			return &ApplyUpdatesResponse{Body: result}, nil
		},
	)

	huma.Register(
		routerAPI,
		huma.Operation{
			OperationID: "listOrphans",
			Method:      http.MethodGet,
			Path:        "/repos/{repo}/orphans",
			Summary:     "List cached scripts no longer present in the manifest",
			Tags:        updateTags,
		},
		func(ctx context.Context, input *ScriptsRequest) (*OrphansResponse, error) {
			orphans, err := manager.Orphans(ctx, input.Repo)
			if err != nil {
				return nil, err
			}
			resp := &OrphansResponse{}
			resp.Body.Orphans = orphans
			return resp, nil
		},
	)
}

func handleListScripts(ctx context.Context, manager ManagerAccessor, repo string) (*ScriptsResponse, error) {
	statuses, err := manager.GetScripts(ctx, repo)
	if err != nil {
		return nil, err
	}
	resp := &ScriptsResponse{}
	resp.Body.Scripts = statuses
	return resp, nil
}

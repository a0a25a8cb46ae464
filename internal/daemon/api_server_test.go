package daemon

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/scriptler-dev/scriptler/internal/errors"
)

func TestNewAPIServer_AppliesDefaults(t *testing.T) {
	t.Parallel()

	deps := APIDependencies{
		Logger:  hclog.NewNullLogger(),
		Manager: &stubManager{},
		Addr:    "localhost:8090",
	}

	server, err := NewAPIServer(deps)
	require.NoError(t, err)
	require.NotNil(t, server)
	require.Equal(t, DefaultShutdownTimeout, server.shutdownTimeout)
	require.False(t, server.cors.Enabled)

	server2, err := NewAPIServer(deps,
		WithShutdownTimeout(10*time.Second),
		WithCORS(CORSConfig{Enabled: true, AllowOrigins: []string{"http://localhost:3000"}}),
	)
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, server2.shutdownTimeout)
	require.True(t, server2.cors.Enabled)

	// Nil options are skipped.
	server3, err := NewAPIServer(deps, nil, WithShutdownTimeout(3*time.Second), nil)
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, server3.shutdownTimeout)
}

func TestNewAPIServer_InvalidOptions(t *testing.T) {
	t.Parallel()

	deps := APIDependencies{
		Logger:  hclog.NewNullLogger(),
		Manager: &stubManager{},
		Addr:    "localhost:8090",
	}

	_, err := NewAPIServer(deps, WithShutdownTimeout(0))
	require.Error(t, err)
}

func TestAPIDependencies_Validate(t *testing.T) {
	t.Parallel()

	tc := []struct {
		name        string
		deps        APIDependencies
		expectError bool
	}{
		{
			name: "valid dependencies",
			deps: APIDependencies{
				Logger:  hclog.NewNullLogger(),
				Manager: &stubManager{},
				Addr:    "localhost:8090",
			},
		},
		{
			name: "missing logger",
			deps: APIDependencies{
				Manager: &stubManager{},
				Addr:    "localhost:8090",
			},
			expectError: true,
		},
		{
			name: "missing manager",
			deps: APIDependencies{
				Logger: hclog.NewNullLogger(),
				Addr:   "localhost:8090",
			},
			expectError: true,
		},
		{
			name: "blank address",
			deps: APIDependencies{
				Logger:  hclog.NewNullLogger(),
				Manager: &stubManager{},
				Addr:    "   ",
			},
			expectError: true,
		},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := testCase.deps.Validate()
			if testCase.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tc := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "bad request",
			err:            fmt.Errorf("%w: id cannot be empty", errors.ErrBadRequest),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not found",
			err:            fmt.Errorf("%w: repository 'x' is not configured", errors.ErrNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "network failure",
			err:            fmt.Errorf("%w: failed to download", errors.ErrNetwork),
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "manifest parse failure",
			err:            fmt.Errorf("%w: not a manifest", errors.ErrParse),
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "manifest validation failure",
			err:            fmt.Errorf("%w: missing checksum", errors.ErrValidation),
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "checksum failure",
			err:            fmt.Errorf("%w: after 3 attempts", errors.ErrChecksum),
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "unmapped error",
			err:            stdErrors.New("something unexpected"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			statusErr := mapError(hclog.NewNullLogger(), testCase.err)
			require.Equal(t, testCase.expectedStatus, statusErr.GetStatus())
		})
	}
}

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	handler := errorHandler(hclog.NewNullLogger())

	// No underlying error: status and message pass through.
	statusErr := handler(nil, http.StatusTeapot, "short and stout")
	require.Equal(t, http.StatusTeapot, statusErr.GetStatus())

	// A single domain error wins over the supplied status.
	statusErr = handler(nil, http.StatusInternalServerError, "ignored",
		fmt.Errorf("%w: nope", errors.ErrNotFound))
	require.Equal(t, http.StatusNotFound, statusErr.GetStatus())

	// Joined errors still map on the first recognizable sentinel.
	statusErr = handler(nil, http.StatusInternalServerError, "ignored",
		fmt.Errorf("%w: nope", errors.ErrBadRequest),
		stdErrors.New("and more"),
	)
	require.Equal(t, http.StatusBadRequest, statusErr.GetStatus())
}

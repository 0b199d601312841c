package console

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sabbasth/rp-exporter/internal/testutil"
)

func TestClient_ListTopics(t *testing.T) {
	fake := testutil.NewFakeConsole(t)
	fake.Handle("/api/topics", http.StatusOK, testutil.WrappedListBody(
		testutil.TopicEntry("test-topic", testutil.WithTopicSize(3072)),
	))

	c := NewClient(fake.URL+"/", WithUserAgent("rp-exporter/test"))
	assert.Equal(t, fake.URL, c.BaseURL())

	list, err := c.ListTopics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ShapeObject, list.Shape)
	require.Len(t, list.Topics, 1)
	assert.Equal(t, Topic{Name: "test-topic", HasSummary: true, SizeBytes: 3072}, list.Topics[0])
	assert.Equal(t, []string{"rp-exporter/test"}, fake.UserAgents())
}

func TestClient_TopicDetail(t *testing.T) {
	fake := testutil.NewFakeConsole(t)
	fake.Handle("/api/topics/test-topic", http.StatusOK, testutil.DetailBody(
		testutil.TopicEntry("test-topic", testutil.WithPartitions(
			testutil.PartitionEntry(0, 1024),
			testutil.PartitionEntry(1, 2048),
		)),
	))

	c := NewClient(fake.URL)
	detail, err := c.TopicDetail(context.Background(), "test-topic")
	require.NoError(t, err)

	assert.Equal(t, []Partition{{ID: 0, SizeBytes: 1024}, {ID: 1, SizeBytes: 2048}}, detail.Topic.Partitions)
	assert.Equal(t, 1, fake.Hits("/api/topics/test-topic"))
}

func TestClient_TopicDetailEscapesName(t *testing.T) {
	fake := testutil.NewFakeConsole(t)
	fake.Handle("/api/topics/a%20b", http.StatusOK, `{"partitions":[]}`)

	c := NewClient(fake.URL)
	_, err := c.TopicDetail(context.Background(), "a b")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Hits("/api/topics/a%20b"))
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantOutcome string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`, OutcomeHTTPError},
		{"unauthorized", http.StatusUnauthorized, `Unauthorized`, OutcomeHTTPError},
		{"html body", http.StatusOK, `<html>login</html>`, OutcomeDecodeError},
		{"empty body", http.StatusOK, ``, OutcomeDecodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeConsole(t)
			fake.Handle("/api/topics", tt.status, tt.body)
			fake.Handle("/api/topics/t", tt.status, tt.body)
			c := NewClient(fake.URL)

			_, err := c.ListTopics(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantOutcome, Outcome(err))

			_, err = c.TopicDetail(context.Background(), "t")
			require.Error(t, err)
			assert.Equal(t, tt.wantOutcome, Outcome(err))
		})
	}
}

func TestClient_APIErrorCarriesStatus(t *testing.T) {
	fake := testutil.NewFakeConsole(t)
	fake.Handle("/api/topics", http.StatusServiceUnavailable, ``)

	_, err := NewClient(fake.URL).ListTopics(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, EndpointList, apiErr.Endpoint)
	assert.Equal(t, fake.URL+"/api/topics", apiErr.URL)
	assert.Contains(t, err.Error(), "503")
}

func TestClient_TransportError(t *testing.T) {
	fake := testutil.NewFakeConsole(t)
	url := fake.URL
	fake.Close()

	_, err := NewClient(url).ListTopics(context.Background())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, EndpointList, transportErr.Endpoint)
	assert.Equal(t, OutcomeTransportError, Outcome(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := c.ListTopics(context.Background())

	require.Error(t, err)
	assert.Equal(t, OutcomeTransportError, Outcome(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_DetailRateLimitHonoursContext(t *testing.T) {
	fake := testutil.NewFakeConsole(t)
	fake.Handle("/api/topics/t", http.StatusOK, `{"partitions":[]}`)

	c := NewClient(fake.URL, WithDetailRateLimit(0.001))

	// The first request consumes the only token.
	_, err := c.TopicDetail(context.Background(), "t")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.TopicDetail(ctx, "t")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, EndpointDetail, transportErr.Endpoint)
	assert.Equal(t, 1, fake.Hits("/api/topics/t"))
}

func TestClient_NoRateLimitByDefault(t *testing.T) {
	fake := testutil.NewFakeConsole(t)
	fake.Handle("/api/topics/t", http.StatusOK, `{"partitions":[]}`)

	c := NewClient(fake.URL, WithDetailRateLimit(0))
	for i := 0; i < 5; i++ {
		_, err := c.TopicDetail(context.Background(), "t")
		require.NoError(t, err)
	}
	assert.Equal(t, 5, fake.Hits("/api/topics/t"))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeHTTPError, Outcome(&APIError{}))
	assert.Equal(t, OutcomeDecodeError, Outcome(&DecodeError{Err: errors.New("x")}))
	assert.Equal(t, OutcomeTransportError, Outcome(&TransportError{Err: errors.New("x")}))
	assert.Equal(t, OutcomeTransportError, Outcome(errors.New("other")))
}

package codingame

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCodinGamerHandle = "7fb5b5a9e7d4c3f0a1b2c3d4e5f607181234567"
	testClashHandle      = "1234567abcdef0123456789abcdef012345678f"
)

// newTestServer serves canned responses per endpoint and records request bodies
func newTestServer(t *testing.T, routes map[string]func(w http.ResponseWriter, body []any)) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body []any
		require.NoError(t, json.Unmarshal(data, &body))

		handler, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHandleValidation(t *testing.T) {
	assert.True(t, ValidCodinGamerHandle(testCodinGamerHandle))
	assert.False(t, ValidCodinGamerHandle(testClashHandle))
	assert.False(t, ValidCodinGamerHandle("not-a-handle"))

	assert.True(t, ValidClashHandle(testClashHandle))
	assert.False(t, ValidClashHandle(testCodinGamerHandle))
	assert.False(t, ValidClashHandle(""))
}

func TestClient_CodinGamer(t *testing.T) {
	server := newTestServer(t, map[string]func(http.ResponseWriter, []any){
		"/services/CodinGamer/findCodingamePointsStatsByHandle": func(w http.ResponseWriter, body []any) {
			if body[0] != testCodinGamerHandle {
				w.Write([]byte(`{"codingamer": null}`))
				return
			}
			w.Write([]byte(`{
				"codingamePointsRankingDto": {"codingamePointsTotal": 4200},
				"codingamer": {
					"userId": 4567890,
					"publicHandle": "` + testCodinGamerHandle + `",
					"pseudo": "takos",
					"level": 27,
					"rank": 1523,
					"countryId": "FR",
					"category": "STUDENT",
					"tagline": "Python dev",
					"biography": "I write bots",
					"school": "EPFL",
					"avatar": 41234567
				}
			}`))
		},
	})
	client := NewClient(server.URL+"/services", server.Client())

	t.Run("found", func(t *testing.T) {
		codinGamer, err := client.CodinGamer(context.Background(), testCodinGamerHandle)
		require.NoError(t, err)

		assert.Equal(t, int64(4567890), codinGamer.ID)
		assert.Equal(t, "takos", codinGamer.DisplayName())
		assert.Equal(t, 27, codinGamer.Level)
		assert.Equal(t, 1523, codinGamer.Rank)
		assert.Equal(t, "Student", codinGamer.CategoryTitle())
		assert.Equal(t, "EPFL", codinGamer.School)
		assert.Empty(t, codinGamer.Company)
		assert.Equal(t, "https://static.codingame.com/servlet/fileservlet?id=41234567", codinGamer.AvatarURL())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.CodinGamer(context.Background(), "0000000000000000000000000000000000000000"[:32]+"0000000")
		var notFound *NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Contains(t, err.Error(), "No CodinGamer with handle")
	})

	t.Run("bad format never calls the API", func(t *testing.T) {
		_, err := client.CodinGamer(context.Background(), "takos")
		var formatErr *FormatError
		require.True(t, errors.As(err, &formatErr))
		assert.Equal(t, `CodinGamer handle "takos" isn't in the good format (regex: [0-9a-f]{32}[0-9]{7}).`, err.Error())
	})
}

func TestClient_ClashOfCode(t *testing.T) {
	server := newTestServer(t, map[string]func(http.ResponseWriter, []any){
		"/services/ClashOfCode/findClashByHandle": func(w http.ResponseWriter, body []any) {
			if body[0] != testClashHandle {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"id": 502, "message": "Clash not found"}`))
				return
			}
			w.Write([]byte(`{
				"publicHandle": "` + testClashHandle + `",
				"publicClash": true,
				"nbPlayersMin": 2,
				"nbPlayersMax": 8,
				"mode": "SHORTEST",
				"modes": ["FASTEST", "SHORTEST"],
				"programmingLanguages": [],
				"started": true,
				"finished": false,
				"creationTime": "Mar 31, 2021 7:12:32 PM",
				"startTime": 1617218000000,
				"players": [
					{"codingamerId": 1, "codingamerNickname": "takos", "status": "OWNER", "position": 1, "languageId": "Python3"},
					{"codingamerId": 2, "codingamerNickname": "_bob_", "status": "STANDARD", "position": 2}
				]
			}`))
		},
	})
	client := NewClient(server.URL+"/services/", server.Client())

	t.Run("found", func(t *testing.T) {
		clash, err := client.ClashOfCode(context.Background(), testClashHandle)
		require.NoError(t, err)

		assert.True(t, clash.PublicClash)
		assert.Equal(t, 2, clash.MinPlayers)
		assert.Equal(t, "SHORTEST", clash.Mode)
		assert.Equal(t, []string{"FASTEST", "SHORTEST"}, clash.Modes)
		assert.Empty(t, clash.ProgrammingLanguages)
		require.Len(t, clash.Players, 2)
		assert.Equal(t, "OWNER", clash.Players[0].Status)
		assert.Equal(t, time.Date(2021, 3, 31, 19, 12, 32, 0, time.UTC), clash.CreationTime.Time)
		assert.Equal(t, time.UnixMilli(1617218000000).UTC(), clash.StartTime.Time)
		assert.True(t, clash.EndTime.IsZero())
		assert.Equal(t, "https://www.codingame.com/clashofcode/clash/"+testClashHandle, clash.JoinURL())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.ClashOfCode(context.Background(), "7654321abcdef0123456789abcdef012345678f")
		var notFound *NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, `No Clash of Code with handle "7654321abcdef0123456789abcdef012345678f"`, err.Error())
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := client.ClashOfCode(context.Background(), testCodinGamerHandle)
		var formatErr *FormatError
		assert.True(t, errors.As(err, &formatErr))
	})
}

func TestClient_ClashOfCodeErrorStatuses(t *testing.T) {
	const (
		missingHandle     = "2234567abcdef0123456789abcdef012345678f"
		rateLimitedHandle = "3234567abcdef0123456789abcdef012345678f"
		forbiddenHandle   = "4234567abcdef0123456789abcdef012345678f"
	)
	server := newTestServer(t, map[string]func(http.ResponseWriter, []any){
		"/services/ClashOfCode/findClashByHandle": func(w http.ResponseWriter, body []any) {
			switch body[0] {
			case missingHandle:
				w.WriteHeader(http.StatusNotFound)
			case rateLimitedHandle:
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte("slow down"))
			case forbiddenHandle:
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error": "forbidden"}`))
			}
		},
	})
	client := NewClient(server.URL+"/services/", server.Client())

	_, err := client.ClashOfCode(context.Background(), missingHandle)
	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))

	for _, handle := range []string{rateLimitedHandle, forbiddenHandle} {
		_, err := client.ClashOfCode(context.Background(), handle)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), handle)
		assert.False(t, errors.As(err, &notFound), handle)
	}

	_, err = client.ClashOfCode(context.Background(), rateLimitedHandle)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "slow down", apiErr.Body)
}

func TestClient_PendingClashes(t *testing.T) {
	t.Run("lists clashes", func(t *testing.T) {
		server := newTestServer(t, map[string]func(http.ResponseWriter, []any){
			"/services/ClashOfCode/findPendingClashes": func(w http.ResponseWriter, body []any) {
				assert.Empty(t, body)
				w.Write([]byte(`[{"publicHandle": "` + testClashHandle + `", "started": false, "modes": null}]`))
			},
		})
		client := NewClient(server.URL+"/services", server.Client())

		clashes, err := client.PendingClashes(context.Background())
		require.NoError(t, err)
		require.Len(t, clashes, 1)
		assert.False(t, clashes[0].Started)
	})

	t.Run("server error", func(t *testing.T) {
		server := newTestServer(t, map[string]func(http.ResponseWriter, []any){
			"/services/ClashOfCode/findPendingClashes": func(w http.ResponseWriter, body []any) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("upstream down"))
			},
		})
		client := NewClient(server.URL+"/services", server.Client())

		_, err := client.PendingClashes(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.Status)
		assert.Equal(t, "upstream down", apiErr.Body)
	})
}

func TestAPITime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"null", `null`, time.Time{}, false},
		{"empty string", `""`, time.Time{}, false},
		{"api layout", `"Jan 2, 2021 3:04:05 PM"`, time.Date(2021, 1, 2, 15, 4, 5, 0, time.UTC), false},
		{"rfc3339", `"2021-01-02T15:04:05Z"`, time.Date(2021, 1, 2, 15, 4, 5, 0, time.UTC), false},
		{"epoch millis", `1609600000000`, time.UnixMilli(1609600000000).UTC(), false},
		{"garbage", `"yesterday"`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got APITime
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got.Time), "expected %v, got %v", tt.expected, got.Time)
		})
	}
}

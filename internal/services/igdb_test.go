package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(exchanges *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		exchanges.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
}

func TestIGDBToken_ConcurrentCallersShareOneExchange(t *testing.T) {
	var exchanges atomic.Int32
	ts := tokenServer(&exchanges)
	defer ts.Close()

	client := NewIGDBClient(IGDBConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     ts.URL,
		Logger:       logrus.New(),
	})

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = client.token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", tokens[i])
	}
	assert.Equal(t, int32(1), exchanges.Load())
}

func TestIGDBToken_ReusedAcrossCalls(t *testing.T) {
	var exchanges atomic.Int32
	ts := tokenServer(&exchanges)
	defer ts.Close()

	client := NewIGDBClient(IGDBConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     ts.URL,
		Logger:       logrus.New(),
	})

	for i := 0; i < 3; i++ {
		token, err := client.token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	}
	assert.Equal(t, int32(1), exchanges.Load())
}

func TestSanitizeQuery(t *testing.T) {
	_, err := SanitizeQuery("")
	assert.Error(t, err)
	_, err = SanitizeQuery("   ")
	assert.Error(t, err)

	query, err := SanitizeQuery("  dune  ")
	require.NoError(t, err)
	assert.Equal(t, "dune", query)

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	query, err = SanitizeQuery(string(long))
	require.NoError(t, err)
	assert.Len(t, query, 100)
}

func TestPeriodWindow(t *testing.T) {
	for period, want := range map[string]int{"week": 7, "month": 30, "quarter": 90} {
		got, err := PeriodWindow(period)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := PeriodWindow("year")
	assert.Error(t, err)
	_, err = PeriodWindow("")
	assert.Error(t, err)
}
